package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/export"
	"InkBoard/internal/logging"
	"InkBoard/internal/tools"
)

// NewApp creates the fyne application. It must exist before any board
// widget reports status from another goroutine.
func NewApp() fyne.App {
	return app.NewWithID("org.inkboard")
}

// RunApp opens the board window and blocks until it is closed. A non-empty
// shareLink is shown with a copy button.
func RunApp(myApp fyne.App, title, shareLink string, board *BoardWidget, reg *tools.Registry, size fyne.Size) {
	myWindow := myApp.NewWindow(title)
	myWindow.Resize(size)

	toolbar := NewToolbar(board, reg, func() { exportDialog(myWindow, board) })

	status := container.NewHBox(board.StatusBar())
	if shareLink != "" {
		status.Add(widget.NewLabel("Share: " + shareLink))
		status.Add(widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			myWindow.Clipboard().SetContent(shareLink)
			board.statusBar.SetText("Link copied")
		}))
	}

	content := container.NewBorder(toolbar, status, nil, nil, board)
	myWindow.SetContent(content)
	myWindow.Canvas().Focus(board)
	myWindow.ShowAndRun()
}

func exportDialog(win fyne.Window, board *BoardWidget) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if w == nil {
			return
		}
		defer func() {
			if err := w.Close(); err != nil {
				logging.Logger().Warn("export not closed", "err", err)
			}
		}()
		strokes := board.Model().Strokes()
		if err := export.PDF(w, strokes); err != nil {
			logging.Logger().Warn("export failed", "err", err)
			dialog.ShowError(err, win)
			return
		}
		board.statusBar.SetText(fmt.Sprintf("Exported %d strokes", len(strokes)))
	}, win)
	d.SetFileName("inkboard.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}
