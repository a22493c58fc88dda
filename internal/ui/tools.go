package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/controller"
	"InkBoard/internal/logging"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

var palette = []color.NRGBA{
	{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff},
	{R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	{R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
	{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	{R: 0xfd, G: 0xd8, B: 0x35, A: 0xff},
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.NRGBA
	OnTapped func(color.NRGBA)
}

func newColorSwatch(c color.NRGBA, tapped func(color.NRGBA)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar returns the controls for the operation mode, the drawing
// tools, the stroke colour and the view.
func NewToolbar(board *BoardWidget, reg *tools.Registry, onExport func()) fyne.CanvasObject {
	ctl := board.Controller()
	opts := ctl.Options()

	mode := widget.NewSelect(controller.ModeNames(), func(name string) {
		if m, ok := controller.ParseMode(name); ok && m != ctl.Mode() {
			ctl.SetOperationMode(m)
		}
	})
	mode.SetSelected(ctl.Mode().String())

	toolSelect := func(kind state.Kind, current string) *widget.Select {
		sel := widget.NewSelect(reg.URIs(kind), func(uri string) {
			if err := ctl.SetTool(uri); err != nil {
				logging.Logger().Warn("tool not set", "tool", uri, "err", err)
			}
		})
		sel.SetSelected(current)
		return sel
	}

	swatches := container.NewHBox()
	for _, c := range palette {
		swatches.Add(newColorSwatch(c, ctl.SetColor))
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { board.Zoom(1.25) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { board.Zoom(0.8) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
		widget.NewToolbarAction(theme.DeleteIcon(), ctl.Clear),
	)

	return container.NewHBox(
		widget.NewLabel("Mode:"),
		mode,
		widget.NewSeparator(),
		widget.NewLabel("Pen:"),
		toolSelect(state.Vector, opts.VectorTool),
		widget.NewLabel("Brush:"),
		toolSelect(state.Raster, opts.RasterTool),
		widget.NewSeparator(),
		swatches,
		widget.NewSeparator(),
		tb,
	)
}
