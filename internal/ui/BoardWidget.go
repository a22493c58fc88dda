package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"

	"InkBoard/internal/controller"
	"InkBoard/internal/input"
	"InkBoard/internal/logging"
	"InkBoard/internal/render"
	"InkBoard/internal/state"
)

// BoardWidget shows the rendered board and feeds mouse input to the
// controller.
type BoardWidget struct {
	widget.BaseWidget

	model *state.Board
	ctl   *controller.Controller
	view  *render.Canvas
	img   *canvas.Image

	start time.Time
	down  bool

	statusBar *widget.Label
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ controller.View = (*render.Canvas)(nil)

func NewBoardWidget(model *state.Board, ctl *controller.Controller, view *render.Canvas) *BoardWidget {
	b := &BoardWidget{
		model:     model,
		ctl:       ctl,
		view:      view,
		start:     time.Now(),
		statusBar: widget.NewLabel("Ready"),
	}
	view.OnChange = b.Refresh
	b.ExtendBaseWidget(b)
	return b
}

// Controller returns the controller driven by the widget.
func (b *BoardWidget) Controller() *controller.Controller { return b.ctl }

// Model returns the board shown by the widget.
func (b *BoardWidget) Model() *state.Board { return b.model }

// StatusBar returns the label showing connection and export status.
func (b *BoardWidget) StatusBar() *widget.Label { return b.statusBar }

// SetStatus may be called from any goroutine.
func (b *BoardWidget) SetStatus(text string) {
	fyne.Do(func() { b.statusBar.SetText(text) })
}

// ApplyRemote hands an op from a peer to the controller on the UI
// goroutine. It may be called from any goroutine.
func (b *BoardWidget) ApplyRemote(op state.Op) {
	fyne.Do(func() {
		if err := b.ctl.ApplyRemote(op); err != nil {
			logging.Logger().Warn("remote op rejected", "op", op.Type, "site", op.Site, "err", err)
		}
	})
}

// Zoom scales the view around its centre.
func (b *BoardWidget) Zoom(factor float64) {
	w, h := b.view.Size()
	b.view.Zoom(factor, gg.Pt(float64(w)/2, float64(h)/2))
	b.ctl.Redraw()
}

func (b *BoardWidget) hostCanvas() fyne.Canvas {
	if app := fyne.CurrentApp(); app != nil {
		return app.Driver().CanvasForObject(b)
	}
	return nil
}

func (b *BoardWidget) scale() float32 {
	if c := b.hostCanvas(); c != nil {
		return c.Scale()
	}
	return 1
}

func (b *BoardWidget) toView(p fyne.Position) gg.Point {
	s := b.scale()
	return gg.Pt(float64(p.X*s), float64(p.Y*s))
}

func (b *BoardWidget) send(phase input.Phase, pos fyne.Position, mods fyne.KeyModifier, primary bool) {
	ev := input.Event{
		Phase:     phase,
		Device:    input.DeviceMouse,
		Primary:   primary,
		Modifiers: modifiers(mods),
		Sample:    input.Sample{Pos: b.toView(pos), Time: time.Since(b.start)},
	}
	if err := b.ctl.HandleEvent(ev); err != nil {
		logging.Logger().Warn("gesture aborted", "phase", phase, "err", err)
		b.statusBar.SetText(err.Error())
	}
}

func modifiers(m fyne.KeyModifier) input.Modifiers {
	var out input.Modifiers
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		out |= input.ModCtrl
	}
	if m&fyne.KeyModifierShift != 0 {
		out |= input.ModShift
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= input.ModAlt
	}
	return out
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if c := b.hostCanvas(); c != nil {
		c.Focus(b)
	}
	b.down = true
	b.send(input.Press, e.Position, e.Modifier, e.Button == desktop.MouseButtonPrimary)
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.down {
		return
	}
	b.send(input.Move, e.Position, 0, true)
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if !b.down {
		return
	}
	b.down = false
	b.send(input.Release, e.Position, e.Modifier, false)
}

func (b *BoardWidget) DragEnd() {}

// Scrolled pans the view; it never changes the current operation.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	s := b.scale()
	b.view.Pan(gg.Pt(float64(e.Scrolled.DX*s), float64(e.Scrolled.DY*s)))
	b.ctl.Redraw()
}

func (b *BoardWidget) FocusGained() {}
func (b *BoardWidget) FocusLost()   {}
func (b *BoardWidget) TypedRune(rune) {}

// TypedKey cancels the gesture in progress on Escape.
func (b *BoardWidget) TypedKey(e *fyne.KeyEvent) {
	if e.Name == fyne.KeyEscape {
		b.down = false
		b.ctl.Cancel()
	}
}

func (b *BoardWidget) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	s := b.scale()
	b.view.SetSize(int(size.Width*s), int(size.Height*s))
	b.ctl.Redraw()
}

func (b *BoardWidget) Refresh() {
	if b.img != nil {
		b.img.Image = b.view.Image()
	}
	b.BaseWidget.Refresh()
}

func (b *BoardWidget) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	b.img = canvas.NewImageFromImage(b.view.Image())
	b.img.FillMode = canvas.ImageFillStretch
	b.img.ScaleMode = canvas.ImageScaleFastest
	return widget.NewSimpleRenderer(b.img)
}
