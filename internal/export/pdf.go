// Package export writes the board to other formats.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"

	"InkBoard/internal/geom"
	"InkBoard/internal/logging"
	"InkBoard/internal/state"
)

// margin around the drawing, in points.
const margin = 24

// PDF writes the strokes as a one-page landscape A4 document, scaled to
// fit the page. Vector strokes become round-capped segments and raster
// strokes their particles.
func PDF(w io.Writer, strokes []*state.Stroke) error {
	p := gofpdf.New("L", "pt", "A4", "")
	p.SetCreator("InkBoard", true)
	p.SetTitle("InkBoard", true)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	pw, ph := p.GetPageSize()
	m := fit(strokes, pw, ph)
	scale := m.A
	for _, s := range strokes {
		draw(p, s, m, scale)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	logging.Logger().Debug("pdf exported", "strokes", len(strokes))
	return nil
}

// fit returns the model-to-page transform centring the drawing on a page
// of size pw by ph. Drawings smaller than the page are not enlarged.
func fit(strokes []*state.Stroke, pw, ph float64) gg.Matrix {
	b := geom.EmptyRect
	for _, s := range strokes {
		b = geom.Union(b, s.Bounds())
	}
	if geom.IsEmpty(b) {
		return gg.Identity()
	}
	aw, ah := pw-2*margin, ph-2*margin
	scale := 1.0
	if b.Width() > 0 && b.Height() > 0 {
		scale = math.Min(1, math.Min(aw/b.Width(), ah/b.Height()))
	}
	ox := margin + (aw-b.Width()*scale)/2 - b.Min.X*scale
	oy := margin + (ah-b.Height()*scale)/2 - b.Min.Y*scale
	return gg.Translate(ox, oy).Multiply(gg.Scale(scale, scale))
}

func draw(p *gofpdf.Fpdf, s *state.Stroke, m gg.Matrix, scale float64) {
	mode := blendName(s.Blend)
	r, g, b := int(s.Color.R), int(s.Color.G), int(s.Color.B)
	p.SetDrawColor(r, g, b)
	p.SetFillColor(r, g, b)
	cache := s.Cached()

	if s.Kind == state.Raster {
		for _, pt := range cache.Particles {
			p.SetAlpha(alpha(s, pt.Alpha), mode)
			v := m.TransformPoint(pt.Pos)
			// gofpdf turns counter-clockwise on the page
			p.Ellipse(v.X, v.Y, pt.Width*scale/2, pt.Height*scale/2, -pt.Rotation*180/math.Pi, "F")
		}
		p.SetAlpha(1, "Normal")
		return
	}

	samples := cache.Samples
	if len(samples) == 1 {
		v := m.TransformPoint(samples[0].Pos())
		p.SetAlpha(alpha(s, samples[0].Alpha), mode)
		p.Circle(v.X, v.Y, s.PointWidth(samples[0])*scale/2, "F")
	}
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		va, vb := m.TransformPoint(a.Pos()), m.TransformPoint(b.Pos())
		p.SetAlpha(alpha(s, (a.Alpha+b.Alpha)/2), mode)
		p.SetLineWidth((s.PointWidth(a) + s.PointWidth(b)) / 2 * scale)
		p.Line(va.X, va.Y, vb.X, vb.Y)
	}
	p.SetAlpha(1, "Normal")
}

func alpha(s *state.Stroke, a float64) float64 {
	return math.Min(math.Max(a, 0), 1) * float64(s.Color.A) / 0xff
}

func blendName(b state.BlendMode) string {
	switch b {
	case state.BlendMultiply:
		return "Multiply"
	case state.BlendAdd:
		return "Screen"
	}
	return "Normal"
}
