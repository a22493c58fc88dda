// Package split cuts strokes into fragments along a selection or erase
// contour.
//
// Positions along a stroke are global spline parameters: u = i + t lies on
// segment i at local parameter t. A stroke trimmed to [Ts, Tf] spans
// u in [Ts, n-2+Tf] for n points.
package split

import (
	"math"

	"InkBoard/internal/geom"
	"InkBoard/internal/state"
)

// Options configures a Splitter.
type Options struct {
	// DiscardOverlapped drops fragments straddling the contour boundary.
	DiscardOverlapped bool
	// OverlapMargin is the half-length of the overlapped region around
	// each crossing, as a multiple of the stroke width. Zero disables
	// overlapped fragments.
	OverlapMargin float64
}

// Fragment is a contiguous piece of a stroke's spline: Count points
// starting at Begin, trimmed to [Ts, Tf].
type Fragment struct {
	Begin, Count int
	Ts, Tf       float64
	Inside       bool
	Overlapped   bool
}

// Selected reports whether the fragment joins the selection.
func (f Fragment) Selected() bool {
	return f.Inside || f.Overlapped
}

// Range returns the global spline parameters covered by f.
func (f Fragment) Range() (u0, u1 float64) {
	return float64(f.Begin) + f.Ts, float64(f.Begin+f.Count-2) + f.Tf
}

// Splitter cuts strokes against contours.
type Splitter struct {
	opts Options
}

func NewSplitter(opts Options) *Splitter {
	return &Splitter{opts: opts}
}

// Options returns the splitter configuration.
func (sp *Splitter) Options() Options {
	return sp.opts
}

// path is a stroke's model-space polyline measured by arclength.
type path struct {
	samples []state.PathPoint
	cum     []float64 // arclength at each sample
	u0, u1  float64
	n       int // spline segments
	width   float64
}

func measure(s *state.Stroke) path {
	p := path{samples: s.Cached().Samples, n: s.Spline.Segments(), width: s.Width()}
	p.u0, p.u1 = s.Spline.Range()
	p.cum = make([]float64, len(p.samples))
	for i := 1; i < len(p.samples); i++ {
		p.cum[i] = p.cum[i-1] + p.samples[i-1].Pos().Distance(p.samples[i].Pos())
	}
	return p
}

func (p path) length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// segRange returns the global parameters spanned by sample segment j.
func (p path) segRange(j int) (float64, float64) {
	a, b := float64(j), float64(j+1)
	if j == 0 {
		a = p.u0
	}
	if j == p.n-1 {
		b = p.u1
	}
	return a, b
}

// param converts an arclength position to a global spline parameter.
func (p path) param(s float64) float64 {
	for j := 0; j+1 < len(p.samples); j++ {
		l := p.cum[j+1] - p.cum[j]
		if l == 0 || s > p.cum[j+1] {
			continue
		}
		a, b := p.segRange(j)
		return a + (b-a)*(s-p.cum[j])/l
	}
	return p.u1
}

// at returns the model position at arclength s.
func (p path) at(s float64) state.PathPoint {
	for j := 0; j+1 < len(p.samples); j++ {
		l := p.cum[j+1] - p.cum[j]
		if l == 0 || s > p.cum[j+1] {
			continue
		}
		return p.samples[j].Lerp(p.samples[j+1], (s-p.cum[j])/l)
	}
	return p.samples[len(p.samples)-1]
}

// crossings returns the arclength positions where the path enters or
// leaves c, in order.
func (p path) crossings(c geom.Contour) []float64 {
	var out []float64
	for j := 0; j+1 < len(p.samples); j++ {
		l := p.cum[j+1] - p.cum[j]
		if l == 0 {
			continue
		}
		for _, t := range c.Crossings(p.samples[j].Pos(), p.samples[j+1].Pos()) {
			out = append(out, p.cum[j]+t*l)
		}
	}
	return out
}

// Enclosed reports whether every point of s lies inside c.
func (sp *Splitter) Enclosed(s *state.Stroke, c geom.Contour) bool {
	if c.IsEmpty() || !geom.Intersects(s.Bounds(), c.Bounds()) {
		return false
	}
	p := measure(s)
	return len(p.samples) > 0 && c.Contains(p.samples[0].Pos()) && len(p.crossings(c)) == 0
}

// Touches reports whether any point of s lies inside c.
func (sp *Splitter) Touches(s *state.Stroke, c geom.Contour) bool {
	if c.IsEmpty() || !geom.Intersects(s.Bounds(), c.Bounds()) {
		return false
	}
	p := measure(s)
	return len(p.samples) > 0 && (c.Contains(p.samples[0].Pos()) || len(p.crossings(c)) > 0)
}

type interval struct {
	a, b       float64
	inside     bool
	overlapped bool
}

// Split cuts s where its path crosses c. A stroke entirely outside c
// yields no fragments; a stroke entirely inside yields one inside
// fragment covering the whole spline. Raster strokes are never split.
func (sp *Splitter) Split(s *state.Stroke, c geom.Contour) []Fragment {
	if !s.Selectable() || c.IsEmpty() || !geom.Intersects(s.Bounds(), c.Bounds()) {
		return nil
	}
	p := measure(s)
	if len(p.samples) == 0 {
		return nil
	}
	xs := p.crossings(c)
	if len(xs) == 0 {
		if !c.Contains(p.samples[0].Pos()) {
			return nil
		}
		return []Fragment{{
			Begin:  0,
			Count:  len(s.Spline.Points),
			Ts:     s.Spline.Ts,
			Tf:     s.Spline.Tf,
			Inside: true,
		}}
	}

	var out []Fragment
	for _, iv := range sp.intervals(p, c, xs) {
		if iv.overlapped && sp.opts.DiscardOverlapped {
			continue
		}
		out = append(out, p.fragment(iv))
	}
	return out
}

// intervals tiles [0, length] with clean and overlapped intervals and
// classifies each one.
func (sp *Splitter) intervals(p path, c geom.Contour, xs []float64) []interval {
	total := p.length()
	margin := sp.opts.OverlapMargin * p.width

	var over []interval
	for _, x := range xs {
		a, b := max(x-margin, 0), min(x+margin, total)
		if n := len(over); n > 0 && a <= over[n-1].b {
			over[n-1].b = max(over[n-1].b, b)
			continue
		}
		over = append(over, interval{a: a, b: b, overlapped: true})
	}

	var all []interval
	pos := 0.0
	for _, o := range over {
		all = append(all, interval{a: pos, b: o.a}, o)
		pos = o.b
	}
	all = append(all, interval{a: pos, b: total})

	var out []interval
	for _, iv := range all {
		if iv.b-iv.a <= 1e-9 {
			continue
		}
		if iv.overlapped {
			iv.inside = c.Contains(p.at(iv.a).Pos()) || c.Contains(p.at(iv.b).Pos())
		} else {
			iv.inside = c.Contains(p.at((iv.a + iv.b) / 2).Pos())
		}
		if n := len(out); n > 0 && out[n-1].inside == iv.inside && out[n-1].overlapped == iv.overlapped {
			out[n-1].b = iv.b
			continue
		}
		out = append(out, iv)
	}
	return out
}

func (p path) fragment(iv interval) Fragment {
	ua, ub := p.u0, p.u1
	if iv.a > 0 {
		ua = p.param(iv.a)
	}
	if iv.b < p.length() {
		ub = p.param(iv.b)
	}
	ja := min(max(int(math.Floor(ua)), 0), p.n-1)
	jb := min(max(int(math.Ceil(ub))-1, ja), p.n-1)
	return Fragment{
		Begin:      ja,
		Count:      jb + 2 - ja,
		Ts:         ua - float64(ja),
		Tf:         ub - float64(jb),
		Inside:     iv.inside,
		Overlapped: iv.overlapped,
	}
}
