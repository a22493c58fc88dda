package geom

import (
	"math"
	"slices"

	"github.com/gogpu/gg"
)

const (
	eps     = 1e-9
	minArea = 1e-6

	// swathSides is the number of sides used to approximate eraser tips.
	swathSides = 16
)

// Contour is a closed selection or erase region in model space: the union
// of one or more simple polygons.
type Contour struct {
	polys []polygon
}

type polygon struct {
	pts    []gg.Point
	bounds gg.Rect
}

// NewContour builds a contour from already simple polygons. Polygons with
// fewer than three points or no enclosed area are dropped.
func NewContour(polys ...[]gg.Point) Contour {
	var c Contour
	for _, pts := range polys {
		c.add(pts)
	}
	return c
}

func (c *Contour) add(pts []gg.Point) {
	if len(pts) < 3 || math.Abs(signedArea(pts)) < minArea {
		return
	}
	c.polys = append(c.polys, polygon{pts: pts, bounds: Bounds(pts)})
}

// Lasso closes a recorded pointer path into a contour. Self-intersections
// are resolved by cutting the path into simple loops at every crossing, so
// the result covers the union of all enclosed areas. Paths enclosing no
// area produce an empty contour.
func Lasso(path []gg.Point) Contour {
	pts := dedupe(path)
	if len(pts) < 3 {
		return Contour{}
	}
	var c Contour
	for _, loop := range splitLoops(pts) {
		c.add(loop)
	}
	return c
}

// Swath returns the area swept by a round tip of the given radius moving
// along path.
func Swath(path []gg.Point, radius float64) Contour {
	var c Contour
	pts := dedupe(path)
	if radius <= 0 {
		return c
	}
	for i, p := range pts {
		c.add(circle(p, radius))
		if i == 0 {
			continue
		}
		a := pts[i-1]
		d := p.Sub(a)
		if d.Length() < eps {
			continue
		}
		n := gg.Pt(-d.Y, d.X).Normalize().Mul(radius)
		c.add([]gg.Point{a.Add(n), p.Add(n), p.Sub(n), a.Sub(n)})
	}
	return c
}

// IsEmpty reports whether the contour encloses no area.
func (c Contour) IsEmpty() bool {
	return len(c.polys) == 0
}

// Polygons returns the simple polygons making up the contour.
func (c Contour) Polygons() [][]gg.Point {
	out := make([][]gg.Point, len(c.polys))
	for i, p := range c.polys {
		out[i] = p.pts
	}
	return out
}

// Bounds returns the bounding box of the contour.
func (c Contour) Bounds() gg.Rect {
	r := EmptyRect
	for _, p := range c.polys {
		r = Union(r, p.bounds)
	}
	return r
}

// Contains reports whether p lies inside any polygon of the contour.
func (c Contour) Contains(p gg.Point) bool {
	for _, poly := range c.polys {
		if poly.bounds.Contains(p) && poly.contains(p) {
			return true
		}
	}
	return false
}

// Crossings returns the sorted parameters t in [0, 1] at which the segment
// a-b enters or leaves the contour.
func (c Contour) Crossings(a, b gg.Point) []float64 {
	seg := SegmentBounds(a, b, 0)
	var ts []float64
	for _, poly := range c.polys {
		if !Intersects(seg, poly.bounds) {
			continue
		}
		n := len(poly.pts)
		for i := range n {
			if t, _, ok := intersect(a, b, poly.pts[i], poly.pts[(i+1)%n]); ok {
				ts = append(ts, t)
			}
		}
	}
	if len(ts) == 0 {
		return nil
	}
	slices.Sort(ts)
	ts = slices.CompactFunc(ts, func(x, y float64) bool { return math.Abs(x-y) < eps })

	// Keep only candidates where membership actually changes; touching a
	// vertex or an edge shared by two polygons is not a crossing.
	var out []float64
	prev := c.Contains(a.Lerp(b, ts[0]/2))
	for i, t := range ts {
		next := 1.0
		if i+1 < len(ts) {
			next = ts[i+1]
		}
		in := c.Contains(a.Lerp(b, (t+next)/2))
		if in != prev {
			out = append(out, t)
		}
		prev = in
	}
	return out
}

func (p polygon) contains(pt gg.Point) bool {
	in := false
	n := len(p.pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.pts[i], p.pts[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

// intersect returns the parameters of the intersection of segments a-b and
// c-d along each segment.
func intersect(a, b, c, d gg.Point) (t, u float64, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := r.Cross(s)
	if math.Abs(denom) < eps {
		return 0, 0, false
	}
	ca := c.Sub(a)
	t = ca.Cross(s) / denom
	u = ca.Cross(r) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return 0, 0, false
	}
	return min(max(t, 0), 1), min(max(u, 0), 1), true
}

// splitLoops walks the closed path and cuts off a loop whenever the next
// edge crosses an earlier, non-adjacent edge.
func splitLoops(pts []gg.Point) [][]gg.Point {
	var loops [][]gg.Point
	stack := []gg.Point{pts[0]}
	closing := append(slices.Clone(pts[1:]), pts[0])
	for k, p := range closing {
		last := k == len(closing)-1
		for {
			from := stack[len(stack)-1]
			hit, at := -1, 0.0
			var x gg.Point
			for j := 0; j+2 < len(stack); j++ {
				if last && j == 0 {
					continue
				}
				t, u, ok := intersect(from, p, stack[j], stack[j+1])
				if !ok || t < eps || t > 1-eps || u < eps || u > 1-eps {
					continue
				}
				if hit < 0 || t < at {
					hit, at = j, t
					x = from.Lerp(p, t)
				}
			}
			if hit < 0 {
				break
			}
			loop := append([]gg.Point{x}, stack[hit+1:]...)
			loops = append(loops, loop)
			stack = append(stack[:hit+1:hit+1], x)
		}
		if !last {
			stack = append(stack, p)
		}
	}
	return append(loops, stack)
}

func signedArea(pts []gg.Point) float64 {
	var a float64
	n := len(pts)
	for i := range n {
		a += pts[i].Cross(pts[(i+1)%n])
	}
	return a / 2
}

func circle(c gg.Point, r float64) []gg.Point {
	pts := make([]gg.Point, swathSides)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / swathSides
		pts[i] = gg.Pt(c.X+r*math.Cos(angle), c.Y+r*math.Sin(angle))
	}
	return pts
}

func dedupe(path []gg.Point) []gg.Point {
	out := make([]gg.Point, 0, len(path))
	for _, p := range path {
		if len(out) > 0 && out[len(out)-1].Distance(p) < eps {
			continue
		}
		out = append(out, p)
	}
	return out
}
