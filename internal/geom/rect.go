// Package geom holds the rectangle and contour geometry used by the ink
// controller. Points, rectangles and transforms are the gg types.
package geom

import (
	"math"

	"github.com/gogpu/gg"
)

// EmptyRect is the rectangle that contains nothing. It is the identity for Union.
var EmptyRect = gg.Rect{
	Min: gg.Pt(math.Inf(1), math.Inf(1)),
	Max: gg.Pt(math.Inf(-1), math.Inf(-1)),
}

// IsEmpty reports whether r contains no points. A zero-size rectangle
// around a single point is not empty.
func IsEmpty(r gg.Rect) bool {
	return !(r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y)
}

// Union returns the smallest rectangle containing a and b, treating empty
// rectangles as absent.
func Union(a, b gg.Rect) gg.Rect {
	switch {
	case IsEmpty(a):
		return b
	case IsEmpty(b):
		return a
	}
	return a.Union(b)
}

// Intersects reports whether a and b share at least one point.
func Intersects(a, b gg.Rect) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return false
	}
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// PointRect returns the zero-size rectangle at p.
func PointRect(p gg.Point) gg.Rect {
	return gg.Rect{Min: p, Max: p}
}

// Inflate grows r by d on every side. Empty rectangles stay empty.
func Inflate(r gg.Rect, d float64) gg.Rect {
	if IsEmpty(r) {
		return r
	}
	return gg.Rect{
		Min: gg.Pt(r.Min.X-d, r.Min.Y-d),
		Max: gg.Pt(r.Max.X+d, r.Max.Y+d),
	}
}

// Translate moves r by d.
func Translate(r gg.Rect, d gg.Point) gg.Rect {
	if IsEmpty(r) {
		return r
	}
	return gg.Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Transform returns the bounding box of r after applying m.
func Transform(m gg.Matrix, r gg.Rect) gg.Rect {
	if IsEmpty(r) {
		return r
	}
	return Bounds([]gg.Point{
		m.TransformPoint(r.Min),
		m.TransformPoint(gg.Pt(r.Max.X, r.Min.Y)),
		m.TransformPoint(r.Max),
		m.TransformPoint(gg.Pt(r.Min.X, r.Max.Y)),
	})
}

// Bounds returns the bounding box of pts, or EmptyRect for no points.
func Bounds(pts []gg.Point) gg.Rect {
	r := EmptyRect
	for _, p := range pts {
		r = Union(r, PointRect(p))
	}
	return r
}

// SegmentBounds returns the bounds of the segment a-b widened by halfWidth.
func SegmentBounds(a, b gg.Point, halfWidth float64) gg.Rect {
	return Inflate(Union(PointRect(a), PointRect(b)), halfWidth)
}
