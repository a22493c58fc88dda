package state

import (
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
)

// Kind tells vector strokes (path data only) from raster strokes (path data
// expanded into brush particles).
type Kind uint8

const (
	Vector Kind = iota
	Raster
)

func (k Kind) String() string {
	if k == Raster {
		return "raster"
	}
	return "vector"
}

// BlendMode is how a stroke is composited over the strokes below it.
type BlendMode uint8

const (
	BlendSourceOver BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendCopy
)

// RotationMode controls particle rotation for raster brushes.
type RotationMode uint8

const (
	RotateNone RotationMode = iota
	RotateRandom
	RotateTrajectory
)

// Brush describes the shape used to paint a stroke. Texture assets are
// referenced by URI and loaded by the renderer.
type Brush struct {
	URI        string       `json:"uri"`
	Kind       Kind         `json:"kind"`
	Spacing    float64      `json:"spacing,omitempty"`
	Scattering float64      `json:"scattering,omitempty"`
	Rotation   RotationMode `json:"rotation,omitempty"`
	FillURI    string       `json:"fill,omitempty"`
	// ShapeURIs are the shape texture mip levels, largest first.
	ShapeURIs []string `json:"shapes,omitempty"`
}

// Transform holds the per-stroke constants applied on top of the path
// points. Offset translates the path in model space; scale multiplies the
// brush size.
type Transform struct {
	ScaleX  float64 `json:"sx"`
	ScaleY  float64 `json:"sy"`
	OffsetX float64 `json:"ox"`
	OffsetY float64 `json:"oy"`
	// Rotation turns every particle of a raster stroke, in radians.
	Rotation float64 `json:"rot"`
}

// IdentityTransform leaves paths and sizes untouched.
var IdentityTransform = Transform{ScaleX: 1, ScaleY: 1}

// Offset returns the translation part.
func (t Transform) Offset() gg.Point {
	return gg.Pt(t.OffsetX, t.OffsetY)
}

func (t Transform) sizeScale() float64 {
	s := max(t.ScaleX, t.ScaleY)
	if s <= 0 {
		return 1
	}
	return s
}

// PathPoint is one interpolated point of a stroke with its per-point
// channels. OffsetX and OffsetY shift raster particles off the path in the
// frame turned by Rotation; vector strokes ignore them.
type PathPoint struct {
	X, Y     float64
	Size     float64
	Alpha    float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
	OffsetX  float64
	OffsetY  float64
}

// NewPathPoint returns an opaque, unit-size, unscaled point at (x, y).
func NewPathPoint(x, y float64) PathPoint {
	return PathPoint{X: x, Y: y, Size: 1, Alpha: 1, ScaleX: 1, ScaleY: 1}
}

// Pos returns the point position.
func (p PathPoint) Pos() gg.Point {
	return gg.Pt(p.X, p.Y)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Lerp interpolates every channel between p and q.
func (p PathPoint) Lerp(q PathPoint, t float64) PathPoint {
	return PathPoint{
		X:        lerp(p.X, q.X, t),
		Y:        lerp(p.Y, q.Y, t),
		Size:     lerp(p.Size, q.Size, t),
		Alpha:    lerp(p.Alpha, q.Alpha, t),
		Rotation: lerp(p.Rotation, q.Rotation, t),
		ScaleX:   lerp(p.ScaleX, q.ScaleX, t),
		ScaleY:   lerp(p.ScaleY, q.ScaleY, t),
		OffsetX:  lerp(p.OffsetX, q.OffsetX, t),
		OffsetY:  lerp(p.OffsetY, q.OffsetY, t),
	}
}

// Spline is an ordered run of path points. The rendered path starts at
// parameter Ts of the first segment and ends at parameter Tf of the last
// one, so a fragment can begin and end part-way along a segment.
type Spline struct {
	Points []PathPoint `json:"points"`
	Ts     float64     `json:"ts"`
	Tf     float64     `json:"tf"`
}

// NewSpline returns a spline covering all of pts.
func NewSpline(pts []PathPoint) Spline {
	return Spline{Points: pts, Ts: 0, Tf: 1}
}

// Len returns the number of points.
func (s Spline) Len() int {
	return len(s.Points)
}

// Segments returns the number of segments between points.
func (s Spline) Segments() int {
	return max(len(s.Points)-1, 0)
}

// Part returns the spline made of count points starting at begin,
// trimmed to [ts, tf].
func (s Spline) Part(begin, count int, ts, tf float64) Spline {
	pts := make([]PathPoint, count)
	copy(pts, s.Points[begin:begin+count])
	return Spline{Points: pts, Ts: ts, Tf: tf}
}

// At returns the point at global parameter u, where u = i + t lies on
// segment i at local parameter t.
func (s Spline) At(u float64) PathPoint {
	n := s.Segments()
	if n == 0 {
		return s.Points[0]
	}
	i := min(max(int(math.Floor(u)), 0), n-1)
	return s.Points[i].Lerp(s.Points[i+1], u-float64(i))
}

// Range returns the global parameters where the trimmed spline starts and ends.
func (s Spline) Range() (u0, u1 float64) {
	n := s.Segments()
	if n == 0 {
		return 0, 0
	}
	return s.Ts, float64(n-1) + s.Tf
}

// Sample returns the trimmed path: the interpolated start point, the
// interior points and the interpolated end point.
func (s Spline) Sample() []PathPoint {
	switch len(s.Points) {
	case 0:
		return nil
	case 1:
		return []PathPoint{s.Points[0]}
	}
	u0, u1 := s.Range()
	out := make([]PathPoint, 0, len(s.Points))
	out = append(out, s.At(u0))
	for i := 1; i < len(s.Points)-1; i++ {
		out = append(out, s.Points[i])
	}
	return append(out, s.At(u1))
}

// Particle is one brush stamp of an expanded raster stroke. Width and
// Height are its diameters along its own axes before Rotation; Size is the
// larger of the two.
type Particle struct {
	Pos           gg.Point
	Size          float64
	Width, Height float64
	Alpha         float64
	Rotation      float64
}

// Cache is the derived geometry of a stroke in model space.
type Cache struct {
	Samples   []PathPoint
	Bounds    gg.Rect
	Particles []Particle
}

// Stroke is a committed piece of ink.
type Stroke struct {
	ID        uuid.UUID   `json:"id"`
	Kind      Kind        `json:"kind"`
	Spline    Spline      `json:"spline"`
	Brush     Brush       `json:"brush"`
	Color     color.NRGBA `json:"color"`
	Transform Transform   `json:"transform"`
	Blend     BlendMode   `json:"blend"`
	// RandomSeed reproduces the particle placement of raster strokes.
	RandomSeed uint64 `json:"seed,omitempty"`

	cache *Cache
}

// NewStrokeID returns a fresh stroke id.
func NewStrokeID() uuid.UUID {
	return uuid.New()
}
