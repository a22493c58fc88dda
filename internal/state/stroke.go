package state

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"InkBoard/internal/geom"
)

var (
	ErrInvalidStroke   = errors.New("invalid stroke")
	ErrIndexOutOfRange = errors.New("stroke index out of range")
	ErrDuplicateStroke = errors.New("duplicate stroke id")
)

// Validate checks that s can be committed.
func (s *Stroke) Validate() error {
	switch {
	case s.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidStroke)
	case len(s.Spline.Points) == 0:
		return fmt.Errorf("%w: %s has no points", ErrInvalidStroke, s.ID)
	case s.Spline.Ts < 0 || s.Spline.Tf > 1:
		return fmt.Errorf("%w: %s trim [%g, %g] outside [0, 1]", ErrInvalidStroke, s.ID, s.Spline.Ts, s.Spline.Tf)
	case len(s.Spline.Points) == 2 && s.Spline.Ts > s.Spline.Tf:
		return fmt.Errorf("%w: %s trim start after end", ErrInvalidStroke, s.ID)
	}
	return nil
}

// Selectable reports whether the stroke can take part in selection, moving
// and splitting. Raster strokes are particle-expanded and cannot.
func (s *Stroke) Selectable() bool {
	return s.Kind == Vector
}

// PointWidth returns the painted width of p under the stroke transform.
func (s *Stroke) PointWidth(p PathPoint) float64 {
	return p.Size * max(p.ScaleX, p.ScaleY, 1e-9) * s.Transform.sizeScale()
}

// Width returns the widest painted width along the stroke.
func (s *Stroke) Width() float64 {
	w := 0.0
	for _, p := range s.Spline.Points {
		w = max(w, s.PointWidth(p))
	}
	return w
}

// RebuildCache recomputes the model-space samples, bounds and, for raster
// strokes, the particles. It must run before the stroke is rendered or
// hit-tested.
func (s *Stroke) RebuildCache() {
	c := &Cache{Bounds: geom.EmptyRect}
	off := s.Transform.Offset()
	for _, p := range s.Spline.Sample() {
		p.X += off.X
		p.Y += off.Y
		c.Samples = append(c.Samples, p)
	}
	for i, p := range c.Samples {
		half := s.PointWidth(p) / 2
		if i == 0 {
			c.Bounds = geom.Inflate(geom.PointRect(p.Pos()), half)
			continue
		}
		q := c.Samples[i-1]
		c.Bounds = geom.Union(c.Bounds, geom.SegmentBounds(q.Pos(), p.Pos(), max(half, s.PointWidth(q)/2)))
	}
	if s.Kind == Raster {
		c.Particles = s.expand(c.Samples)
		for _, pt := range c.Particles {
			c.Bounds = geom.Union(c.Bounds, geom.Inflate(geom.PointRect(pt.Pos), pt.Size/2))
		}
	}
	s.cache = c
}

// expand places brush particles along the samples every Spacing*size
// units, jittered by Scattering*size. Placement depends only on the
// samples and RandomSeed.
func (s *Stroke) expand(samples []PathPoint) []Particle {
	if len(samples) == 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(s.RandomSeed, s.RandomSeed^0x9e3779b97f4a7c15))
	var out []Particle
	emit := func(p PathPoint, heading float64) {
		size := s.PointWidth(p)
		jitter := s.Brush.Scattering * size
		pos := p.Pos()
		if p.OffsetX != 0 || p.OffsetY != 0 {
			sin, cos := math.Sincos(p.Rotation)
			scale := s.Transform.sizeScale()
			pos = pos.Add(gg.Pt(p.OffsetX*cos-p.OffsetY*sin, p.OffsetX*sin+p.OffsetY*cos).Mul(scale))
		}
		if jitter > 0 {
			pos = pos.Add(gg.Pt((rng.Float64()*2-1)*jitter, (rng.Float64()*2-1)*jitter))
		}
		rot := p.Rotation
		switch s.Brush.Rotation {
		case RotateRandom:
			rot = rng.Float64() * 2 * math.Pi
		case RotateTrajectory:
			rot = heading
		}
		d := p.Size * s.Transform.sizeScale()
		out = append(out, Particle{
			Pos:      pos,
			Size:     size,
			Width:    d * max(p.ScaleX, 1e-9),
			Height:   d * max(p.ScaleY, 1e-9),
			Alpha:    p.Alpha,
			Rotation: rot + s.Transform.Rotation,
		})
	}

	emit(samples[0], 0)
	since := 0.0
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		d := a.Pos().Distance(b.Pos())
		if d == 0 {
			continue
		}
		heading := math.Atan2(b.Y-a.Y, b.X-a.X)
		pos := 0.0
		for {
			step := max(s.Brush.Spacing*s.PointWidth(a.Lerp(b, pos/d)), 0.5)
			need := max(step-since, 0)
			if pos+need > d {
				since += d - pos
				break
			}
			pos += need
			since = 0
			emit(a.Lerp(b, pos/d), heading)
		}
	}
	return out
}

// Cached returns the derived geometry, rebuilding it if needed.
func (s *Stroke) Cached() *Cache {
	if s.cache == nil {
		s.RebuildCache()
	}
	return s.cache
}

// Bounds returns the model-space bounds of the painted stroke.
func (s *Stroke) Bounds() gg.Rect {
	return s.Cached().Bounds
}

// ModelPoints returns the model-space positions of the trimmed path.
func (s *Stroke) ModelPoints() []gg.Point {
	samples := s.Cached().Samples
	pts := make([]gg.Point, len(samples))
	for i, p := range samples {
		pts[i] = p.Pos()
	}
	return pts
}

// Clone returns a deep copy of s without its cache.
func (s *Stroke) Clone() *Stroke {
	c := *s
	c.Spline.Points = append([]PathPoint(nil), s.Spline.Points...)
	c.Brush.ShapeURIs = append([]string(nil), s.Brush.ShapeURIs...)
	c.cache = nil
	return &c
}

// Fragment returns a new stroke made from count points of s starting at
// begin, trimmed to [ts, tf]. It inherits the paint, transform and blend
// mode of s, gets a new id and a zero random seed.
func (s *Stroke) Fragment(begin, count int, ts, tf float64) *Stroke {
	f := &Stroke{
		ID:        NewStrokeID(),
		Kind:      s.Kind,
		Spline:    s.Spline.Part(begin, count, ts, tf),
		Brush:     s.Brush,
		Color:     s.Color,
		Transform: s.Transform,
		Blend:     s.Blend,
	}
	f.Brush.ShapeURIs = append([]string(nil), s.Brush.ShapeURIs...)
	return f
}
