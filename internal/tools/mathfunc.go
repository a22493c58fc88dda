package tools

import (
	"math"

	"InkBoard/internal/input"
)

// Range is a closed interval of values.
type Range struct {
	Min, Max float64
}

// Clamp limits v to r.
func (r Range) Clamp(v float64) float64 {
	return min(max(v, r.Min), r.Max)
}

// MapTo clamps v to src and maps it linearly onto dst.
func MapTo(v float64, src, dst Range) float64 {
	return dst.Min + (src.Clamp(v)-src.Min)/(src.Max-src.Min)*(dst.Max-dst.Min)
}

// MapToFunc is MapTo with f applied to the clamped value and to the bounds
// of src before mapping.
func MapToFunc(v float64, src, dst Range, f func(float64) float64) float64 {
	v = f(src.Clamp(v))
	return MapTo(v, Range{f(src.Min), f(src.Max)}, dst)
}

// Sigmoid is a rational sigmoid through (0, 0) and (1, 1); k sets the
// steepness.
func Sigmoid(t, k float64) float64 {
	return (1 + k) * t / (math.Abs(t) + k)
}

// Sigmoid1 applies Sigmoid around the middle of [0, 1].
func Sigmoid1(v, k float64) float64 {
	return SigmoidIn(v, k, 0, 1)
}

// SigmoidIn applies Sigmoid around the middle of [lo, hi].
func SigmoidIn(v, k, lo, hi float64) float64 {
	mid := (hi + lo) / 2
	half := (hi - lo) / 2
	return mid + Sigmoid((v-mid)/half, k)*half
}

func sigmoid62(v float64) float64 {
	return Sigmoid1(v, 0.62)
}

// DefaultSpeeds is the pointer speed range, in view units per second,
// mapped onto a tool's value range.
var DefaultSpeeds = Range{Min: 80, Max: 1400}

// ValueBySpeed maps the pointer speed around cur onto out. The speed is
// measured from prev to next, or to cur when next is missing. It reports
// false when no speed can be measured.
func ValueBySpeed(prev, cur, next *input.Sample, out, speeds Range) (float64, bool) {
	if prev == nil || cur == nil {
		return 0, false
	}
	end := cur
	if next != nil {
		end = next
	}
	dt := (end.Time - prev.Time).Seconds()
	if dt <= 0 {
		return 0, false
	}
	speed := prev.Pos.Distance(end.Pos) / dt
	return MapTo(speed, speeds, out), true
}

func valueOr(v float64, ok bool, def float64) float64 {
	if !ok {
		return def
	}
	return v
}

// NearestAzimuth returns the azimuth of cur shifted by whole turns to lie
// closest to the azimuth of prev, so the rotation channel does not jump
// when the angle wraps.
func NearestAzimuth(prev, cur *input.Sample) (float64, bool) {
	if cur == nil || !cur.HasAzimuth {
		return 0, false
	}
	a := cur.Azimuth
	if prev != nil && prev.HasAzimuth {
		turns := math.Round((prev.Azimuth - a) / (2 * math.Pi))
		a += turns * 2 * math.Pi
	}
	return a, true
}

func force(s *input.Sample, def float64) float64 {
	if s.HasForce {
		return s.Force
	}
	return def
}

func altitude(s *input.Sample, def float64) float64 {
	if s.HasAltitude {
		return s.Altitude
	}
	return def
}
