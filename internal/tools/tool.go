// Package tools holds the drawing tools: the brush each one paints with and
// the per-device calculators turning pointer samples into path points.
package tools

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"InkBoard/internal/input"
	"InkBoard/internal/state"
)

var (
	ErrUnknownDevice   = errors.New("unknown input device type")
	ErrNoTextureLevels = errors.New("brush has no shape texture levels")
	ErrUnknownTool     = errors.New("unknown tool")
)

// UnknownDeviceError is returned when a tool has no calculator for the
// device that started a gesture.
type UnknownDeviceError struct {
	Tool   string
	Device input.DeviceType
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("tool %s: no calculator for %s device", e.Tool, e.Device)
}

func (e *UnknownDeviceError) Unwrap() error { return ErrUnknownDevice }

// BrushError reports an unusable brush.
type BrushError struct {
	Brush string
	Err   error
}

func (e *BrushError) Error() string {
	return fmt.Sprintf("brush %s: %v", e.Brush, e.Err)
}

func (e *BrushError) Unwrap() error { return e.Err }

// ValidateBrush checks that a raster brush has at least one shape texture.
func ValidateBrush(b state.Brush) error {
	if b.Kind == state.Raster && len(b.ShapeURIs) == 0 {
		return &BrushError{Brush: b.URI, Err: ErrNoTextureLevels}
	}
	return nil
}

// Calculator turns the current sample, with its neighbours when known,
// into a path point. It reports false when the sample yields no point.
// Calculators are pure.
type Calculator func(prev, cur, next *input.Sample) (state.PathPoint, bool)

// Tool is a drawing, erasing or selecting tool.
type Tool struct {
	URI   string
	Kind  state.Kind
	Brush state.Brush
	Blend state.BlendMode
	// Color paints the trail of helper tools. Ink colour is chosen by the
	// user, so drawing tools leave it zero.
	Color color.NRGBA

	mouse Calculator // mouse and touch
	pen   Calculator
}

// Calculator returns the calculator for device d.
func (t *Tool) Calculator(d input.DeviceType) (Calculator, error) {
	var c Calculator
	switch d {
	case input.DeviceMouse, input.DeviceTouch:
		c = t.mouse
	case input.DevicePen:
		c = t.pen
	}
	if c == nil {
		return nil, &UnknownDeviceError{Tool: t.URI, Device: d}
	}
	return c, nil
}

// Registry is the set of tools available to the controller, keyed by URI.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry validates every tool brush and returns the registry.
func NewRegistry(ts ...*Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(ts))}
	for _, t := range ts {
		if err := ValidateBrush(t.Brush); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.URI, err)
		}
		r.tools[t.URI] = t
	}
	return r, nil
}

// Lookup returns the tool with the given URI.
func (r *Registry) Lookup(uri string) (*Tool, error) {
	t, ok := r.tools[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, uri)
	}
	return t, nil
}

// URIs returns the registered tool URIs of the given kind, sorted.
func (r *Registry) URIs(kind state.Kind) []string {
	var out []string
	for uri, t := range r.tools {
		if t.Kind == kind && uri != EraserURI && uri != SelectorURI {
			out = append(out, uri)
		}
	}
	slices.Sort(out)
	return out
}
