// Package input defines the pointer events delivered by the platform layer
// and the arbitration of which pointer owns the current gesture.
package input

import (
	"time"

	"github.com/gogpu/gg"
)

// DeviceType is the kind of device that produced a pointer event.
type DeviceType uint8

const (
	DeviceUnknown DeviceType = iota
	DeviceMouse
	DeviceTouch
	DevicePen
)

func (d DeviceType) String() string {
	switch d {
	case DeviceMouse:
		return "mouse"
	case DeviceTouch:
		return "touch"
	case DevicePen:
		return "pen"
	}
	return "unknown"
}

// Phase is the position of an event within a gesture.
type Phase uint8

const (
	Press Phase = iota
	Move
	Release
)

func (p Phase) String() string {
	switch p {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	}
	return "phase?"
}

// Modifiers is a set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether every modifier in m is held.
func (mods Modifiers) Has(m Modifiers) bool {
	return mods&m == m
}

// PointerID identifies a pointer source. The mouse is usually 0; each touch
// point and pen gets its own id.
type PointerID uint32

// Sample is one reported pointer position with its optional sensor data.
type Sample struct {
	Pos  gg.Point
	Time time.Duration

	Force       float64
	HasForce    bool
	Altitude    float64
	HasAltitude bool
	Azimuth     float64
	HasAzimuth  bool
}

// Event is a pointer event in view coordinates.
type Event struct {
	Phase     Phase
	Pointer   PointerID
	Device    DeviceType
	Primary   bool // primary button (or contact) is down
	Modifiers Modifiers
	Sample

	// Predicted holds platform-predicted future samples, if any.
	Predicted []Sample
}
