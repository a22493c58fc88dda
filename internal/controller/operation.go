package controller

import (
	"fmt"
)

// OperationMode is the user-selected behaviour of a plain primary press.
type OperationMode uint8

const (
	VectorDrawing OperationMode = iota
	RasterDrawing
	EraseStrokePart
	EraseWholeStroke
	SelectStrokePart
	SelectWholeStroke
)

var modeNames = [...]string{
	VectorDrawing:     "vector",
	RasterDrawing:     "raster",
	EraseStrokePart:   "erase-part",
	EraseWholeStroke:  "erase-whole",
	SelectStrokePart:  "select-part",
	SelectWholeStroke: "select-whole",
}

func (m OperationMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// ParseMode returns the mode with the given name.
func ParseMode(name string) (OperationMode, bool) {
	for m, n := range modeNames {
		if n == name {
			return OperationMode(m), true
		}
	}
	return 0, false
}

// ModeNames returns the mode names in declaration order.
func ModeNames() []string {
	return modeNames[:]
}

// Operation is the behaviour driving the current gesture.
type Operation uint8

const (
	Idle Operation = iota
	DrawVector
	DrawRaster
	EraseWhole
	ErasePart
	SelectWhole
	SelectPart
	MoveSelection

	numOperations
)

var opNames = [...]string{
	Idle:          "idle",
	DrawVector:    "draw-vector",
	DrawRaster:    "draw-raster",
	EraseWhole:    "erase-whole",
	ErasePart:     "erase-part",
	SelectWhole:   "select-whole",
	SelectPart:    "select-part",
	MoveSelection: "move-selection",
}

func (o Operation) String() string {
	if o < numOperations {
		return opNames[o]
	}
	return fmt.Sprintf("operation(%d)", o)
}

func (m OperationMode) operation() Operation {
	switch m {
	case RasterDrawing:
		return DrawRaster
	case EraseStrokePart:
		return ErasePart
	case EraseWholeStroke:
		return EraseWhole
	case SelectStrokePart:
		return SelectPart
	case SelectWholeStroke:
		return SelectWhole
	}
	return DrawVector
}
