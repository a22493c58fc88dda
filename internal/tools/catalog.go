package tools

import (
	"image/color"
	"math"

	"InkBoard/internal/input"
	"InkBoard/internal/state"
)

const (
	BallPenURI     = "wdt:BallPen"
	PenURI         = "wdt:Pen"
	FountainPenURI = "wdt:FountainPen"
	BrushURI       = "wdt:Brush"
	PencilURI      = "wdt:Pencil"
	CrayonURI      = "wdt:Crayon"
	WaterBrushURI  = "wdt:WaterBrush"
	EraserURI      = "wdt:CircleEraser"
	SelectorURI    = "wdt:CircleSelector"
)

var (
	CircleBrush = state.Brush{URI: "wbr:Circle", Kind: state.Vector}

	PencilBrush = state.Brush{
		URI:        "wbr:Pencil",
		Kind:       state.Raster,
		Spacing:    0.3,
		Scattering: 0.05,
		Rotation:   state.RotateRandom,
		FillURI:    "assets/fill.png",
		ShapeURIs:  []string{"assets/shape_32x32.png"},
	}
	WaterBrush = state.Brush{
		URI:        "wbr:Water",
		Kind:       state.Raster,
		Spacing:    0.1,
		Scattering: 0.25,
		Rotation:   state.RotateRandom,
		FillURI:    "assets/fill.png",
		ShapeURIs:  []string{"assets/shape_32x32.png"},
	}
	CrayonBrush = state.Brush{
		URI:      "wbr:Crayon",
		Kind:     state.Raster,
		Spacing:  0.3,
		Rotation: state.RotateNone,
		FillURI:  "assets/fill.png",
		ShapeURIs: []string{
			"assets/crayon_0_128x128.png",
			"assets/crayon_1_64x64.png",
			"assets/crayon_2_32x32.png",
			"assets/crayon_3_16x16.png",
			"assets/crayon_4_8x8.png",
			"assets/crayon_5_4x4.png",
			"assets/crayon_6_2x2.png",
			"assets/crayon_7_1x1.png",
		},
	}
)

var (
	eraserTrail   = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x60}
	selectorTrail = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
)

// Builtin returns the built-in tools.
func Builtin() []*Tool {
	return []*Tool{
		{URI: BallPenURI, Kind: state.Vector, Brush: CircleBrush, mouse: ballPenMouse, pen: ballPenPen},
		{URI: PenURI, Kind: state.Vector, Brush: CircleBrush, mouse: ballPenMouse, pen: penPen},
		{URI: FountainPenURI, Kind: state.Vector, Brush: CircleBrush, mouse: fountainPenMouse, pen: fountainPenPen},
		{URI: BrushURI, Kind: state.Vector, Brush: CircleBrush, mouse: brushMouse, pen: brushPen},
		{URI: PencilURI, Kind: state.Raster, Brush: PencilBrush, mouse: pencilMouse, pen: pencilPen},
		{URI: CrayonURI, Kind: state.Raster, Brush: CrayonBrush, mouse: crayonMouse, pen: crayonPen},
		{URI: WaterBrushURI, Kind: state.Raster, Brush: WaterBrush, mouse: waterBrushMouse, pen: waterBrushPen},
		{URI: EraserURI, Kind: state.Vector, Brush: CircleBrush, Color: eraserTrail, mouse: eraserMouse, pen: eraserPen},
		{URI: SelectorURI, Kind: state.Vector, Brush: CircleBrush, Color: selectorTrail, mouse: selectorPoint, pen: selectorPoint},
	}
}

// DefaultRegistry returns a registry of the built-in tools.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

func at(s *input.Sample) state.PathPoint {
	return state.NewPathPoint(s.Pos.X, s.Pos.Y)
}

func ballPenMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{1, 2}, DefaultSpeeds)
	pp := at(cur)
	pp.Size = MapToFunc(valueOr(v, ok, 1.5), Range{1, 2}, Range{0.4, 1}, sigmoid62)
	return pp, true
}

func ballPenPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	pp := at(cur)
	pp.Size = 1 + 1.5*force(cur, 0.8)
	return pp, true
}

// penPen needs force and tilt; samples without them are dropped.
func penPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	if !cur.HasForce || !cur.HasAltitude {
		return state.PathPoint{}, false
	}
	tilt := 0.5 + math.Cos(cur.Altitude)
	pp := at(cur)
	pp.Size = 0.4 + cur.Force
	pp.Rotation, _ = NearestAzimuth(prev, cur)
	pp.ScaleX = tilt
	return pp, true
}

func fountainPenMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{0.8, 2}, DefaultSpeeds)
	pp := at(cur)
	pp.Size = valueOr(v, ok, 1.6)
	return pp, true
}

func fountainPenPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{1, 2}, Range{100, 4000})
	speed := valueOr(v, ok, 1.2)
	az, _ := NearestAzimuth(prev, cur)
	pp := at(cur)
	pp.Size = 1/(1.2*speed)*(6*force(cur, 0.8)) + 0.5
	pp.Rotation = az + math.Pi/2
	return pp, true
}

func brushMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{0.8, 2}, DefaultSpeeds)
	pp := at(cur)
	pp.Size = 20 * valueOr(v, ok, 1.5)
	return pp, true
}

func brushPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	tilt := 2 * math.Cos(altitude(cur, math.Pi/2))
	pp := at(cur)
	pp.Size = 1 + 20*force(cur, 0.8)
	pp.Rotation, _ = NearestAzimuth(prev, cur)
	pp.ScaleX = 1 + tilt
	return pp, true
}

func pencilMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{0, 1}, DefaultSpeeds)
	v = valueOr(v, ok, 0.5)
	pp := at(cur)
	pp.Size = MapTo(v, Range{0, 1}, Range{4, 5})
	pp.Alpha = MapTo(v, Range{0, 1}, Range{0.05, 1})
	return pp, true
}

func pencilPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	p := force(cur, 0.8)
	tilt := 0.5 + math.Cos(altitude(cur, math.Pi/2))
	pp := at(cur)
	pp.Size = MapTo(p, Range{0, 1}, Range{1, 5})
	pp.Alpha = min(1, 0.14+20*math.Exp(5*p-7.6))
	pp.ScaleY = tilt
	pp.OffsetY = 0.5 * pp.Size * tilt
	return pp, true
}

func crayonMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	pp := at(cur)
	pp.Size = 20
	return pp, true
}

func crayonPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	p := force(cur, 1)
	pp := at(cur)
	pp.Rotation, _ = NearestAzimuth(prev, cur)
	pp.Size = 9 + 2.4*p
	pp.Alpha = 0.1 + 0.9*p
	pp.ScaleY = 1 + 1.2*p
	return pp, true
}

func waterBrushMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{1, 2}, DefaultSpeeds)
	pp := at(cur)
	pp.Size = MapTo(valueOr(v, ok, 1.5), Range{1, 2}, Range{20, 55})
	return pp, true
}

func waterBrushPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{0.5, 0.8}, DefaultSpeeds)
	tilt := 0.5 + math.Cos(altitude(cur, 0.35*math.Pi))
	pp := at(cur)
	pp.Size = MapToFunc(force(cur, 0.8), Range{0, 1}, Range{2, 40}, sigmoid62)
	pp.Rotation, _ = NearestAzimuth(prev, cur)
	pp.ScaleX = tilt
	pp.OffsetX = 0.5 * pp.Size * tilt
	pp.Alpha = 1 - valueOr(v, ok, 0.7)
	return pp, true
}

const (
	eraserMinSize    = 9
	eraserMultiplier = 30
)

func eraserMouse(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	v, ok := ValueBySpeed(prev, cur, next, Range{0, 1}, DefaultSpeeds)
	pp := at(cur)
	pp.Size = eraserMinSize + eraserMultiplier*valueOr(v, ok, 0)
	return pp, true
}

func eraserPen(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	pp := at(cur)
	pp.Size = eraserMinSize + eraserMultiplier*force(cur, 0)
	return pp, true
}

// selectorPoint traces the lasso with a constant thin line.
func selectorPoint(prev, cur, next *input.Sample) (state.PathPoint, bool) {
	pp := at(cur)
	pp.Size = 2
	return pp, true
}
