package geom

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) []gg.Point {
	return []gg.Point{gg.Pt(x0, y0), gg.Pt(x1, y0), gg.Pt(x1, y1), gg.Pt(x0, y1)}
}

func TestUnionTreatsEmptyAsIdentity(t *testing.T) {
	a := gg.NewRect(gg.Pt(1, 2), gg.Pt(3, 4))
	assert.Equal(t, a, Union(EmptyRect, a))
	assert.Equal(t, a, Union(a, EmptyRect))
	assert.True(t, IsEmpty(Union(EmptyRect, EmptyRect)))

	b := gg.NewRect(gg.Pt(5, -1), gg.Pt(6, 0))
	assert.Equal(t, gg.NewRect(gg.Pt(1, -1), gg.Pt(6, 4)), Union(a, b))
}

func TestPointRectIsNotEmpty(t *testing.T) {
	r := PointRect(gg.Pt(3, 3))
	assert.False(t, IsEmpty(r))
	assert.True(t, Intersects(r, gg.NewRect(gg.Pt(0, 0), gg.Pt(3, 3))))
	assert.False(t, Intersects(r, EmptyRect))
}

func TestTransformRect(t *testing.T) {
	r := gg.NewRect(gg.Pt(0, 0), gg.Pt(10, 5))
	got := Transform(gg.Translate(2, 3).Multiply(gg.Scale(2, 2)), r)
	assert.Equal(t, gg.NewRect(gg.Pt(2, 3), gg.Pt(22, 13)), got)
	assert.True(t, IsEmpty(Transform(gg.Scale(2, 2), EmptyRect)))
}

func TestContourContains(t *testing.T) {
	c := NewContour(square(0, 0, 10, 10))
	require.False(t, c.IsEmpty())
	assert.True(t, c.Contains(gg.Pt(5, 5)))
	assert.False(t, c.Contains(gg.Pt(15, 5)))
	assert.False(t, c.Contains(gg.Pt(-1, -1)))
}

func TestDegenerateContoursAreEmpty(t *testing.T) {
	tests := []struct {
		name string
		path []gg.Point
	}{
		{"no points", nil},
		{"two points", []gg.Point{gg.Pt(0, 0), gg.Pt(10, 0)}},
		{"collinear", []gg.Point{gg.Pt(0, 0), gg.Pt(5, 0), gg.Pt(10, 0)}},
		{"repeated point", []gg.Point{gg.Pt(1, 1), gg.Pt(1, 1), gg.Pt(1, 1), gg.Pt(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Lasso(tt.path)
			assert.True(t, c.IsEmpty())
			assert.False(t, c.Contains(gg.Pt(1, 0)))
			assert.True(t, IsEmpty(c.Bounds()))
		})
	}
}

func TestLassoResolvesSelfIntersection(t *testing.T) {
	// A figure eight: two triangles meeting at (5, 5).
	c := Lasso([]gg.Point{gg.Pt(0, 0), gg.Pt(10, 10), gg.Pt(10, 0), gg.Pt(0, 10)})
	require.Len(t, c.Polygons(), 2)
	assert.True(t, c.Contains(gg.Pt(8, 5)), "right lobe")
	assert.True(t, c.Contains(gg.Pt(2, 5)), "left lobe")
	assert.False(t, c.Contains(gg.Pt(5, 1)))
	assert.False(t, c.Contains(gg.Pt(5, 9)))
}

func TestLassoSimplePathKeepsOnePolygon(t *testing.T) {
	c := Lasso(square(0, 0, 10, 10))
	assert.Len(t, c.Polygons(), 1)
	assert.Equal(t, gg.NewRect(gg.Pt(0, 0), gg.Pt(10, 10)), c.Bounds())
}

func TestCrossings(t *testing.T) {
	c := NewContour(square(0, 0, 10, 10))

	ts := c.Crossings(gg.Pt(-10, 5), gg.Pt(20, 5))
	require.Len(t, ts, 2)
	assert.InDelta(t, 1.0/3, ts[0], 1e-9)
	assert.InDelta(t, 2.0/3, ts[1], 1e-9)

	assert.Empty(t, c.Crossings(gg.Pt(2, 2), gg.Pt(8, 8)), "fully inside")
	assert.Empty(t, c.Crossings(gg.Pt(20, 0), gg.Pt(20, 10)), "fully outside")
}

func TestCrossingsIgnoreSharedEdges(t *testing.T) {
	// Two squares sharing the edge x=10 behave as one region.
	c := NewContour(square(0, 0, 10, 10), square(10, 0, 20, 10))
	ts := c.Crossings(gg.Pt(-5, 5), gg.Pt(25, 5))
	require.Len(t, ts, 2)
	assert.InDelta(t, 5.0/30, ts[0], 1e-9)
	assert.InDelta(t, 25.0/30, ts[1], 1e-9)
}

func TestSwath(t *testing.T) {
	c := Swath([]gg.Point{gg.Pt(0, 0), gg.Pt(100, 0)}, 5)
	assert.True(t, c.Contains(gg.Pt(50, 4)))
	assert.True(t, c.Contains(gg.Pt(-4, 0)))
	assert.False(t, c.Contains(gg.Pt(50, 6)))

	assert.True(t, Swath([]gg.Point{gg.Pt(0, 0)}, 0).IsEmpty())
	assert.True(t, Swath([]gg.Point{gg.Pt(0, 0)}, 3).Contains(gg.Pt(1, 1)))
}
