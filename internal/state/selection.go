package state

import (
	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"InkBoard/internal/geom"
)

// Selection is the set of selected stroke ids together with their measured
// model-space bounds.
type Selection struct {
	ids    map[uuid.UUID]struct{}
	bounds gg.Rect
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[uuid.UUID]struct{}), bounds: geom.EmptyRect}
}

func (s *Selection) Add(id uuid.UUID)    { s.ids[id] = struct{}{} }
func (s *Selection) Remove(id uuid.UUID) { delete(s.ids, id) }

// Contains reports whether id is selected.
func (s *Selection) Contains(id uuid.UUID) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

// Clear empties the selection and its bounds.
func (s *Selection) Clear() {
	clear(s.ids)
	s.bounds = geom.EmptyRect
}

// IDs returns the selected ids in no particular order.
func (s *Selection) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// Bounds returns the bounds measured by the last call to Measure.
func (s *Selection) Bounds() gg.Rect {
	return s.bounds
}

// HitTest reports whether p falls inside the selection bounds.
func (s *Selection) HitTest(p gg.Point) bool {
	return s.Len() > 0 && !geom.IsEmpty(s.bounds) && s.bounds.Contains(p)
}

// NotSelected returns a filter that passes strokes outside the selection.
func (s *Selection) NotSelected() func(*Stroke) bool {
	return func(st *Stroke) bool { return !s.Contains(st.ID) }
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	c := &Selection{ids: make(map[uuid.UUID]struct{}, len(s.ids)), bounds: s.bounds}
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}

func (s *Selection) measure(strokes []*Stroke) {
	s.bounds = geom.EmptyRect
	for _, st := range strokes {
		if s.Contains(st.ID) {
			s.bounds = geom.Union(s.bounds, st.Bounds())
		}
	}
}
