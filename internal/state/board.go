package state

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"InkBoard/internal/logging"
)

// Board is the stroke collection in paint order plus the current selection.
// Strokes are stored by id; order holds the ids from bottom to top.
type Board struct {
	mu        sync.RWMutex
	strokes   map[uuid.UUID]*Stroke
	order     []uuid.UUID
	selection *Selection
	clock     *Clock

	// OnLocalOp is called after every local mutation, outside the lock.
	OnLocalOp func(Op)
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		strokes:   make(map[uuid.UUID]*Stroke),
		selection: NewSelection(),
		clock:     NewClock(),
	}
}

// Clock returns the board's op clock.
func (b *Board) Clock() *Clock {
	return b.clock
}

func (b *Board) emit(op Op) {
	b.clock.Stamp(&op)
	if b.OnLocalOp != nil {
		b.OnLocalOp(op)
	}
}

// Strokes returns the strokes in paint order. The slice is a snapshot; the
// strokes themselves are never mutated after they are stored.
func (b *Board) Strokes() []*Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot()
}

func (b *Board) snapshot() []*Stroke {
	out := make([]*Stroke, len(b.order))
	for i, id := range b.order {
		out[i] = b.strokes[id]
	}
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Stroke returns the stroke with the given id.
func (b *Board) Stroke(id uuid.UUID) (*Stroke, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.strokes[id]
	return s, ok
}

// StoreStroke validates s, rebuilds its cache and inserts it at index at.
// An index of -1 appends.
func (b *Board) StoreStroke(s *Stroke, at int) error {
	b.mu.Lock()
	at, err := b.insert(s, at)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	logging.Logger().Debug("stroke stored", "id", s.ID, "kind", s.Kind, "index", at)
	b.emit(Op{Type: OpInsert, Stroke: s.Clone(), Index: at})
	return nil
}

func (b *Board) insert(s *Stroke, at int) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if _, dup := b.strokes[s.ID]; dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateStroke, s.ID)
	}
	if at == -1 {
		at = len(b.order)
	}
	if at < 0 || at > len(b.order) {
		return 0, fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, at, len(b.order))
	}
	s.RebuildCache()
	b.strokes[s.ID] = s
	b.order = slices.Insert(b.order, at, s.ID)
	return at, nil
}

// RemoveStroke removes the stroke at index and drops it from the selection.
func (b *Board) RemoveStroke(index int) (*Stroke, error) {
	b.mu.Lock()
	s, err := b.remove(index)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	b.emit(Op{Type: OpRemove, Target: s.ID, Index: index})
	return s, nil
}

func (b *Board) remove(index int) (*Stroke, error) {
	if index < 0 || index >= len(b.order) {
		return nil, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, index, len(b.order))
	}
	id := b.order[index]
	s := b.strokes[id]
	b.order = slices.Delete(b.order, index, index+1)
	delete(b.strokes, id)
	if b.selection.Contains(id) {
		b.selection.Remove(id)
		b.selection.measure(b.snapshot())
	}
	return s, nil
}

// FindStrokeIndex returns the paint-order index of id, or -1.
func (b *Board) FindStrokeIndex(id uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Index(b.order, id)
}

// Select adds id to the selection. Unknown ids are ignored.
func (b *Board) Select(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.strokes[id]; ok {
		b.selection.Add(id)
	}
}

// ClearSelection empties the selection.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Clear()
}

// Selection returns a copy of the current selection.
func (b *Board) Selection() *Selection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection.Clone()
}

// MeasureSelection recomputes the selection bounds and returns them.
func (b *Board) MeasureSelection() gg.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.measure(b.snapshot())
	return b.selection.Bounds()
}

// MoveSelected translates every selected stroke by delta. Moved strokes are
// replaced by translated copies.
func (b *Board) MoveSelected(delta gg.Point) {
	b.mu.Lock()
	ids := b.move(b.selection.IDs(), delta)
	b.mu.Unlock()
	if len(ids) == 0 {
		return
	}
	logging.Logger().Debug("selection moved", "strokes", len(ids), "dx", delta.X, "dy", delta.Y)
	b.emit(Op{Type: OpMove, IDs: ids, Delta: delta})
}

func (b *Board) move(ids []uuid.UUID, delta gg.Point) []uuid.UUID {
	if delta == (gg.Point{}) {
		return nil
	}
	var moved []uuid.UUID
	for _, id := range ids {
		s, ok := b.strokes[id]
		if !ok {
			continue
		}
		c := s.Clone()
		c.Transform.OffsetX += delta.X
		c.Transform.OffsetY += delta.Y
		c.RebuildCache()
		b.strokes[id] = c
		moved = append(moved, id)
	}
	b.selection.measure(b.snapshot())
	return moved
}

// Clear removes every stroke.
func (b *Board) Clear() {
	b.mu.Lock()
	b.clear()
	b.mu.Unlock()
	b.emit(Op{Type: OpClear})
}

func (b *Board) clear() {
	clear(b.strokes)
	b.order = b.order[:0]
	b.selection.Clear()
}

// Snapshot returns the ops that rebuild the board on a peer that just
// joined: a clear followed by one insert per stroke in paint order.
func (b *Board) Snapshot() []Op {
	strokes := b.Strokes()
	ops := make([]Op, 0, len(strokes)+1)
	ops = append(ops, Op{Type: OpClear})
	for i, s := range strokes {
		ops = append(ops, Op{Type: OpInsert, Stroke: s.Clone(), Index: i})
	}
	for i := range ops {
		b.clock.Stamp(&ops[i])
	}
	return ops
}

// Apply replays an op received from a peer. Remote inserts out of range are
// appended and removes of unknown strokes are ignored, since peers may have
// diverged in order.
func (b *Board) Apply(op Op) error {
	if op.Site == b.clock.Site() {
		return nil
	}
	b.clock.Observe(op.Lamport)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch op.Type {
	case OpInsert:
		if op.Stroke == nil {
			return fmt.Errorf("%w: insert op without stroke", ErrInvalidStroke)
		}
		at := op.Index
		if at < 0 || at > len(b.order) {
			at = -1
		}
		_, err := b.insert(op.Stroke, at)
		return err
	case OpRemove:
		if i := slices.Index(b.order, op.Target); i >= 0 {
			_, err := b.remove(i)
			return err
		}
	case OpMove:
		b.move(op.IDs, op.Delta)
	case OpClear:
		b.clear()
	default:
		return fmt.Errorf("unknown op type %q", op.Type)
	}
	return nil
}
