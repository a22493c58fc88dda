package state

import (
	"sync/atomic"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
)

// OpType names a board mutation that is replayed on peers.
type OpType string

const (
	OpInsert OpType = "insert"
	OpRemove OpType = "remove"
	OpMove   OpType = "move"
	OpClear  OpType = "clear"
)

// Op is one board mutation as sent between peers.
type Op struct {
	Type    OpType      `json:"type"`
	Stroke  *Stroke     `json:"stroke,omitempty"`
	Index   int         `json:"index"`
	Target  uuid.UUID   `json:"target,omitempty"`
	IDs     []uuid.UUID `json:"ids,omitempty"`
	Delta   gg.Point    `json:"delta,omitzero"`
	Lamport uint64      `json:"lamport"`
	Site    string      `json:"site"`
}

// Clock stamps local ops with a lamport time and this site's id.
type Clock struct {
	site    string
	lamport atomic.Uint64
}

// NewClock returns a clock with a random site id.
func NewClock() *Clock {
	return &Clock{site: uuid.NewString()}
}

// Site returns the site id.
func (c *Clock) Site() string {
	return c.site
}

// Stamp sets the next lamport time and the site on op.
func (c *Clock) Stamp(op *Op) {
	op.Lamport = c.lamport.Add(1)
	op.Site = c.site
}

// Observe advances the clock past a remote time.
func (c *Clock) Observe(t uint64) {
	for {
		cur := c.lamport.Load()
		if t <= cur || c.lamport.CompareAndSwap(cur, t) {
			return
		}
	}
}

// Now returns the last issued or observed time.
func (c *Clock) Now() uint64 {
	return c.lamport.Load()
}
