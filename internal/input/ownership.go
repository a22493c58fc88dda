package input

// Ownership records which pointer drives the gesture in progress so that a
// second pointer (a touch while the pen is down, say) cannot interrupt it.
// The zero value is unowned.
type Ownership struct {
	id    PointerID
	owned bool
}

// OnPressed accepts a press only when no gesture is in progress.
func (o *Ownership) OnPressed(id PointerID) bool {
	if o.owned {
		return false
	}
	o.id, o.owned = id, true
	return true
}

// OnMoved accepts moves from the owning pointer only.
func (o *Ownership) OnMoved(id PointerID) bool {
	return o.owned && o.id == id
}

// OnReleased accepts a release from the owning pointer and ends ownership.
func (o *Ownership) OnReleased(id PointerID) bool {
	if !o.owned || o.id != id {
		return false
	}
	o.owned = false
	return true
}

// Accept dispatches on the event phase.
func (o *Ownership) Accept(ev Event) bool {
	switch ev.Phase {
	case Press:
		return o.OnPressed(ev.Pointer)
	case Move:
		return o.OnMoved(ev.Pointer)
	case Release:
		return o.OnReleased(ev.Pointer)
	}
	return false
}

// Owner returns the owning pointer, if any.
func (o *Ownership) Owner() (PointerID, bool) {
	return o.id, o.owned
}

// Release drops ownership regardless of which pointer held it. Used on
// cancellation.
func (o *Ownership) Release() {
	o.owned = false
}
