package sim

// World is an unordered collection of bodies with stable IDs. It is owned
// by the caller and mutated in place by the physics step; it must not be
// accessed concurrently with a step in progress.
type World struct {
	bodies []*Body
	index  map[BodyID]int
	nextID BodyID
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{index: make(map[BodyID]int)}
}

// Add inserts a body and returns its assigned ID. Any ID already set on the
// argument is ignored.
func (w *World) Add(b Body) BodyID {
	w.nextID++
	b.ID = w.nextID
	w.index[b.ID] = len(w.bodies)
	w.bodies = append(w.bodies, &b)
	return b.ID
}

// Remove deletes a body by ID. Returns false if the handle is not (or no
// longer) valid. Order of remaining bodies is not preserved.
func (w *World) Remove(id BodyID) bool {
	i, ok := w.index[id]
	if !ok {
		return false
	}
	last := len(w.bodies) - 1
	if i != last {
		w.bodies[i] = w.bodies[last]
		w.index[w.bodies[i].ID] = i
	}
	w.bodies[last] = nil
	w.bodies = w.bodies[:last]
	delete(w.index, id)
	return true
}

// Get returns the body for a handle, or nil if the handle is invalid.
func (w *World) Get(id BodyID) *Body {
	if i, ok := w.index[id]; ok {
		return w.bodies[i]
	}
	return nil
}

// Len returns the number of bodies.
func (w *World) Len() int { return len(w.bodies) }

// Bodies returns the underlying body slice. Callers may mutate the bodies
// but must not grow or reorder the slice; use Add/Remove for that.
func (w *World) Bodies() []*Body { return w.bodies }
