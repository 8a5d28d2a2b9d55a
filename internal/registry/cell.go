package registry

import "context"

// Cell is a single-assignment completion cell. It is created empty by
// Registry.Register, fulfilled exactly once by Registry.Complete, and may be
// read any number of times; every reader observes the same value.
type Cell[R any] struct {
	done  chan struct{}
	value R
}

func newCell[R any]() *Cell[R] {
	return &Cell[R]{done: make(chan struct{})}
}

// fulfill stores v and wakes all readers. The registry calls it exactly once
// per cell, inside the critical section that removes the pending entry, so
// value is written before done is closed and never written again.
func (c *Cell[R]) fulfill(v R) {
	c.value = v
	close(c.done)
}

// Wait blocks until the cell is fulfilled or ctx ends. An already-fulfilled
// cell returns its value even if ctx has expired.
func (c *Cell[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-c.done:
		return c.value, nil
	default:
	}

	select {
	case <-c.done:
		return c.value, nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
