package registry

import "sync"

// Registry holds one pending completion cell per key. All map mutation
// happens under a single mutex so that the lookup-then-mutate sequence in
// Register and Complete is indivisible under concurrent callers.
type Registry[K comparable, R any] struct {
	mu      sync.Mutex
	pending map[K]*Cell[R]
}

// New creates an empty registry.
func New[K comparable, R any]() *Registry[K, R] {
	return &Registry[K, R]{pending: make(map[K]*Cell[R])}
}

// Register inserts a fresh empty cell under key and returns it. Registering
// a key that is already pending replaces the prior entry: the earlier cell is
// never fulfilled and its waiters time out. Callers own key uniqueness across
// outstanding requests.
func (r *Registry[K, R]) Register(key K) *Cell[R] {
	c := newCell[R]()
	r.mu.Lock()
	r.pending[key] = c
	r.mu.Unlock()
	return c
}

// Complete removes key and fulfills its cell with resp, waking any waiters.
// Completions for unknown or already-completed keys are dropped; the return
// value reports whether a pending cell was fulfilled so callers can count
// drops, but a false return is not an error.
func (r *Registry[K, R]) Complete(key K, resp R) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pending[key]
	if !ok {
		return false
	}
	delete(r.pending, key)
	c.fulfill(resp)
	return true
}

// Pending returns the number of keys still awaiting completion. Entries for
// waiters that timed out are counted until a completion or re-registration
// clears them.
func (r *Registry[K, R]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
