package cart

import "sync"

// Registry keeps one cart per operator session.
type Registry struct {
	mu     sync.Mutex
	finder BatchFinder
	carts  map[string]*Cart
}

func NewRegistry(finder BatchFinder) *Registry {
	return &Registry{finder: finder, carts: make(map[string]*Cart)}
}

// Get returns the session's cart, creating an empty one on first use.
func (r *Registry) Get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[sessionID]
	if !ok {
		c = New(r.finder)
		r.carts[sessionID] = c
	}
	return c
}

// Discard drops the session's cart, e.g. when the operator cancels the sale.
func (r *Registry) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
}
