package presence

import (
	"sync"

	"github.com/rentspace/messaging/internal/domain"
)

// Handle is a live connection that events can be pushed to.
type Handle interface {
	ID() string
	// Push hands payload to the connection without blocking and reports
	// whether it was accepted.
	Push(payload []byte) bool
}

// Registry maps a user to at most one live connection. A newer connection
// for the same user replaces the older one.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]Handle),
	}
}

// Connect stores h for userID and returns the handle it superseded, if any.
// The superseded handle is not closed here.
func (r *Registry) Connect(userID string, h Handle) Handle {
	userID = domain.NormalizeUserID(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.handles[userID]
	r.handles[userID] = h
	return old
}

// Disconnect removes the entry for userID only when it still holds h, so a
// late disconnect from a replaced connection cannot evict the newer one.
func (r *Registry) Disconnect(userID string, h Handle) bool {
	userID = domain.NormalizeUserID(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.handles[userID]
	if !ok || h == nil || current.ID() != h.ID() {
		return false
	}
	delete(r.handles, userID)
	return true
}

func (r *Registry) Lookup(userID string) (Handle, bool) {
	userID = domain.NormalizeUserID(userID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[userID]
	return h, ok
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Snapshot returns the current handles. Used at shutdown to close them.
func (r *Registry) Snapshot() map[string]Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Handle, len(r.handles))
	for u, h := range r.handles {
		out[u] = h
	}
	return out
}
