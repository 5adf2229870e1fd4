package archive

import (
	"errors"
	"fmt"
	"sync"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// HandleID identifies a Handle inside a Registry. The zero value never names a handle.
type HandleID uint64

// Registry owns archive handles. Items keep only a HandleID, so a handle released by its owner
// can no longer be reached through stale references.
type Registry struct {
	mu      sync.RWMutex
	next    HandleID
	handles map[HandleID]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[HandleID]Handle)}
}

// Register takes ownership of h and returns its id.
func (r *Registry) Register(h Handle) HandleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.handles[r.next] = h
	return r.next
}

// Lookup returns the handle registered under id.
func (r *Registry) Lookup(id HandleID) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", zlerrors.ErrHandleNotFound, id)
	}
	return h, nil
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Release unregisters and closes the handle under id. Releasing an unknown id is a no-op.
func (r *Registry) Release(id HandleID) error {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return h.Close()
}

// ReleaseAll closes every registered handle.
func (r *Registry) ReleaseAll() error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[HandleID]Handle)
	r.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
