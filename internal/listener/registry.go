package listener

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"querylog/internal/gateway"
	"querylog/pkg/types"
)

var (
	errRegistryClosed      = errors.New("listener registry is closed")
	errDuplicateHandle     = errors.New("native engine returned a handle already in use")
	errRegisteredElsewhere = errors.New("listener already registered with another registry")
)

// Registry tracks live listeners for status reporting and shutdown. It holds
// listener state, not the Listener itself, so registered listeners can still
// be reclaimed.
type Registry struct {
	mu     sync.Mutex
	items  map[string]*instance
	tokens map[gateway.Handle]string
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{items: map[string]*instance{}, tokens: map[gateway.Handle]string{}}
}

// Add registers l. It fails once CloseAll has run, when l is already closed,
// or when l belongs to another registry.
func (r *Registry) Add(l *Listener) error {
	if l.Closed() {
		return ErrHandleState(l.in.h.token, "register")
	}
	if err := r.add(l.in); err != nil {
		return err
	}
	if l.Closed() {
		r.remove(l.in.id)
	}
	return nil
}

// Remove unregisters l without closing it; l may then join another registry.
func (r *Registry) Remove(l *Listener) { r.remove(l.in.id) }

func (r *Registry) add(in *instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errRegistryClosed
	}
	if id, ok := r.tokens[in.h.token]; ok && id != in.id {
		return errDuplicateHandle
	}
	// A listener unregisters from a single registry on release.
	if !in.reg.CompareAndSwap(nil, r) && in.reg.Load() != r {
		return errRegisteredElsewhere
	}
	r.items[in.id] = in
	r.tokens[in.h.token] = in.id
	return nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in, ok := r.items[id]; ok {
		delete(r.tokens, in.h.token)
		delete(r.items, id)
		in.reg.CompareAndSwap(r, nil)
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Snapshot returns the registered listeners ordered by creation time.
func (r *Registry) Snapshot() []types.ListenerStatus {
	r.mu.Lock()
	ins := make([]*instance, 0, len(r.items))
	for _, in := range r.items {
		ins = append(ins, in)
	}
	r.mu.Unlock()

	sort.Slice(ins, func(i, j int) bool {
		if ins[i].created.Equal(ins[j].created) {
			return ins[i].id < ins[j].id
		}
		return ins[i].created.Before(ins[j].created)
	})
	out := make([]types.ListenerStatus, 0, len(ins))
	for _, in := range ins {
		out = append(out, types.ListenerStatus{
			ID:          in.id,
			Factory:     in.factory,
			CreatedUnix: in.created.Unix(),
			Dispatched:  in.dispatched.Load(),
			Failed:      in.failed.Load(),
			Skipped:     in.skipped.Load(),
		})
	}
	return out
}

// CloseAll destroys every registered listener and rejects further additions.
// Errors from individual destroys are combined.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	r.closed = true
	ins := make([]*instance, 0, len(r.items))
	for _, in := range r.items {
		ins = append(ins, in)
	}
	r.mu.Unlock()

	var err error
	for _, in := range ins {
		err = multierr.Append(err, in.reap(triggerShutdown))
	}
	return err
}
