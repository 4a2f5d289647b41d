package listener

import (
	"sync"

	"querylog/internal/gateway"
	"querylog/pkg/types"
)

// handle pairs a native token with its gateway. Dispatches hold the read lock
// for the duration of the foreign call; release takes the write lock, so a
// destroy waits for in-flight dispatches and every later dispatch sees the
// destroyed state.
type handle struct {
	mu        sync.RWMutex
	token     gateway.Handle
	gw        gateway.Gateway
	destroyed bool
}

func newHandle(gw gateway.Gateway, token gateway.Handle) *handle {
	return &handle{gw: gw, token: token}
}

func (h *handle) dispatch(kind types.EventKind, payload string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.destroyed {
		return ErrHandleState(h.token, "dispatch")
	}
	return h.gw.Dispatch(h.token, kind, payload)
}

// release destroys the native context. Only the first call reaches the
// gateway; won reports whether this call was it. The handle counts as
// destroyed even when DestroyContext fails, since retrying could free twice.
func (h *handle) release() (won bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return false, nil
	}
	h.destroyed = true
	return true, h.gw.DestroyContext(h.token)
}

func (h *handle) live() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.destroyed
}
