package gateway

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"querylog/internal/codec"
	"querylog/pkg/types"
)

// Call is one entry of the Memory call log.
type Call struct {
	Op      string // "create", "dispatch" or "destroy"
	Handle  Handle
	Kind    types.EventKind
	Payload string
}

// Memory is a simulated native engine. It tracks handle state and records
// every boundary call, and optionally writes accepted payloads to a sink as
// newline-delimited JSON.
type Memory struct {
	mu        sync.Mutex
	next      int64
	live      map[Handle]map[string]string
	destroyed map[Handle]int
	calls     []Call

	createErr      error
	dispatchStatus int32
	onDispatch     func(Handle)
	sink           io.Writer
}

// NewMemory returns an empty simulated engine. sink may be nil.
func NewMemory(sink io.Writer) *Memory {
	return &Memory{
		next:      0x1000,
		live:      map[Handle]map[string]string{},
		destroyed: map[Handle]int{},
		sink:      sink,
	}
}

func (m *Memory) Name() string { return "memory" }

// FailCreate makes subsequent CreateContext calls fail with err (nil clears it).
func (m *Memory) FailCreate(err error) {
	m.mu.Lock()
	m.createErr = err
	m.mu.Unlock()
}

// FailDispatch makes subsequent dispatches return status (StatusOK clears it).
func (m *Memory) FailDispatch(status int32) {
	m.mu.Lock()
	m.dispatchStatus = status
	m.mu.Unlock()
}

// OnDispatch installs a hook run inside every accepted dispatch, outside the
// engine lock.
func (m *Memory) OnDispatch(fn func(Handle)) {
	m.mu.Lock()
	m.onDispatch = fn
	m.mu.Unlock()
}

func (m *Memory) CreateContext(encodedConfig string) (Handle, error) {
	cfg, err := codec.DecodeConfig(encodedConfig)
	if err != nil {
		return 0, ErrNativeInit("native engine rejected configuration", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, ErrNativeInit("create context", m.createErr)
	}
	m.next++
	h := Handle(m.next)
	m.live[h] = cfg
	m.calls = append(m.calls, Call{Op: "create", Handle: h})
	return h, nil
}

func (m *Memory) Dispatch(h Handle, kind types.EventKind, payload string) error {
	if !kind.Valid() {
		return ErrDispatch(h, kind, StatusBadKind, statusMessage(StatusBadKind))
	}
	hdr, err := codec.Peek(payload)
	if err != nil {
		return ErrDispatch(h, kind, StatusInternalFault, err.Error())
	}
	if hdr.Kind != kind {
		return ErrDispatch(h, kind, StatusInternalFault, fmt.Sprintf("payload kind %s does not match %s", hdr.Kind, kind))
	}

	m.mu.Lock()
	if _, ok := m.live[h]; !ok {
		m.mu.Unlock()
		return ErrDispatch(h, kind, StatusUnknownHandle, statusMessage(StatusUnknownHandle))
	}
	if st := m.dispatchStatus; st != StatusOK {
		m.mu.Unlock()
		return ErrDispatch(h, kind, st, statusMessage(st))
	}
	m.calls = append(m.calls, Call{Op: "dispatch", Handle: h, Kind: kind, Payload: payload})
	if m.sink != nil {
		if _, err := io.WriteString(m.sink, payload+"\n"); err != nil {
			m.mu.Unlock()
			return ErrDispatch(h, kind, StatusInternalFault, err.Error())
		}
	}
	hook := m.onDispatch
	m.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return nil
}

// DestroyContext releases h. Destroying an unknown or already destroyed handle
// is recorded and reported, which lets tests detect double frees.
func (m *Memory) DestroyContext(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "destroy", Handle: h})
	m.destroyed[h]++
	if _, ok := m.live[h]; !ok {
		return errors.New("destroy of unknown handle " + h.String())
	}
	delete(m.live, h)
	return nil
}

// Calls returns a copy of the call log.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsFor returns the logged calls for one handle and op ("" matches any op).
func (m *Memory) CallsFor(h Handle, op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if c.Handle == h && (op == "" || c.Op == op) {
			out = append(out, c)
		}
	}
	return out
}

// Live reports the number of contexts not yet destroyed.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// DestroyCount reports how many times h was destroyed.
func (m *Memory) DestroyCount(h Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed[h]
}

// Config returns the configuration a live context was created with.
func (m *Memory) Config(h Handle) (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.live[h]
	return cfg, ok
}
