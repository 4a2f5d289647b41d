package gateway

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"querylog/internal/codec"
	"querylog/pkg/types"
)

func createdPayload(t *testing.T) string {
	t.Helper()
	p, err := codec.Encode(&types.QueryCreatedEvent{
		CreateTime: types.NewTimestamp(time0),
		Metadata:   types.QueryMetadata{QueryID: "q1", Query: "SELECT 1", QueryState: "QUEUED"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func TestMemory_Lifecycle(t *testing.T) {
	var sink bytes.Buffer
	m := NewMemory(&sink)
	h, err := m.CreateContext(`{"audit.enabled":"true"}`)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h == 0 {
		t.Fatalf("zero handle")
	}
	cfg, ok := m.Config(h)
	if !ok || cfg["audit.enabled"] != "true" {
		t.Fatalf("config not kept: %v %v", cfg, ok)
	}
	p := createdPayload(t)
	if err := m.Dispatch(h, types.KindQueryCreated, p); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := strings.TrimSpace(sink.String()); got != p {
		t.Fatalf("sink mismatch: %q", got)
	}
	if err := m.DestroyContext(h); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if m.Live() != 0 {
		t.Fatalf("live=%d", m.Live())
	}
	err = m.Dispatch(h, types.KindQueryCreated, p)
	if st, ok := DispatchStatus(err); !ok || st != StatusUnknownHandle {
		t.Fatalf("want unknown handle, got %v", err)
	}
	if err := m.DestroyContext(h); err == nil {
		t.Fatalf("double destroy must be reported")
	}
	if m.DestroyCount(h) != 2 {
		t.Fatalf("destroy count=%d", m.DestroyCount(h))
	}
	ops := []string{}
	for _, c := range m.Calls() {
		ops = append(ops, c.Op)
	}
	if strings.Join(ops, ",") != "create,dispatch,destroy,destroy" {
		t.Fatalf("ops=%v", ops)
	}
}

func TestMemory_RejectsBadInput(t *testing.T) {
	m := NewMemory(nil)
	if _, err := m.CreateContext("not json"); !IsNativeInitError(err) {
		t.Fatalf("want NativeInitError, got %v", err)
	}
	h, err := m.CreateContext("{}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p := createdPayload(t)
	if st, _ := DispatchStatus(m.Dispatch(h, types.EventKind(9), p)); st != StatusBadKind {
		t.Fatalf("want bad kind, got %d", st)
	}
	if st, _ := DispatchStatus(m.Dispatch(h, types.KindSplitCompleted, p)); st != StatusInternalFault {
		t.Fatalf("kind mismatch should fault, got %d", st)
	}
	if st, _ := DispatchStatus(m.Dispatch(h, types.KindQueryCreated, "{")); st != StatusInternalFault {
		t.Fatalf("garbage should fault, got %d", st)
	}
	if n := len(m.CallsFor(h, "dispatch")); n != 0 {
		t.Fatalf("rejected dispatches logged: %d", n)
	}
}

func TestMemory_FailureInjection(t *testing.T) {
	m := NewMemory(nil)
	m.FailCreate(errors.New("boom"))
	if _, err := m.CreateContext("{}"); !IsNativeInitError(err) {
		t.Fatalf("want NativeInitError, got %v", err)
	}
	m.FailCreate(nil)
	h, err := m.CreateContext("{}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.FailDispatch(StatusInternalFault)
	err = m.Dispatch(h, types.KindQueryCreated, createdPayload(t))
	if !IsDispatchError(err) {
		t.Fatalf("want DispatchError, got %v", err)
	}
	if !strings.Contains(err.Error(), "internal fault") {
		t.Fatalf("message: %v", err)
	}
}

func TestMemory_DistinctHandles(t *testing.T) {
	m := NewMemory(nil)
	seen := map[Handle]bool{}
	for i := 0; i < 10; i++ {
		h, err := m.CreateContext("{}")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[h] {
			t.Fatalf("handle %s reused", h)
		}
		seen[h] = true
	}
}
