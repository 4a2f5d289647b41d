package listener

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"querylog/internal/codec"
	"querylog/internal/gateway"
)

func TestDeliver_ConcurrentNoLossNoDuplicates(t *testing.T) {
	f, mem := newTestFactory(t, Options{})
	l, err := f.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer l.Close()

	const workers, perWorker = 16, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := l.Deliver(split(fmt.Sprintf("q%d", w), i)); err != nil {
					t.Errorf("deliver: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	calls := mem.CallsFor(handleOf(t, mem), "dispatch")
	if len(calls) != workers*perWorker {
		t.Fatalf("dispatches=%d want %d", len(calls), workers*perWorker)
	}
	seen := map[string]bool{}
	for _, c := range calls {
		if seen[c.Payload] {
			t.Fatalf("duplicate payload %s", c.Payload)
		}
		seen[c.Payload] = true
	}
	if got := l.in.dispatched.Load(); got != workers*perWorker {
		t.Fatalf("dispatched counter=%d", got)
	}
}

func TestDeliver_AfterCloseIsHandleStateError(t *testing.T) {
	f, mem := newTestFactory(t, Options{})
	l, err := f.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err = l.Deliver(completed("q1"))
	if !IsHandleStateError(err) {
		t.Fatalf("want HandleStateError, got %v", err)
	}
	// The event methods swallow the error but still count it.
	l.QueryCompleted(completed("q1"))
	if got := l.in.failed.Load(); got != 2 {
		t.Fatalf("failed=%d", got)
	}
	if n := len(mem.CallsFor(handleOf(t, mem), "dispatch")); n != 0 {
		t.Fatalf("dispatch reached the gateway after destroy: %d", n)
	}
}

func TestDeliver_EncodingErrors(t *testing.T) {
	f, mem := newTestFactory(t, Options{DispatchErrorsPerSecond: -1})
	l, err := f.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer l.Close()
	if err := l.Deliver(nil); !codec.IsEncodingError(err) {
		t.Fatalf("nil event: want EncodingError, got %v", err)
	}
	if err := l.Deliver(nanCompleted()); !codec.IsEncodingError(err) {
		t.Fatalf("NaN: want EncodingError, got %v", err)
	}
	// A bad event does not poison the listener.
	if err := l.Deliver(completed("q2")); err != nil {
		t.Fatalf("deliver after encoding error: %v", err)
	}
	if n := len(mem.CallsFor(handleOf(t, mem), "dispatch")); n != 1 {
		t.Fatalf("dispatches=%d", n)
	}
}

func TestDeliver_NativeFault(t *testing.T) {
	f, mem := newTestFactory(t, Options{})
	l, err := f.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer l.Close()
	mem.FailDispatch(gateway.StatusInternalFault)
	for i := 0; i < 20; i++ {
		l.SplitCompleted(split("q1", i))
	}
	if got := l.in.failed.Load(); got != 20 {
		t.Fatalf("failed=%d", got)
	}
	// burst 5 at 1/s: the rest are suppressed, not lost
	if got := l.in.suppressed.Load(); got == 0 {
		t.Fatalf("expected suppressed log lines")
	}
}

func TestDeliver_TrackCreatedFalse(t *testing.T) {
	f, mem := newTestFactory(t, Options{})
	l, err := f.Create(map[string]string{ConfigTrackCreated: "false"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer l.Close()
	if err := l.Deliver(created("q1")); err != nil {
		t.Fatalf("skipped event must not error: %v", err)
	}
	l.QueryCompleted(completed("q1"))
	calls := mem.CallsFor(handleOf(t, mem), "dispatch")
	if len(calls) != 1 || calls[0].Kind.String() != "query_completed" {
		t.Fatalf("calls=%+v", calls)
	}
	if l.in.skipped.Load() != 1 {
		t.Fatalf("skipped=%d", l.in.skipped.Load())
	}
}

func TestClose_WaitsForInflightDispatch(t *testing.T) {
	f, mem := newTestFactory(t, Options{})
	l, err := f.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	mem.OnDispatch(func(gateway.Handle) {
		once.Do(func() { close(entered) })
		<-unblock
	})

	delivered := make(chan error, 1)
	go func() { delivered <- l.Deliver(created("q1")) }()
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- l.Close() }()
	select {
	case <-closed:
		t.Fatalf("Close returned while a dispatch was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(unblock)
	if err := <-delivered; err != nil {
		t.Fatalf("in-flight deliver: %v", err)
	}
	if err := <-closed; err != nil {
		t.Fatalf("close: %v", err)
	}
	if !IsHandleStateError(l.Deliver(created("q2"))) {
		t.Fatalf("dispatch after close must be rejected")
	}
	if mem.DestroyCount(handleOf(t, mem)) != 1 {
		t.Fatalf("destroy count=%d", mem.DestroyCount(handleOf(t, mem)))
	}
}
