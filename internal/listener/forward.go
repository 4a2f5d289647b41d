package listener

import (
	"fmt"
	"runtime"
	"time"

	"querylog/internal/codec"
	"querylog/internal/gateway"
	"querylog/internal/metrics"
	"querylog/pkg/types"
)

// Listener forwards lifecycle events to one native context. It is safe for
// concurrent use. The event methods never return errors: failures are logged
// and counted so they cannot disturb query execution.
type Listener struct {
	in           *instance
	trackCreated bool
}

// ID is the process-unique instance id (not the native handle).
func (l *Listener) ID() string { return l.in.id }

// Closed reports whether the native context has been released.
func (l *Listener) Closed() bool { return !l.in.h.live() }

// QueryCreated forwards ev; failures are logged, never returned.
func (l *Listener) QueryCreated(ev *types.QueryCreatedEvent) { _ = l.Deliver(ev) }

// QueryCompleted forwards ev; failures are logged, never returned.
func (l *Listener) QueryCompleted(ev *types.QueryCompletedEvent) { _ = l.Deliver(ev) }

// SplitCompleted forwards ev; failures are logged, never returned.
func (l *Listener) SplitCompleted(ev *types.SplitCompletedEvent) { _ = l.Deliver(ev) }

// Deliver encodes ev and hands it to the native context. It returns nil for
// events dropped by configuration, an EncodingError, a DispatchError (also for
// recovered panics) or a HandleStateError after Close.
func (l *Listener) Deliver(ev types.Event) (err error) {
	defer runtime.KeepAlive(l)

	kind := types.EventKind(-1)
	if ev != nil {
		kind = ev.EventKind()
	}
	if kind == types.KindQueryCreated && !l.trackCreated {
		l.in.skipped.Add(1)
		metrics.ObserveEvent(kind.String(), metrics.OutcomeSkipped, 0)
		return nil
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = gateway.ErrDispatch(l.in.h.token, kind, gateway.StatusPanic, fmt.Sprint("panic: ", r))
		}
		l.in.record(kind, err, time.Since(start))
	}()

	payload, err := codec.Encode(ev)
	if err != nil {
		return err
	}
	return l.in.h.dispatch(kind, payload)
}

// Close destroys the native context. It is idempotent; only the first call
// (or the reachability cleanup, whichever comes first) reaches the gateway.
func (l *Listener) Close() error {
	l.in.cleanup.Stop()
	return l.in.reap(triggerClose)
}

func (in *instance) record(kind types.EventKind, err error, d time.Duration) {
	if err == nil {
		in.dispatched.Add(1)
		metrics.ObserveEvent(kind.String(), metrics.OutcomeDispatched, d)
		return
	}
	in.failed.Add(1)
	outcome := metrics.OutcomeFailed
	if IsHandleStateError(err) {
		outcome = metrics.OutcomeRejected
	}
	metrics.ObserveEvent(kind.String(), outcome, d)

	if !in.limiter.Allow() {
		in.suppressed.Add(1)
		return
	}
	in.log.Error().Err(err).
		Str("listener", in.id).
		Str("kind", kind.String()).
		Str("outcome", outcome).
		Uint64("suppressed", in.suppressed.Swap(0)).
		Msg("event not delivered")
}
