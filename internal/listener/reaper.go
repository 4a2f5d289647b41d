package listener

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"querylog/internal/metrics"
)

// Release triggers.
const (
	triggerClose       = "close"
	triggerUnreachable = "unreachable"
	triggerShutdown    = "shutdown"
	triggerRollback    = "rollback"
)

// instance is the state shared by a Listener, its cleanup and the Registry.
// It must never point back at the Listener, or the cleanup could not run.
type instance struct {
	id      string
	factory string
	created time.Time
	h       *handle
	reg     atomic.Pointer[Registry]
	log     zerolog.Logger
	cleanup runtime.Cleanup

	limiter    *rate.Limiter
	suppressed atomic.Uint64

	dispatched atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64
}

// reap is the only path to DestroyContext. Whichever trigger arrives first
// wins; later calls are no-ops returning nil.
func (in *instance) reap(trigger string) (err error) {
	won, err := in.release()
	if !won {
		return nil
	}
	metrics.ContextDestroyed(trigger)
	if reg := in.reg.Load(); reg != nil {
		reg.remove(in.id)
	}
	ev := in.log.Debug()
	if err != nil {
		ev = in.log.Error().Err(err)
	}
	ev.Str("listener", in.id).Stringer("handle", in.h.token).Str("trigger", trigger).Msg("native context destroyed")
	return err
}

func (in *instance) release() (won bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			won = true
			err = fmt.Errorf("destroy %s panicked: %v", in.h.token, r)
		}
	}()
	return in.h.release()
}

// watch arms the reachability cleanup for l. The cleanup closes over in only.
func (in *instance) watch(l *Listener) {
	in.cleanup = runtime.AddCleanup(l, func(in *instance) {
		_ = in.reap(triggerUnreachable)
	}, in)
}
