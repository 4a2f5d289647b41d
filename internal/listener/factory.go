package listener

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"querylog/internal/codec"
	"querylog/internal/gateway"
	"querylog/internal/metrics"
)

// DefaultFactoryName is the name the plugin registers its factory under.
const DefaultFactoryName = "rust-querylog-event-listener"

// ConfigTrackCreated is the listener property controlling whether
// QueryCreated events are forwarded. It defaults to true.
const ConfigTrackCreated = "querylog.track-created"

// Options configures a Factory.
type Options struct {
	// Name under which the factory is registered (default DefaultFactoryName).
	Name    string
	Gateway gateway.Gateway
	Logger  *zerolog.Logger
	// Registry, when set, tracks every listener created by the factory.
	Registry *Registry
	// DispatchErrorsPerSecond limits per-listener failure logs (default 1, burst 5).
	// Negative disables the limit.
	DispatchErrorsPerSecond float64
	// AfterCreate runs once the listener is fully built. An error rolls the
	// creation back and destroys the native context.
	AfterCreate func(*Listener) error
}

// Factory creates listeners bound to one gateway.
type Factory struct {
	name        string
	gw          gateway.Gateway
	log         zerolog.Logger
	reg         *Registry
	errRate     rate.Limit
	errBurst    int
	afterCreate func(*Listener) error
}

// NewFactory applies defaults to opts. A nil Gateway makes every Create fail
// with a NativeInitError.
func NewFactory(opts Options) *Factory {
	f := &Factory{
		name:        opts.Name,
		gw:          opts.Gateway,
		log:         zerolog.Nop(),
		reg:         opts.Registry,
		errRate:     rate.Limit(opts.DispatchErrorsPerSecond),
		errBurst:    5,
		afterCreate: opts.AfterCreate,
	}
	if f.name == "" {
		f.name = DefaultFactoryName
	}
	if f.gw == nil {
		f.gw = unavailable{err: gateway.ErrNativeInit("no gateway configured", nil)}
	}
	if opts.Logger != nil {
		f.log = *opts.Logger
	}
	switch {
	case opts.DispatchErrorsPerSecond == 0:
		f.errRate = 1
	case opts.DispatchErrorsPerSecond < 0:
		f.errRate = rate.Inf
	}
	return f
}

// Name returns the registered factory name.
func (f *Factory) Name() string { return f.name }

// Gateway returns the gateway listeners are bound to.
func (f *Factory) Gateway() gateway.Gateway { return f.gw }

// Create stands up one native context for config and wraps it in a Listener.
// config is copied; later changes by the caller are not observed. Every
// failure is a ListenerCreationError; a context created before the failure
// is destroyed before Create returns.
func (f *Factory) Create(config map[string]string) (*Listener, error) {
	l, err := f.create(config)
	metrics.ListenerCreated(err == nil)
	if err != nil {
		f.log.Error().Err(err).Str("factory", f.name).Msg("listener creation failed")
		return nil, ErrListenerCreation(f.name, err)
	}
	f.log.Info().Str("factory", f.name).Str("listener", l.ID()).Stringer("handle", l.in.h.token).Msg("listener created")
	return l, nil
}

func (f *Factory) create(config map[string]string) (*Listener, error) {
	cfg := make(map[string]string, len(config))
	for k, v := range config {
		cfg[k] = v
	}
	track := true
	if v, ok := cfg[ConfigTrackCreated]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s=%q: %w", ConfigTrackCreated, v, err)
		}
		track = b
	}
	enc, err := codec.EncodeConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, err := f.createContext(enc)
	if err != nil {
		return nil, err
	}
	if tok == 0 {
		// Zero names no context, so there is nothing to roll back.
		return nil, gateway.ErrNativeInit("native engine returned a zero handle", nil)
	}

	in := &instance{
		id:      uuid.NewString(),
		factory: f.name,
		created: time.Now(),
		h:       newHandle(f.gw, tok),
		log:     f.log,
		limiter: rate.NewLimiter(f.errRate, f.errBurst),
	}
	l := &Listener{in: in, trackCreated: track}
	in.watch(l)

	if f.reg != nil {
		if err := f.reg.add(in); err != nil {
			if errors.Is(err, errDuplicateHandle) {
				// The token belongs to another live listener; destroying it
				// here would free that listener's context.
				in.cleanup.Stop()
				return nil, err
			}
			return nil, f.rollback(in, err)
		}
	}
	if f.afterCreate != nil {
		if err := f.afterCreate(l); err != nil {
			return nil, f.rollback(in, err)
		}
	}
	return l, nil
}

func (f *Factory) createContext(enc string) (tok gateway.Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gateway.ErrNativeInit(fmt.Sprint("create context panicked: ", r), nil)
		}
	}()
	return f.gw.CreateContext(enc)
}

func (f *Factory) rollback(in *instance, cause error) error {
	in.cleanup.Stop()
	if err := in.reap(triggerRollback); err != nil {
		return multierr.Append(cause, fmt.Errorf("rollback: %w", err))
	}
	return cause
}
