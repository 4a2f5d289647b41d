package listener

import (
	"time"

	"github.com/rs/zerolog"

	"querylog/internal/gateway"
	"querylog/pkg/types"
)

// Plugin is what the host discovers: a set of listener factories sharing one
// gateway and one registry.
type Plugin struct {
	factories []*Factory
	reg       *Registry
	gwName    string
	loadErr   error
	started   time.Time
}

// NewPlugin loads the gateway with open and builds the default factory from
// opts. A load failure is logged and kept, not returned: the plugin still
// registers, and every Create reports the load error.
func NewPlugin(open func() (gateway.Gateway, error), opts Options) *Plugin {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	p := &Plugin{started: time.Now()}
	gw, err := open()
	if err != nil {
		log.Error().Err(err).Msg("native engine unavailable; listener creation will fail")
		p.loadErr = err
		gw = unavailable{err: err}
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	opts.Gateway = gw
	p.reg = opts.Registry
	p.gwName = gw.Name()
	p.factories = []*Factory{NewFactory(opts)}
	return p
}

// Factories returns the listener factories the plugin provides.
func (p *Plugin) Factories() []*Factory { return append([]*Factory(nil), p.factories...) }

// Registry returns the registry shared by the plugin's factories.
func (p *Plugin) Registry() *Registry { return p.reg }

// Ready reports whether the native engine loaded.
func (p *Plugin) Ready() bool { return p.loadErr == nil }

// Status summarizes the plugin for diagnostics.
func (p *Plugin) Status() types.StatusResponse {
	now := time.Now()
	s := types.StatusResponse{
		Factory:        p.factories[0].Name(),
		Gateway:        p.gwName,
		Ready:          p.Ready(),
		Listeners:      p.reg.Snapshot(),
		UptimeSeconds:  int64(now.Sub(p.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if p.loadErr != nil {
		s.Error = p.loadErr.Error()
	}
	return s
}

// Close destroys every live listener created through the plugin.
func (p *Plugin) Close() error { return p.reg.CloseAll() }

// unavailable stands in for a gateway that failed to load.
type unavailable struct{ err error }

func (u unavailable) Name() string { return "unavailable" }

func (u unavailable) CreateContext(string) (gateway.Handle, error) { return 0, u.err }

func (u unavailable) Dispatch(h gateway.Handle, kind types.EventKind, _ string) error {
	return gateway.ErrDispatch(h, kind, gateway.StatusUnknownHandle, "native engine unavailable")
}

func (u unavailable) DestroyContext(gateway.Handle) error { return u.err }
