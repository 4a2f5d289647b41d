package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"querylog/internal/codec"
	"querylog/internal/common/fsutil"
	"querylog/internal/config"
	"querylog/internal/fixtures"
	"querylog/internal/gateway"
	"querylog/internal/httpapi"
	"querylog/internal/listener"
)

// Overridable for tests.
var (
	fnReplay  = replay
	fnInspect = inspect
	fnCheck   = check
	fnServe   = serve
)

type replayOptions struct {
	sink   string
	strict bool
}

// opener returns the gateway loader for the configured engine. sink is only
// used by the memory engine.
func opener(st *state, sink io.Writer) func() (gateway.Gateway, error) {
	cfg := st.cfg
	if cfg.Engine == config.EngineMemory {
		return func() (gateway.Gateway, error) { return gateway.NewMemory(sink), nil }
	}
	log := st.log
	return func() (gateway.Gateway, error) {
		return gateway.Open(gateway.LoadConfig{LibraryPath: cfg.LibraryPath, InitLogging: cfg.InitLogging, Logger: &log})
	}
}

func newPlugin(st *state, sink io.Writer) *listener.Plugin {
	log := st.log
	return listener.NewPlugin(opener(st, sink), listener.Options{
		Name:                    st.cfg.FactoryName,
		Logger:                  &log,
		DispatchErrorsPerSecond: st.cfg.DispatchErrorsPerSecond,
	})
}

func replay(st *state, path string, opts replayOptions) error {
	var recorded []fixtures.Fixture
	isDir, err := fsutil.IsDir(path)
	if err != nil {
		return err
	}
	if isDir {
		recorded, err = fixtures.LoadDir(path)
	} else {
		recorded, err = fixtures.LoadFile(path)
	}
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	var sink io.Writer
	switch opts.sink {
	case "":
	case "-":
		sink = st.out
	default:
		f, err := os.Create(opts.sink)
		if err != nil {
			return err
		}
		defer f.Close()
		sink = f
	}

	p := newPlugin(st, sink)
	l, err := p.Factories()[0].Create(st.cfg.Listener)
	if err != nil {
		return err
	}
	failed := 0
	for _, fx := range recorded {
		if err := l.Deliver(fx.Event); err != nil {
			failed++
			st.log.Warn().Err(err).Str("source", fx.Source).Int("index", fx.Index).Msg("event not delivered")
		}
	}
	status := p.Status()
	if err := l.Close(); err != nil {
		return fmt.Errorf("close listener: %w", err)
	}

	var dispatched, skipped uint64
	for _, ls := range status.Listeners {
		dispatched += ls.Dispatched
		skipped += ls.Skipped
	}
	fmt.Fprintf(st.err, "replayed %d events through %s (dispatched %d, failed %d, skipped %d)\n",
		len(recorded), status.Gateway, dispatched, failed, skipped)
	if opts.strict && failed > 0 {
		return fmt.Errorf("%d of %d events not delivered", failed, len(recorded))
	}
	return nil
}

func inspect(st *state, path string) error {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	hdr, err := codec.Peek(string(b))
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	ev, err := codec.Decode(string(b))
	if err != nil {
		return fmt.Errorf("version %d %s: %w", hdr.Version, hdr.Kind, err)
	}
	out, err := json.MarshalIndent(map[string]any{"version": hdr.Version, "kind": hdr.Kind.String(), "event": ev}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(st.out, string(out))
	return err
}

func check(st *state) error {
	r := gateway.Check(st.cfg.LibraryPath)
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(st.out, string(b))
	if !r.Loadable {
		return errors.New("native library not loadable: " + r.Error)
	}
	return nil
}

func serve(ctx context.Context, st *state) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPlugin(st, nil)
	defer func() {
		if err := p.Close(); err != nil {
			st.log.Error().Err(err).Msg("closing listeners")
		}
	}()

	l, err := p.Factories()[0].Create(st.cfg.Listener)
	if err != nil {
		st.log.Error().Err(err).Msg("no live listener; serving diagnostics only")
	} else {
		st.log.Info().Str("listener", l.ID()).Msg("listener ready")
		defer l.Close()
	}

	httpapi.SetLogger(st.log)
	c := st.cfg.CORS
	httpapi.SetCORSOptions(c.Enabled, c.AllowedOrigins, c.AllowedMethods, c.AllowedHeaders)
	srv := &http.Server{Addr: st.cfg.Addr, Handler: httpapi.NewMux(p), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		st.log.Info().Str("addr", st.cfg.Addr).Str("gateway", p.Status().Gateway).Msg("querylogctl listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
