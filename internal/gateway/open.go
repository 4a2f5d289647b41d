package gateway

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"querylog/internal/common/fsutil"
)

// DefaultLibraryPath is used when LoadConfig.LibraryPath is empty.
const DefaultLibraryPath = "/usr/local/lib/libquerylog.so"

// LoadConfig controls the process-wide native library load.
type LoadConfig struct {
	// LibraryPath of the shared object; "~" is expanded.
	LibraryPath string
	// InitLogging runs querylog_init_logging once after the first successful load.
	InitLogging bool
	Logger      *zerolog.Logger
}

// library is a loaded native engine.
type library interface {
	Gateway
	// initLogging runs the optional logging hook and reports whether it exists.
	initLogging() bool
}

type loader struct {
	open func(path string) (library, error)

	mu   sync.Mutex
	lib  library
	path string
}

var defaultLoader = &loader{open: openLibrary}

// Open loads the native library once per process. Repeated calls with the same
// path return the same gateway; a different path is rejected with a
// NativeInitError. A failed load is not cached, so callers may retry.
func Open(cfg LoadConfig) (Gateway, error) {
	return defaultLoader.load(cfg)
}

func (l *loader) load(cfg LoadConfig) (Gateway, error) {
	path, err := resolvePath(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lib != nil {
		if l.path != path {
			return nil, ErrNativeInit(fmt.Sprintf("native library already loaded from %s, refusing %s", l.path, path), nil)
		}
		return l.lib, nil
	}
	lib, err := l.open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("native library load failed")
		return nil, err
	}
	l.lib, l.path = lib, path
	if cfg.InitLogging {
		if lib.initLogging() {
			log.Debug().Str("path", path).Msg("native logging initialized")
		} else {
			log.Warn().Str("path", path).Msg("native library has no querylog_init_logging")
		}
	}
	log.Info().Str("path", path).Msg("native library loaded")
	return lib, nil
}

func resolvePath(p string) (string, error) {
	if p == "" {
		p = DefaultLibraryPath
	}
	p, err := fsutil.ExpandHome(p)
	if err != nil {
		return "", ErrNativeInit("resolve library path", err)
	}
	return p, nil
}

// SanityReport describes whether the native engine can be loaded.
type SanityReport struct {
	NativeBuilt  bool   `json:"native_built"`
	LibraryFound bool   `json:"library_found"`
	LibraryPath  string `json:"library_path,omitempty"`
	Loadable     bool   `json:"loadable"`
	Error        string `json:"error,omitempty"`
}

// Check validates the native library without registering it process-wide:
// it never runs querylog_init_logging and releases its own dlopen reference.
// Opening the library still runs its load-time constructors.
func Check(libraryPath string) SanityReport {
	r := SanityReport{NativeBuilt: nativeBuilt}
	path, err := resolvePath(libraryPath)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.LibraryPath = path
	if err := fsutil.RegularFile(path); err != nil {
		r.Error = err.Error()
		return r
	}
	r.LibraryFound = true
	if err := probeLibrary(path); err != nil {
		r.Error = err.Error()
		return r
	}
	r.Loadable = true
	return r
}
