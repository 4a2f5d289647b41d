package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Engines selectable with Config.Engine.
const (
	EngineNative = "native"
	EngineMemory = "memory"
)

// Config holds runtime parameters for the bridge and its CLI.
// Keys missing from a file keep their Defaults() value.
type Config struct {
	// Engine is "native" (dlopen the shared library) or "memory" (simulated).
	Engine      string `json:"engine" yaml:"engine" toml:"engine" env:"QUERYLOG_ENGINE"`
	LibraryPath string `json:"library_path" yaml:"library_path" toml:"library_path" env:"QUERYLOG_LIBRARY_PATH"`
	InitLogging bool   `json:"init_logging" yaml:"init_logging" toml:"init_logging" env:"QUERYLOG_INIT_LOGGING"`
	FactoryName string `json:"factory_name" yaml:"factory_name" toml:"factory_name" env:"QUERYLOG_FACTORY_NAME"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" env:"QUERYLOG_LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" env:"QUERYLOG_LOG_FORMAT"`

	// Addr of the diagnostics HTTP server.
	Addr string `json:"addr" yaml:"addr" toml:"addr" env:"QUERYLOG_ADDR"`
	// DispatchErrorsPerSecond limits failure logs per listener; negative disables the limit.
	DispatchErrorsPerSecond float64 `json:"dispatch_errors_per_second" yaml:"dispatch_errors_per_second" toml:"dispatch_errors_per_second" env:"QUERYLOG_DISPATCH_ERRORS_PER_SECOND"`

	CORS CORS `json:"cors" yaml:"cors" toml:"cors"`

	// Listener is the property map handed to Factory.Create.
	Listener map[string]string `json:"listener" yaml:"listener" toml:"listener"`
}

// CORS configures the diagnostics server's CORS middleware (opt-in).
type CORS struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled" env:"QUERYLOG_CORS_ENABLED"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins" env:"QUERYLOG_CORS_ORIGINS"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	return Config{
		Engine:                  EngineNative,
		LibraryPath:             "/usr/local/lib/libquerylog.so",
		InitLogging:             true,
		FactoryName:             "rust-querylog-event-listener",
		LogLevel:                "info",
		LogFormat:               "console",
		Addr:                    ":9464",
		DispatchErrorsPerSecond: 1,
		CORS: CORS{
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Log-Level"},
		},
		Listener: map[string]string{},
	}
}

// Load reads a configuration file based on its extension, over Defaults().
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if cfg.Listener == nil {
		cfg.Listener = map[string]string{}
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any QUERYLOG_* variables that are set.
func ApplyEnv(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil
	}
	return err
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineNative, EngineMemory:
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineNative, EngineMemory, c.Engine)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	if c.FactoryName == "" {
		return fmt.Errorf("factory_name must not be empty")
	}
	return nil
}
