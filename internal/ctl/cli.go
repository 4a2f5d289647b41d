// Package ctl implements querylogctl, a host-side driver for the listener
// bridge: it replays recorded events through a listener, inspects payloads,
// checks the native library and serves the diagnostics API.
package ctl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"querylog/internal/config"
	"querylog/internal/logging"
)

// state is shared by the command tree; PersistentPreRunE fills it.
type state struct {
	configPath string
	envFile    string
	flags      config.Config

	cfg config.Config
	log zerolog.Logger
	out io.Writer
	err io.Writer
}

// load resolves configuration in order: defaults, config file, .env and
// environment, then explicit flags.
func (s *state) load(changed func(string) bool) error {
	if s.envFile != "" {
		if err := godotenv.Load(s.envFile); err != nil {
			if changed("env-file") || !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", s.envFile, err)
			}
		}
	}
	cfg := config.Defaults()
	if s.configPath != "" {
		c, err := config.Load(s.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if changed("engine") {
		cfg.Engine = s.flags.Engine
	}
	if changed("library") {
		cfg.LibraryPath = s.flags.LibraryPath
	}
	if changed("log-level") {
		cfg.LogLevel = s.flags.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = s.flags.LogFormat
	}
	if changed("addr") {
		cfg.Addr = s.flags.Addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, s.err)
	if err != nil {
		return err
	}
	s.cfg, s.log = cfg, log
	return nil
}

// MainWithArgs runs the command tree and returns the process exit code:
// 0 on success, 1 on error, 2 when no command was given.
func MainWithArgs(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

// Main returns an exit code for use by cmd/querylogctl.
func Main() int { return MainWithArgs(os.Args[1:]) }

func run(args []string, stdout, stderr io.Writer) int {
	root := buildRootCmdWith(&state{out: stdout, err: stderr})
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}
