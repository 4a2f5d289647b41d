package ctl

import (
	"github.com/spf13/cobra"

	"querylog/internal/config"
)

// buildRootCmdWith constructs the Cobra command tree wired to the fn* actions.
func buildRootCmdWith(st *state) *cobra.Command {
	def := config.Defaults()
	root := &cobra.Command{
		Use:           "querylogctl",
		Short:         "Drive and inspect the query-log listener bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&st.configPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&st.envFile, "env-file", ".env", "dotenv file loaded before QUERYLOG_* variables are read")
	pf.StringVar(&st.flags.Engine, "engine", def.Engine, "Engine: native|memory (defaults QUERYLOG_ENGINE or native)")
	pf.StringVar(&st.flags.LibraryPath, "library", def.LibraryPath, "Path of the native shared library")
	pf.StringVar(&st.flags.LogLevel, "log-level", def.LogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&st.flags.LogFormat, "log-format", def.LogFormat, "Log format: console|json")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return st.load(cmd.Flags().Changed)
	}

	var sink string
	var strict bool
	replayCmd := &cobra.Command{
		Use:     "replay <fixtures-dir|file>",
		Short:   "Create a listener and deliver every recorded event to it",
		Example: "  querylogctl replay ./fixtures --engine memory --sink events.ndjson",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnReplay(st, args[0], replayOptions{sink: sink, strict: strict})
		},
	}
	replayCmd.Flags().StringVar(&sink, "sink", "", "With --engine memory, write accepted payloads to this file (- for stdout)")
	replayCmd.Flags().BoolVar(&strict, "strict", false, "Fail when any event is not delivered")
	root.AddCommand(replayCmd)

	root.AddCommand(&cobra.Command{
		Use:     "inspect <payload-file|->",
		Short:   "Decode an encoded event payload",
		Example: "  querylogctl inspect payload.json",
		Args:    cobra.ExactArgs(1),
		RunE:    func(cmd *cobra.Command, args []string) error { return fnInspect(st, args[0]) },
	})

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that the native library can be loaded",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return fnCheck(st) },
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics server with a live listener until interrupted",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return fnServe(cmd.Context(), st) },
	}
	serveCmd.Flags().StringVar(&st.flags.Addr, "addr", def.Addr, "HTTP listen address (defaults QUERYLOG_ADDR or :9464)")
	root.AddCommand(serveCmd)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	for _, sh := range []struct {
		use, short string
		gen        func(*cobra.Command) error
	}{
		{"bash", "Bash completion", func(c *cobra.Command) error { return root.GenBashCompletion(c.OutOrStdout()) }},
		{"zsh", "Zsh completion", func(c *cobra.Command) error { return root.GenZshCompletion(c.OutOrStdout()) }},
		{"fish", "Fish completion", func(c *cobra.Command) error { return root.GenFishCompletion(c.OutOrStdout(), true) }},
		{"powershell", "PowerShell completion", func(c *cobra.Command) error { return root.GenPowerShellCompletionWithDesc(c.OutOrStdout()) }},
	} {
		gen := sh.gen
		completionCmd.AddCommand(&cobra.Command{
			Use:   sh.use,
			Short: sh.short,
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return gen(cmd) },
		})
	}
	root.AddCommand(completionCmd)

	return root
}
