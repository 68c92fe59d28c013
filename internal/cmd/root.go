package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for fileslice
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileslice",
		Short: "Sandboxed directory cursor",
		Long: `Fileslice lists files matching wildcard patterns while navigating
relative or absolute paths, without ever leaving a configured root directory.

The cursor position is kept in a session store between invocations, so
consecutive commands behave like one long-lived cursor:

  fileslice --root ./sandbox ls docs
  fileslice --root ./sandbox ls ..      # back at root
  fileslice --root ./sandbox ls ../..   # access denied`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: $FILESLICE_HOME/config.yaml)")
	flags.String("root", "", "Sandbox root directory (overrides config)")
	flags.StringArray("pattern", nil, "Wildcard pattern to list (repeatable, overrides config)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("session", "", "Session ID to resume (default: latest session for the root)")
	flags.Bool("confine", false, "Restrict the process to the root with Landlock (Linux)")

	// Add subcommands
	cmd.AddCommand(NewLsCommand())
	cmd.AddCommand(NewPwdCommand())
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewSessionCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
