package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/fileslice/internal/session"
	"github.com/spf13/cobra"
)

// NewSessionCommand creates the 'fileslice session' parent command
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage saved cursor sessions",
		Long: `Commands for the session store.

Every cursor command loads the latest session for its root (or the one
named by --session) and saves the new position when it finishes.`,
	}

	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionDeleteCommand())

	return cmd
}

func newSessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
}

// printSessions formats the session table
func printSessions(w io.Writer, sessions []*session.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	for _, s := range sessions {
		cyan.Fprintf(w, "%s\n", s.ID)
		fmt.Fprintf(w, "  Root:     %s\n", s.Root)
		fmt.Fprintf(w, "  Position: %s\n", s.Position)
		fmt.Fprintf(w, "  Patterns: %s\n", strings.Join(s.Patterns, " "))
		fmt.Fprintf(w, "  Updated:  %s ", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		gray.Fprintf(w, "(%s ago)\n", formatAge(time.Since(s.UpdatedAt)))
	}
}

// formatAge formats a duration in a human-readable way
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func newSessionDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()
			id := args[0]

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.Get(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to load session %s: %w", id, err)
			}

			if !yes {
				fmt.Fprintf(output, "Delete session %s?\n", id)
				if !confirmAction(cmd.InOrStdin(), output) {
					fmt.Fprintln(output, "Operation cancelled.")
					return nil
				}
			}

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(output, "Deleted session %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmAction prompts for y/N confirmation
func confirmAction(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Are you sure? (y/N): ")
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
