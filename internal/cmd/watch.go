package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/harrison/fileslice/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the 'fileslice watch' command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [fragment]",
		Short: "List a position and re-list it whenever its entries change",
		Long: `Resolve the fragment like 'ls', print the listing, then keep printing a
fresh listing each time a matching entry is created, written or removed.
Stops on interrupt, or when the position directory disappears.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	fragment := ""
	if len(args) == 1 {
		fragment = args[0]
	}

	names, err := e.cursor.List(fragment)
	if err != nil {
		return err
	}
	if err := e.save(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := isColorTerminal(out)
	printEntries(out, e.cursor.Position(), names, false, colorize)

	pos := e.cursor.Position()
	if info, err := os.Stat(pos); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", pos)
	}

	w, err := watch.New(pos, e.cursor.Patterns())
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", pos, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchLoop(ctx, e, w, out, colorize)
}

// watchLoop re-lists the watched position on every change until ctx is done.
func watchLoop(ctx context.Context, e *env, w *watch.Watcher, out io.Writer, colorize bool) error {
	header := color.New(color.FgHiBlack)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			e.log.LogWarn(fmt.Sprintf("Watcher error: %v", err))
		case change := <-w.Changes():
			e.log.LogDebug(fmt.Sprintf("%d entries changed in %s", len(change.Paths), change.Dir))

			names, err := e.cursor.List("")
			if err != nil {
				return err
			}
			if e.cursor.Position() != w.Dir() {
				e.log.LogWarn(fmt.Sprintf("%s is gone, position moved to %s", w.Dir(), e.cursor.Position()))
				return e.save(ctx)
			}
			if change.Gone {
				// replaced before the relist, but the old watch is dead
				e.log.LogWarn(fmt.Sprintf("%s was replaced, stopped watching", w.Dir()))
				return e.save(ctx)
			}

			header.Fprintf(out, "--- %s ---\n", change.Timestamp.Format("15:04:05"))
			printEntries(out, e.cursor.Position(), names, false, colorize)
		}
	}
}
