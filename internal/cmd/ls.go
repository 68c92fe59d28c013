package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewLsCommand creates the 'fileslice ls' command
func NewLsCommand() *cobra.Command {
	var classify bool

	cmd := &cobra.Command{
		Use:   "ls [fragment]",
		Short: "Move to a path inside the root and list matching entries",
		Long: `Resolve the fragment (absolute, relative to the current position, or
relative to the root), move there and list the entries matching the
configured patterns.

A fragment that cannot be resolved lists nothing and leaves the position
unchanged. A fragment that resolves outside the root fails with an access
denied error.

Examples:
  fileslice --root ./sandbox ls
  fileslice --root ./sandbox ls docs
  fileslice --root ./sandbox --pattern '*.md' ls /abs/path/in/sandbox`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(cmd, args, classify)
		},
	}

	cmd.Flags().BoolVarP(&classify, "classify", "F", false, "Append / to directory names")

	return cmd
}

func runLs(cmd *cobra.Command, args []string, classify bool) error {
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
	printEntries(out, e.cursor.Position(), names, classify, isColorTerminal(out))
	return nil
}

// isColorTerminal reports whether w is a terminal that should get colors.
func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printEntries writes one name per line. Directories are highlighted when
// colorize is set and suffixed with "/" when classify is set.
func printEntries(w io.Writer, dir string, names []string, classify, colorize bool) {
	blue := color.New(color.FgBlue, color.Bold)
	for _, name := range names {
		isDir := false
		if classify || colorize {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
				isDir = info.IsDir()
			}
		}

		label := name
		if isDir && classify {
			label += "/"
		}
		if isDir && colorize {
			blue.Fprintln(w, label)
			continue
		}
		fmt.Fprintln(w, label)
	}
}
