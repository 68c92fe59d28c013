package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewPwdCommand creates the 'fileslice pwd' command
func NewPwdCommand() *cobra.Command {
	var relative bool

	cmd := &cobra.Command{
		Use:   "pwd",
		Short: "Print the current position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			pos := e.cursor.Position()
			if relative {
				rel, err := filepath.Rel(e.cursor.Root(), pos)
				if err != nil {
					return fmt.Errorf("relativize position: %w", err)
				}
				pos = rel
			}
			fmt.Fprintln(cmd.OutOrStdout(), pos)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&relative, "relative", "r", false, "Print the position relative to the root")

	return cmd
}
