package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the 'fileslice reset' command
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Move the position back to the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			e.cursor.Reset()
			if err := e.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.cursor.Position())
			return nil
		},
	}
}
