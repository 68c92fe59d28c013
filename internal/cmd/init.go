package cmd

import (
	"fmt"
	"os"

	"github.com/harrison/fileslice/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the 'fileslice init' command
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a config file with the default settings to the fileslice home
($FILESLICE_HOME, or the nearest .fileslice directory), or to --config.

Values given with --root, --pattern, --log-level and --confine are written
into the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.GetHome()
			if err != nil {
				return fmt.Errorf("failed to locate fileslice home: %w", err)
			}
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigPath(home)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}

			// start from defaults so relative paths stay relative in the file
			cfg := config.DefaultConfig()
			mergeFlags(cmd, cfg)

			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
