package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lc/confkit/internal/config"
	"github.com/lc/confkit/internal/filesys"
)

// ---- init command ----
func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to $CONFKIT_CONFIG, --config or
~/.confkit/config.yaml. An existing file is only replaced after confirmation
or with --force.`,
		Example: "confkit init --config /etc/confkit/config.yaml",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			provider := config.New()
			if a.configPath != "" {
				provider = config.NewWithPath(a.fs, filesys.Expand(a.configPath))
			}

			exists, err := afero.Exists(a.fs, provider.Path())
			if err != nil {
				return err
			}
			if exists && !force {
				color.New(color.FgHiRed, color.Bold).Fprint(a.out, "WARNING: ")
				color.New(color.FgYellow).Fprintf(a.out, "%s already exists and will be overwritten.\n", provider.Path())
				color.New(color.FgHiWhite).Fprint(a.out, "Are you sure you want to proceed? (y/yes/n/no): ")

				response, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && response == "" {
					return fmt.Errorf("failed to read input: %w", err)
				}
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "y" && response != "yes" {
					return fmt.Errorf("operation aborted")
				}
			}

			if err := provider.Save(config.Default()); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Fprintf(a.out, "✓ Wrote %s\n", provider.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}
