package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/confkit/internal/binding"
)

// ---- bind command ----
func newBindCmd(a *app) *cobra.Command {
	var (
		spec binding.Spec
		save bool
	)
	cmd := &cobra.Command{
		Use:   "bind <name>",
		Short: "Bind a file, URL or inline text under a name",
		Long: `Register a named source with the daemon. Exactly one of --path, --url
or --text is required. The format defaults to the file extension (text for
inline sources) and caching defaults to reload.

Caching policies:
  constant   read once, never again
  timestamp  re-read when the source's modification time advances
  reload     read on every request

With --save the binding is also written to the configuration file so the
daemon restores it on restart.`,
		Example: `  confkit bind app --path /etc/app/app.yaml --caching timestamp
  confkit bind remote --url https://example.com/app.properties --caching constant --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			spec.Name = args[0]
			if spec.Path != "" {
				abs, err := filepath.Abs(spec.Path)
				if err != nil {
					return err
				}
				spec.Path = abs
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			id, err := cli.Bind(ctx, spec)
			if err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprint(a.out, "✓ Bound ")
			color.New(color.FgHiGreen, color.Bold).Fprintf(a.out, "%s ", spec.Name)
			color.New(color.FgGreen).Fprintf(a.out, "to %s (id %s)\n", spec.Source(), id)

			if save {
				return a.saveSpec(spec)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&spec.Path, "path", "", "file to bind")
	cmd.Flags().StringVar(&spec.URL, "url", "", "http(s) URL to bind")
	cmd.Flags().StringVar(&spec.Text, "text", "", "inline content to bind")
	cmd.Flags().StringVarP(&spec.Format, "format", "f", "", "json, yaml, properties or text")
	cmd.Flags().StringVarP(&spec.Caching, "caching", "c", "", "constant, timestamp or reload")
	cmd.Flags().StringVarP(&spec.Encoding, "encoding", "e", "", "text encoding, e.g. iso-8859-1")
	cmd.Flags().BoolVar(&save, "save", false, "also store the binding in the configuration file")
	cmd.MarkFlagsMutuallyExclusive("path", "url", "text")
	cmd.MarkFlagsOneRequired("path", "url", "text")
	return cmd
}

func (a *app) saveSpec(spec binding.Spec) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cfg.Upsert(spec)
	if err := a.provider.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved to %s\n", a.provider.Path())
	return nil
}

// ---- unbind command ----
func newUnbindCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:     "unbind <name|id>",
		Short:   "Remove a binding",
		Example: "confkit unbind app --save",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := cli.Unbind(ctx, args[0]); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Fprintf(a.out, "✓ Removed %s\n", args[0])

			if !save {
				return nil
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if !cfg.Remove(args[0]) {
				color.New(color.FgYellow).Fprintf(a.out, "%s is not in %s\n", args[0], a.provider.Path())
				return nil
			}
			return a.provider.Save(cfg)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "also remove the binding from the configuration file")
	return cmd
}

// ---- list command ----
func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bindings",
		Long: `List the daemon's bindings.
Shows the binding ID, name, source, format, caching policy and creation time.`,
		Example: "confkit list",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			infos, err := cli.Bindings(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				color.New(color.FgYellow).Fprintln(a.out, "No bindings found.")
				return nil
			}

			table := newTable(a.out,
				[]string{"ID", "Name", "Source", "Format", "Caching", "Created"},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgGreenColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
			)
			for _, b := range infos {
				table.Append([]string{b.ID, b.Name, b.Source, b.Format, b.Caching, b.CreatedAt.Format(time.RFC3339)})
			}

			color.New(color.Bold).Fprintln(a.out, "BINDINGS:")
			table.Render()
			return nil
		},
	}
}
