// Command `confkit` is the end-user CLI for confkit.
//
// It talks to the confkitd daemon to manage named configuration bindings and
// read them, and can also parse a local file without a daemon.
//
// Usage:
//
//	confkit bind <name> --path <file>     - Bind a file (format from extension)
//	confkit bind <name> --url <url>       - Bind an HTTP resource
//	confkit unbind <name|id>              - Remove a binding
//	confkit list                          - List bindings
//	confkit get <name>                    - Print the text of a binding
//	confkit doc <name>                    - Print the flattened document of a binding
//	confkit show <file>                   - Parse a local file, no daemon needed
//	confkit init                          - Write a default configuration file
//	confkit status                        - Show daemon status
//	confkit version                       - Show version information
//
// Examples:
//
//	confkit bind app --path /etc/app/app.yaml --caching timestamp --save
//	confkit doc app
//	confkit show ./application.properties --encoding iso-8859-1
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lc/confkit/internal/buildinfo"
	"github.com/lc/confkit/internal/config"
	"github.com/lc/confkit/internal/filesys"
	"github.com/lc/confkit/internal/socket"
	"github.com/lc/confkit/pkg/client"
)

// app carries what the commands share. Configuration is loaded lazily so
// that init and show work without a valid configuration file.
type app struct {
	configPath string
	fs         afero.Fs
	out        io.Writer
	in         io.Reader

	provider config.Provider
	cfg      *config.Config
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	if a.provider == nil {
		if a.configPath != "" {
			a.provider = config.NewWithPath(a.fs, filesys.Expand(a.configPath))
		} else {
			a.provider = config.New()
		}
	}
	cfg, err := a.provider.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) client() (*client.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Socket.Path, client.WithStartupTimeout(time.Second)), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "confkit",
		Short: "confkit configuration CLI",
		Long: `confkit reads configuration from files, URLs and inline text in JSON,
YAML, properties and plain text formats. The confkitd daemon keeps named
bindings and serves their content over a Unix socket.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default $CONFKIT_CONFIG or ~/.confkit/config.yaml)")
	root.SetOut(a.out)

	root.AddCommand(
		newBindCmd(a),
		newUnbindCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newDocCmd(a),
		newShowCmd(a),
		newInitCmd(a),
		newStatusCmd(a),
		newVersionCmd(a),
	)
	return root
}

// ---- version command ----
func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the confkit CLI and, when reachable, the daemon.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "version: %s\n", buildinfo.Version)
			fmt.Fprintf(a.out, "commit: %s\n", buildinfo.Commit)

			cli, err := a.client()
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if st, err := cli.Status(ctx); err == nil {
				fmt.Fprintf(a.out, "daemon: %s (%s)\n", st.Version, st.Commit)
			}
		},
	}
}

// ---- status command ----
func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Example: "confkit status",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			st, err := cli.Status(ctx)
			if err != nil {
				if pid, ok := socket.FindProcess(socket.DaemonName); ok {
					color.New(color.FgYellow).Fprintf(a.out, "%s is running (pid %d) but not answering on %s\n",
						socket.DaemonName, pid, a.cfg.Socket.Path)
				}
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprint(a.out, "✓ confkitd is running\n")
			fmt.Fprintf(a.out, "version:  %s (%s)\n", st.Version, st.Commit)
			fmt.Fprintf(a.out, "uptime:   %s\n", st.Uptime.Round(time.Second))
			fmt.Fprintf(a.out, "bindings: %d\n", st.Bindings)
			return nil
		},
	}
}

func main() {
	a := &app{fs: filesys.OS(), out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
