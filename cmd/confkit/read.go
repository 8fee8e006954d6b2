package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

// ---- get command ----
func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <name>",
		Short:   "Print the text of a binding",
		Example: "confkit get app",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			resp, err := cli.Text(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.out, resp.Text)
			return err
		},
	}
}

// ---- doc command ----
func newDocCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doc <name>",
		Short: "Print the flattened document of a binding",
		Long: `Parse a JSON, YAML or properties binding and print one row per leaf value.
Nested keys are joined with dots and array elements are written as [i].`,
		Example: "confkit doc app --json",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			resp, err := cli.Document(ctx, args[0])
			if err != nil {
				return err
			}
			return printEntries(a.out, resp.Entries, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as a JSON object")
	return cmd
}

// ---- show command ----
func newShowCmd(a *app) *cobra.Command {
	var (
		format   string
		encoding string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Parse a local file without the daemon",
		Long: `Parse a local JSON, YAML or properties file and print its flattened
entries. Text files are printed as they are. The format is taken from the
file extension unless --format is given.`,
		Example: `  confkit show ./app.json
  confkit show ./legacy.properties --encoding iso-8859-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.show(args[0], format, encoding, asJSON)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml, properties or text")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "text encoding, e.g. iso-8859-1")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as a JSON object")
	return cmd
}

func (a *app) show(path, format, encoding string, asJSON bool) error {
	var (
		ct  content.ContentType
		err error
	)
	if format != "" {
		ct, err = content.ByName(format)
	} else {
		ct, err = content.ByExtension(path)
	}
	if err != nil {
		return err
	}

	var opts []resource.Option
	if encoding != "" {
		opts = append(opts, resource.WithEncoding(encoding))
	}
	res, err := resource.NewFile(a.fs, path, opts...)
	if err != nil {
		return err
	}

	doc, ok := ct.(content.DocumentType)
	if !ok {
		text, err := content.As[string](ct, res)
		if err != nil {
			return err
		}
		_, err = io.WriteString(a.out, text)
		return err
	}

	root, err := doc.Document(res)
	if err != nil {
		return err
	}
	return printEntries(a.out, root.Flatten(), asJSON)
}

func printEntries(w io.Writer, entries map[string]string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(w, "Document is empty.")
		return nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := newTable(w, []string{"Key", "Value"},
		tablewriter.Colors{tablewriter.FgGreenColor},
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
	)
	for _, k := range keys {
		key := k
		if key == "" {
			key = "<root>"
		}
		table.Append([]string{key, entries[k]})
	}
	table.Render()
	fmt.Fprintf(w, "%d entries\n", len(keys))
	return nil
}
