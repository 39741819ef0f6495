package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chw3k5/mypysql/internal/catalog"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	DatabaseOptions
	Location string
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the attributes that queries can name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, opts)
		},
	}

	opts.DatabaseOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Location, "location", "", "only list attributes stored at this location")
	return cmd
}

func runCatalog(cmd *cobra.Command, opts *CatalogOptions) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.DatabaseOptions)
	if err != nil {
		return formatter.FailWithCode(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	ctx := commandContext(cmd)
	sess, err := openSession(ctx, cfg, &opts.DatabaseOptions)
	if err != nil {
		return formatter.FailWithCode(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.close(ctx)

	entries := filterEntries(sess.engine.Catalog().Entries(), opts.Location)

	return formatter.Render(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No attributes.")
			return err
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			inferred := ""
			if e.Inferred {
				inferred = "inferred"
			}
			rows[i] = []string{e.Attribute, string(e.Location), string(e.Kind), inferred}
		}
		return writeGrid(w, []string{"attribute", "location", "kind", "note"}, rows)
	})
}

func filterEntries(entries []catalog.Entry, location string) []catalog.Entry {
	if location == "" {
		return entries
	}
	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(string(e.Location), location) {
			out = append(out, e)
		}
	}
	return out
}
