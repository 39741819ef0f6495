package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chw3k5/mypysql/internal/engine"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DatabaseOptions
	XLSX string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query and print the folded records",
		Long: `Run a query against the fact database and print one record per key.

Text output is a table on a terminal and tab-separated lines otherwise.
Use --format json or --format yaml for machine-readable output.`,
		Example: `  spexq query 'table,2,teff,dist,and||teff|>|4000|'
  spexq query --xlsx stars.xlsx 'table,2,teff,dist'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	opts.DatabaseOptions.register(cmd)
	cmd.Flags().StringVar(&opts.XLSX, "xlsx", "", "also write the records to an Excel workbook")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, query string) error {
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

	res, err := sess.engine.Query(ctx, query)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, "query failed", err)
	}
	formatter.VerboseLog("%d records keyed on %s (staged: %t)", len(res.Records), res.Key, res.Staged)

	if opts.XLSX != "" {
		if err := writeXLSX(opts.XLSX, res); err != nil {
			return formatter.FailWithCode(ExitFailure, ErrCodeWriteFailed, "failed to write workbook", err)
		}
		formatter.VerboseLog("wrote %s", opts.XLSX)
	}

	return formatter.Render(res, func(w io.Writer) error {
		return renderResult(w, res)
	})
}

func renderResult(w io.Writer, res *engine.Result) error {
	if len(res.Records) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}
	return writeGrid(w, res.Columns, recordRows(res.Records))
}

// newFormatter builds the formatter for a command's output streams.
func newFormatter(cmd *cobra.Command, root *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    root.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   root.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
