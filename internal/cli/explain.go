package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chw3k5/mypysql/internal/engine"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	DatabaseOptions
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show the SQL a query would run, without running it",
		Long: `Plan a query and print its stages, result columns and fingerprint.

The catalog is still read from the database so that attribute names resolve,
but no query is executed and nothing is staged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts, args[0])
		},
	}

	opts.DatabaseOptions.register(cmd)
	return cmd
}

func runExplain(cmd *cobra.Command, opts *ExplainOptions, query string) error {
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

	exp, err := sess.engine.Explain(query)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, "explain failed", err)
	}

	return formatter.Render(exp, func(w io.Writer) error {
		return renderExplanation(w, exp)
	})
}

func renderExplanation(w io.Writer, exp *engine.Explanation) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Shape:       %s\n", exp.Shape)
	fmt.Fprintf(&sb, "Key:         %s\n", exp.Key)
	fmt.Fprintf(&sb, "Attributes:  %s\n", strings.Join(exp.Attributes, ", "))
	if exp.Conditions != "" {
		fmt.Fprintf(&sb, "Conditions:  %s\n", exp.Conditions)
	}
	fmt.Fprintf(&sb, "Columns:     %s\n", strings.Join(exp.Columns, ", "))
	fmt.Fprintf(&sb, "Fingerprint: %s\n", exp.Fingerprint)

	for i, stage := range exp.Stages {
		fmt.Fprintf(&sb, "\nStage %d:\n%s\n", i+1, stage.Inline)
		fmt.Fprintf(&sb, "\nStage %d (parameterized):\n%s\n", i+1, stage.SQL)
		if len(stage.Args) > 0 {
			fmt.Fprintf(&sb, "Args: %v\n", stage.Args)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
