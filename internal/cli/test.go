package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chw3k5/mypysql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run query scenarios",
		Long: `Run YAML query scenarios against fresh in-memory databases.

<scenarios> is a scenario file or a directory searched for .yaml and .yml
files. Each scenario loads its dataset, runs its queries and checks its
expectations and assertions.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)`,
		Example: `  spexq test ./testdata/scenarios
  spexq test ./testdata/scenarios --filter "two_*"
  spexq test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	paths, err := harness.FindScenarios(dir, opts.Filter)
	if err != nil {
		return formatter.FailWithCode(ExitCommandError, ErrCodeGeneric, "failed to find scenarios", err)
	}

	result, err := harness.RunSuite(commandContext(cmd), paths)
	if err != nil {
		return formatter.FailWithCode(ExitFailure, ErrCodeGeneric, "scenario run interrupted", err)
	}

	if err := formatter.Render(result, func(w io.Writer) error {
		return writeSuiteText(w, result)
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
		exitErr.Reported = true
		return exitErr
	}
	return nil
}

func writeSuiteText(w io.Writer, result *harness.SuiteResult) error {
	if result.Total == 0 {
		_, err := fmt.Fprintln(w, "No scenarios found.")
		return err
	}
	for _, s := range result.Scenarios {
		mark := "PASS"
		if !s.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%s %s\n", mark, s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	return err
}
