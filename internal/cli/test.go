package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grfkit/grfscope/internal/harness"
)

// TestResult is the test command's payload for one scenario file.
type TestResult struct {
	Scenario string                 `json:"scenario"`
	Pass     bool                   `json:"pass"`
	Outcomes []harness.QueryOutcome `json:"outcomes"`
	Errors   []string               `json:"errors,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run YAML conformance scenarios",
		Long: `Run one or more YAML scenario files: each compiles its graph and
resolves its queries, checking expected results and reseed masks.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	results := make([]TestResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res, err := harness.RunFile(path)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run scenario", err)
		}
		if !res.Pass {
			failed++
		}
		results = append(results, TestResult{
			Scenario: path,
			Pass:     res.Pass,
			Outcomes: res.Outcomes,
			Errors:   res.Errors,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(results); err != nil {
			return err
		}
		if failed > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
		}
		return nil
	}

	for _, r := range results {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s (%d queries)\n", mark, r.Scenario, len(r.Outcomes))
		for _, msg := range r.Errors {
			fmt.Fprintf(formatter.Writer, "    %s\n", msg)
		}
	}
	fmt.Fprintf(formatter.Writer, "%d passed, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}
