package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grfkit/grfscope/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceResult is the trace command's success payload.
type TraceResult struct {
	Token  string             `json:"token"`
	Events []store.TraceEvent `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <token>",
		Short: "Show a recorded resolution trace",
		Long: `Show the resolution trace recorded under a query token: every group
entered, every dispatch decision with its accumulator value, and the
terminal result.

Tokens are printed by resolve --record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database holding recorded traces")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, token string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	events, err := st.ReadTrace(cmd.Context(), token)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read trace", err)
	}
	if len(events) == 0 {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("no trace recorded under token %s", token), nil)
		return NewExitError(ExitCommandError, "unknown trace token")
	}

	if formatter.Format == "json" {
		return formatter.JSON(TraceResult{Token: token, Events: events})
	}

	fmt.Fprintf(formatter.Writer, "Trace %s (%d events)\n", token, len(events))
	for _, ev := range events {
		switch ev.Kind {
		case store.TraceEnter:
			fmt.Fprintf(formatter.Writer, "  %3d  enter   %s\n", ev.Seq, ev.Node)
		case store.TraceBranch:
			fmt.Fprintf(formatter.Writer, "  %3d  branch  %s value=0x%X\n", ev.Seq, ev.Node, ev.Value)
		case store.TraceResult:
			fmt.Fprintf(formatter.Writer, "  %3d  result  %s result=0x%X\n", ev.Seq, ev.Node, ev.Value)
		default:
			fmt.Fprintf(formatter.Writer, "  %3d  %s %s value=0x%X\n", ev.Seq, ev.Kind, ev.Node, ev.Value)
		}
	}
	return nil
}
