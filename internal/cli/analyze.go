package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grfkit/grfscope/internal/analyzer"
	"github.com/grfkit/grfscope/internal/compiler"
	"github.com/grfkit/grfscope/internal/ir"
	"github.com/grfkit/grfscope/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Database string
}

// AnalyzeResult is the analyze command's success payload.
type AnalyzeResult struct {
	Name           string  `json:"name"`
	Hash           string  `json:"hash"`
	Cached         bool    `json:"cached"`
	Flags          string  `json:"flags"`
	CallbacksUsed  uint64  `json:"callbacks_used"`
	CB36Properties uint64  `json:"cb36_properties"`
	CBResult       uint16  `json:"cb_result"`
	AnimOffsets    []uint8 `json:"anim_offsets,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <graph.cue>",
		Short: "Report which callbacks a graph can serve",
		Long: `Statically analyze a graph: which callbacks it dispatches on, which
modify-property indices it serves, and whether it uses random triggers.

With --db, results are cached by graph content hash. A graph whose
canonical form is unchanged is answered from the cache.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for the analysis cache")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	def, err := compileAndValidate(formatter, path)
	if err != nil {
		return err
	}
	hash, err := ir.HashGraph(def)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "hash graph", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer st.Close()
	}

	ctx := cmd.Context()
	var res *analyzer.Result
	cached := false
	if st != nil {
		res, cached, err = st.ReadAnalysis(ctx, hash)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read analysis cache", err)
		}
	}
	if !cached {
		arena, root, err := compiler.Link(def)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "link graph", err)
		}
		res = analyzer.AnalyseCallbacks(arena, root)
		if st != nil {
			if err := st.WriteAnalysis(ctx, hash, res); err != nil {
				_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitCommandError, "write analysis cache", err)
			}
			formatter.VerboseLog("Cached analysis for %s", hash)
		}
	} else {
		formatter.VerboseLog("Analysis cache hit for %s", hash)
	}

	result := AnalyzeResult{
		Name:           def.Name,
		Hash:           hash,
		Cached:         cached,
		Flags:          res.Flags.String(),
		CallbacksUsed:  res.CallbacksUsed,
		CB36Properties: res.CB36Properties,
		CBResult:       res.CBResult,
		AnimOffsets:    res.AnimOffsets,
	}
	if formatter.Format == "json" {
		return formatter.JSON(result)
	}

	fmt.Fprintf(formatter.Writer, "Graph %q (%s)\n", result.Name, shortHash(result.Hash))
	if cached {
		fmt.Fprintln(formatter.Writer, "  (from cache)")
	}
	fmt.Fprintf(formatter.Writer, "  flags: %s\n", result.Flags)
	fmt.Fprintf(formatter.Writer, "  callbacks: %s\n", formatBitset(res.CallbacksUsed))
	if res.Flags.Has(analyzer.UsageModifyProperty) {
		fmt.Fprintf(formatter.Writer, "  cb36 properties: %s\n", formatBitset(res.CB36Properties))
	}
	if res.Flags.Has(analyzer.UsageFoundCBResult) {
		fmt.Fprintf(formatter.Writer, "  constant result: 0x%X\n", res.CBResult)
	}
	if len(res.AnimOffsets) > 0 {
		fmt.Fprintf(formatter.Writer, "  anim offsets: %v\n", res.AnimOffsets)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// formatBitset renders a 64-bit member mask as hex member IDs.
func formatBitset(mask uint64) string {
	if mask == 0 {
		return "none"
	}
	s := ""
	for bit := 0; bit < 64; bit++ {
		if mask&(1<<uint(bit)) == 0 {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("0x%02X", bit)
	}
	return s
}
