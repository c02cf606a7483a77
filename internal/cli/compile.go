package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grfkit/grfscope/internal/compiler"
	"github.com/grfkit/grfscope/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult is the compile command's success payload.
type CompileResult struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Groups int    `json:"groups"`
	Output string `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph.cue>",
		Short: "Compile a CUE graph to canonical JSON",
		Long: `Compile a CUE graph definition to canonical JSON and print its
content hash.

The canonical form is byte-stable across field order, whitespace, and
Unicode normalization differences in the source, so the hash identifies
the graph's content, not its spelling.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON to file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	def, err := compileAndValidate(formatter, path)
	if err != nil {
		return err
	}

	canonical, err := ir.CanonicalGraph(def)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "canonicalize graph", err)
	}
	hash, err := ir.HashGraph(def)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "hash graph", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0o644); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write output file", err)
		}
		formatter.VerboseLog("Wrote %d canonical bytes to %s", len(canonical), opts.Output)
	}

	result := CompileResult{
		Name:   def.Name,
		Hash:   hash,
		Groups: len(def.Groups),
		Output: opts.Output,
	}
	if formatter.Format == "json" {
		return formatter.JSON(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %q: %d group(s)\n", result.Name, result.Groups)
	fmt.Fprintf(formatter.Writer, "  hash: %s\n", result.Hash)
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "  wrote: %s\n", opts.Output)
	}
	return nil
}

// compileAndValidate loads a graph file and runs schema validation,
// reporting failures through the formatter. Shared by every command
// that starts from a CUE graph.
func compileAndValidate(formatter *OutputFormatter, path string) (*ir.GraphDef, error) {
	def, err := compiler.CompileGraphFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "compile graph", err)
	}
	if errs := compiler.Validate(def); len(errs) > 0 {
		return nil, outputValidationErrors(formatter, errs)
	}
	return def, nil
}
