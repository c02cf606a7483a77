package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/grfkit/grfscope/internal/compiler"
	"github.com/grfkit/grfscope/internal/eval"
	"github.com/grfkit/grfscope/internal/ir"
	"github.com/grfkit/grfscope/internal/spritegroup"
	"github.com/grfkit/grfscope/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Callback   uint16
	Param      uint32
	Vars       []string
	RandomBits uint32
	Triggers   uint32
	Database   string
	Record     bool
}

// ResolveResult is the resolve command's success payload.
type ResolveResult struct {
	Name              string `json:"name"`
	Callback          uint16 `json:"callback"`
	Result            uint16 `json:"result"`
	Failed            bool   `json:"failed"`
	ReseedSum         uint32 `json:"reseed_sum"`
	RemainingTriggers uint32 `json:"remaining_triggers"`
	TraceToken        string `json:"trace_token,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <graph.cue>",
		Short: "Resolve one callback query against a graph",
		Long: `Resolve a single callback query against a graph, answering entity
variables from --var bindings.

Bindings take the form VAR=VALUE for any parameter, or
VAR:PARAM=VALUE for one exact parameter; numbers accept 0x prefixes.
Unbound variables are unavailable, which routes the query to the
group's diagnostic child.

With --db and --record, every resolution step is written as a trace
keyed by a fresh token, for later inspection with the trace command.

Examples:
  grfscope resolve graph.cue --callback 0x16 --var 0x47=0x11
  grfscope resolve graph.cue --callback 0x36 --param 0x09 --record --db scope.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint16Var(&opts.Callback, "callback", 0, "callback ID to resolve")
	cmd.Flags().Uint32Var(&opts.Param, "param", 0, "callback parameter")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable binding VAR[:PARAM]=VALUE (repeatable)")
	cmd.Flags().Uint32Var(&opts.RandomBits, "random-bits", 0, "entity random bits")
	cmd.Flags().Uint32Var(&opts.Triggers, "triggers", 0, "waiting re-randomization triggers")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for trace recording")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record a resolution trace (requires --db)")

	return cmd
}

func runResolve(opts *ResolveOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Record && opts.Database == "" {
		_ = formatter.Error(ErrCodeGeneric, "--record requires --db", nil)
		return NewExitError(ExitCommandError, "--record requires --db")
	}

	def, err := compileAndValidate(formatter, path)
	if err != nil {
		return err
	}
	arena, root, err := compiler.Link(def)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "link graph", err)
	}

	scope, err := parseBindings(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse bindings", err)
	}

	roOpts := []eval.ResolverOption{
		eval.WithCallback(spritegroup.CallbackID(opts.Callback), opts.Param),
	}
	var recorder *traceRecorder
	if opts.Record {
		recorder = newTraceRecorder(def)
		roOpts = append(roOpts, eval.WithTracer(recorder))
	}

	ro := eval.NewResolver(arena, scope, roOpts...)
	result := ro.ResolveCallback(root)

	payload := ResolveResult{
		Name:              def.Name,
		Callback:          opts.Callback,
		Result:            result,
		Failed:            result == spritegroup.CallbackFailed,
		ReseedSum:         ro.GetReseedSum(),
		RemainingTriggers: ro.GetRemainingTriggers(),
	}

	if recorder != nil {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer st.Close()

		payload.TraceToken = uuid.NewString()
		if err := st.WriteTrace(cmd.Context(), recorder.events(payload.TraceToken)); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write trace", err)
		}
		formatter.VerboseLog("Recorded %d trace event(s) under token %s",
			len(recorder.steps), payload.TraceToken)
	}

	if formatter.Format == "json" {
		return formatter.JSON(payload)
	}

	if payload.Failed {
		fmt.Fprintf(formatter.Writer, "callback 0x%02X: failed\n", payload.Callback)
	} else {
		fmt.Fprintf(formatter.Writer, "callback 0x%02X: result 0x%X\n", payload.Callback, payload.Result)
	}
	if payload.ReseedSum != 0 {
		fmt.Fprintf(formatter.Writer, "  reseed: 0x%X\n", payload.ReseedSum)
	}
	if payload.RemainingTriggers != 0 {
		fmt.Fprintf(formatter.Writer, "  unconsumed triggers: 0x%X\n", payload.RemainingTriggers)
	}
	if payload.TraceToken != "" {
		fmt.Fprintf(formatter.Writer, "  trace: %s\n", payload.TraceToken)
	}
	return nil
}

// bindingScope answers entity variables from --var flag bindings.
type bindingScope struct {
	eval.EmptyScope

	randomBits uint32
	triggers   uint32
	exact      map[uint64]uint32 // variable<<32 | parameter
	anyParam   map[uint8]uint32
}

func (s *bindingScope) GetVariable(variable uint8, parameter uint32, extra *eval.VariableExtra) uint32 {
	if v, ok := s.exact[uint64(variable)<<32|uint64(parameter)]; ok {
		return v
	}
	if v, ok := s.anyParam[variable]; ok {
		return v
	}
	extra.Available = false
	return eval.VarUnavailable
}

func (s *bindingScope) GetRandomBits() uint32 { return s.randomBits }
func (s *bindingScope) GetTriggers() uint32   { return s.triggers }

func parseBindings(opts *ResolveOptions) (*bindingScope, error) {
	scope := &bindingScope{
		randomBits: opts.RandomBits,
		triggers:   opts.Triggers,
		exact:      make(map[uint64]uint32),
		anyParam:   make(map[uint8]uint32),
	}
	for _, raw := range opts.Vars {
		key, valStr, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("binding %q: want VAR[:PARAM]=VALUE", raw)
		}
		value, err := parseUint(valStr, 32)
		if err != nil {
			return nil, fmt.Errorf("binding %q: value: %w", raw, err)
		}

		varStr, paramStr, hasParam := strings.Cut(key, ":")
		variable, err := parseUint(varStr, 8)
		if err != nil {
			return nil, fmt.Errorf("binding %q: variable: %w", raw, err)
		}
		if !hasParam {
			scope.anyParam[uint8(variable)] = uint32(value)
			continue
		}
		param, err := parseUint(paramStr, 32)
		if err != nil {
			return nil, fmt.Errorf("binding %q: parameter: %w", raw, err)
		}
		scope.exact[variable<<32|param] = uint32(value)
	}
	return scope, nil
}

// parseUint accepts decimal, 0x hex, and 0o octal.
func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 0, bits)
}

// traceRecorder buffers resolution steps and converts group handles
// back to the authored group names.
type traceRecorder struct {
	names []string
	steps []store.TraceEvent
}

// newTraceRecorder builds the handle-to-name table. The linker
// allocates handles in definition order, so the group index is the
// handle.
func newTraceRecorder(def *ir.GraphDef) *traceRecorder {
	names := make([]string, len(def.Groups))
	for i, g := range def.Groups {
		names[i] = g.Name
	}
	return &traceRecorder{names: names}
}

func (r *traceRecorder) nodeName(id spritegroup.GroupID) string {
	if int(id) < len(r.names) {
		return r.names[id]
	}
	return fmt.Sprintf("#%d", uint32(id))
}

func (r *traceRecorder) Enter(id spritegroup.GroupID) {
	r.append(store.TraceEnter, id, 0)
}

func (r *traceRecorder) Branch(id spritegroup.GroupID, value uint32) {
	r.append(store.TraceBranch, id, value)
}

func (r *traceRecorder) Result(id spritegroup.GroupID, result uint16) {
	r.append(store.TraceResult, id, uint32(result))
}

func (r *traceRecorder) append(kind string, id spritegroup.GroupID, value uint32) {
	r.steps = append(r.steps, store.TraceEvent{
		Seq:   int64(len(r.steps)),
		Kind:  kind,
		Node:  r.nodeName(id),
		Value: value,
	})
}

func (r *traceRecorder) events(token string) []store.TraceEvent {
	events := make([]store.TraceEvent, len(r.steps))
	copy(events, r.steps)
	for i := range events {
		events[i].Token = token
	}
	return events
}
