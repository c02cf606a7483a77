package compiler

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/grfkit/grfscope/internal/ir"
	"github.com/grfkit/grfscope/internal/spritegroup"
)

// Validation error codes (E100-E199). The evaluator assumes a graph
// that passed validation and performs none of these checks at runtime.
const (
	ErrGraphNameEmpty   = "E100" // graph name is required
	ErrGraphNoRoot      = "E101" // root missing or undefined
	ErrGroupNameEmpty   = "E102" // group name is required
	ErrDuplicateGroup   = "E103" // duplicate group name
	ErrUnknownKind      = "E104" // unknown kind mnemonic
	ErrUnknownMnemonic  = "E105" // unknown scope/size/op/type/cmp_mode
	ErrDanglingRef      = "E106" // reference to undefined group
	ErrEmptyRealGroup   = "E107" // real group with no sprite sets
	ErrBadRandomFanout  = "E108" // randomized fanout not a power of two
	ErrBadRange         = "E109" // range low above high
	ErrBadResult        = "E110" // callback result out of 16-bit range
	ErrBadFieldValue    = "E111" // field value out of range for its width
	ErrUnresolvableJump = "E112" // jump without skip or end-block marker
	ErrMissingSub       = "E113" // procedure adjust without subroutine
)

// ValidationError is one schema violation found in a graph definition.
type ValidationError struct {
	Group   string `json:"group,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("[%s] group %q: %s: %s", e.Code, e.Group, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a graph definition against the schema rules. All
// violations are collected rather than failing fast.
func Validate(def *ir.GraphDef) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field: "name", Message: "graph name is required", Code: ErrGraphNameEmpty,
		})
	}

	names := make(map[string]bool, len(def.Groups))
	for _, g := range def.Groups {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, ValidationError{
				Field: "name", Message: "group name is required", Code: ErrGroupNameEmpty,
			})
			continue
		}
		if names[g.Name] {
			errs = append(errs, ValidationError{
				Group: g.Name, Field: "name",
				Message: "duplicate group name", Code: ErrDuplicateGroup,
			})
		}
		names[g.Name] = true
	}

	if def.Root == "" || !names[def.Root] {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: fmt.Sprintf("root %q is not a defined group", def.Root),
			Code:    ErrGraphNoRoot,
		})
	}

	for i := range def.Groups {
		errs = append(errs, validateGroup(&def.Groups[i], names)...)
	}

	return errs
}

func validateGroup(g *ir.GroupDef, names map[string]bool) []ValidationError {
	var errs []ValidationError

	fail := func(field, message, code string) {
		errs = append(errs, ValidationError{Group: g.Name, Field: field, Message: message, Code: code})
	}
	ref := func(field, name string) {
		if name != "" && !names[name] {
			fail(field, fmt.Sprintf("references undefined group %q", name), ErrDanglingRef)
		}
	}

	kind, err := ir.ParseKind(g.Kind)
	if err != nil {
		fail("kind", err.Error(), ErrUnknownKind)
		return errs
	}

	switch kind {
	case spritegroup.KindReal:
		if len(g.Loaded) == 0 && len(g.Loading) == 0 {
			fail("loaded", "real group needs at least one sprite set", ErrEmptyRealGroup)
		}
		for _, name := range g.Loaded {
			ref("loaded", name)
		}
		for _, name := range g.Loading {
			ref("loading", name)
		}

	case spritegroup.KindDeterministic:
		errs = append(errs, validateDeterministic(g, names)...)

	case spritegroup.KindRandomized:
		if _, err := ir.ParseScope(g.Scope); err != nil {
			fail("scope", err.Error(), ErrUnknownMnemonic)
		}
		if _, err := ir.ParseCmpMode(g.CmpMode); err != nil {
			fail("cmp_mode", err.Error(), ErrUnknownMnemonic)
		}
		if n := len(g.Groups); n == 0 || bits.OnesCount(uint(n)) != 1 {
			fail("groups", fmt.Sprintf("fanout %d is not a power of two", n), ErrBadRandomFanout)
		}
		if g.Triggers < 0 || g.Triggers > 0xFF {
			fail("triggers", "trigger mask must fit a byte", ErrBadFieldValue)
		}
		if g.LowestRandbit < 0 || g.LowestRandbit > 31 {
			fail("lowest_randbit", "randbit index must be below 32", ErrBadFieldValue)
		}
		for _, name := range g.Groups {
			ref("groups", name)
		}

	case spritegroup.KindCallbackResult:
		if g.Result < 0 || g.Result > 0xFFFF {
			fail("result", "callback result must fit 16 bits", ErrBadResult)
		}

	case spritegroup.KindResult:
		if g.NumSprites < 0 || g.NumSprites > 0xFF {
			fail("num_sprites", "sprite count must fit a byte", ErrBadFieldValue)
		}
		if g.FirstSprite < 0 || g.FirstSprite > 0xFFFFFFFF {
			fail("first_sprite", "sprite index must fit 32 bits", ErrBadFieldValue)
		}
	}

	return errs
}

func validateDeterministic(g *ir.GroupDef, names map[string]bool) []ValidationError {
	var errs []ValidationError

	fail := func(field, message, code string) {
		errs = append(errs, ValidationError{Group: g.Name, Field: field, Message: message, Code: code})
	}

	if _, err := ir.ParseScope(g.Scope); err != nil {
		fail("scope", err.Error(), ErrUnknownMnemonic)
	}
	if _, err := ir.ParseSize(g.Size); err != nil {
		fail("size", err.Error(), ErrUnknownMnemonic)
	}
	if g.Relative < 0 || g.Relative > 0xFFFF {
		fail("relative", "relative encoding must fit 16 bits", ErrBadFieldValue)
	}

	for i := range g.Adjusts {
		adj := &g.Adjusts[i]
		field := fmt.Sprintf("adjusts[%d]", i)

		op, err := ir.ParseOp(adj.Op)
		if err != nil {
			fail(field, err.Error(), ErrUnknownMnemonic)
			continue
		}
		if _, err := ir.ParseAdjustType(adj.Type); err != nil {
			fail(field, err.Error(), ErrUnknownMnemonic)
		}
		if adj.Variable < 0 || adj.Variable > 0xFF {
			fail(field, "variable must fit a byte", ErrBadFieldValue)
		}
		if adj.Shift < 0 || adj.Shift > 31 {
			fail(field, "shift must be below 32", ErrBadFieldValue)
		}
		if adj.AndMask < 0 || adj.AndMask > 0xFFFFFFFF {
			fail(field, "and_mask must fit 32 bits", ErrBadFieldValue)
		}

		if adj.Variable == int64(spritegroup.VarProcedure) {
			if adj.Subroutine == "" {
				fail(field, "procedure read needs a subroutine", ErrMissingSub)
			} else if !names[adj.Subroutine] {
				fail(field, fmt.Sprintf("references undefined group %q", adj.Subroutine), ErrDanglingRef)
			}
		}

		if op.IsJump() && adj.Skip == 0 && !hasEndBlockAfter(g.Adjusts, i) {
			fail(field, "jump has no skip count and no later end-block marker", ErrUnresolvableJump)
		}
	}

	for i, r := range g.Ranges {
		field := fmt.Sprintf("ranges[%d]", i)
		if r.Low > r.High {
			fail(field, fmt.Sprintf("low %d above high %d", r.Low, r.High), ErrBadRange)
		}
		if r.Group != "" && !names[r.Group] {
			fail(field, fmt.Sprintf("references undefined group %q", r.Group), ErrDanglingRef)
		}
	}

	if g.Default != "" && !names[g.Default] {
		fail("default", fmt.Sprintf("references undefined group %q", g.Default), ErrDanglingRef)
	}
	if g.Error != "" && !names[g.Error] {
		fail("error", fmt.Sprintf("references undefined group %q", g.Error), ErrDanglingRef)
	}

	return errs
}

func hasEndBlockAfter(adjusts []ir.AdjustDef, i int) bool {
	for j := i + 1; j < len(adjusts); j++ {
		if adjusts[j].EndBlock {
			return true
		}
	}
	return false
}
