// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops models the runtime's native-operator registry: operator names,
// their canonical schemas, and the grouping of functional/in-place/out
// variants that are generated together.
//
// The registry is loaded once from YAML and never mutated afterwards; every
// other package treats it as read-only input.
package ops

import (
	"strings"

	"github.com/pkg/errors"
)

// OperatorName uniquely identifies one operator schema: a base name plus an
// optional overload tag, e.g. "add" or "add.out". It is used as a lookup key
// everywhere and is immutable.
type OperatorName struct {
	Base     string
	Overload string
}

// ParseName parses "base" or "base.overload" into an OperatorName.
func ParseName(name string) (OperatorName, error) {
	if name == "" {
		return OperatorName{}, errors.New("empty operator name")
	}
	base, overload, found := strings.Cut(name, ".")
	if base == "" {
		return OperatorName{}, errors.Errorf("operator name %q has an empty base name", name)
	}
	if found && overload == "" {
		return OperatorName{}, errors.Errorf("operator name %q has an empty overload after '.'", name)
	}
	return OperatorName{Base: base, Overload: overload}, nil
}

// String returns the parseable form of the name.
func (n OperatorName) String() string {
	if n.Overload == "" {
		return n.Base
	}
	return n.Base + "." + n.Overload
}

// Variant is the mutability kind of one operator schema.
type Variant int

const (
	// Functional returns freshly allocated results.
	Functional Variant = iota
	// Inplace mutates its first argument ("add_" naming convention).
	Inplace
	// Out writes into caller-provided output arguments (".out" overload).
	Out
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case Functional:
		return "functional"
	case Inplace:
		return "inplace"
	case Out:
		return "out"
	}
	return "invalid"
}

// VariantOf derives the variant from the operator name, following the
// runtime's naming convention: a trailing "_" on the base name marks an
// in-place op, and an "out" overload (or "_out" suffixed overload) marks an
// out-parameter op.
func VariantOf(name OperatorName) Variant {
	if strings.HasSuffix(name.Base, "_") {
		return Inplace
	}
	if name.Overload == "out" || strings.HasSuffix(name.Overload, "_out") {
		return Out
	}
	return Functional
}

// FunctionSchema is the canonical schema of one operator variant. Args and
// Returns hold the textual argument list and return type exactly as written
// in the registry; this tool treats them as opaque beyond argument names.
type FunctionSchema struct {
	Name    OperatorName
	Args    string
	Returns string
}

// ParseSchema parses a registry signature like
//
//	add.out(Tensor self, Tensor other, *, Tensor(a!) out) -> Tensor(a!)
//
// into its name, argument list, and return type.
func ParseSchema(signature string) (FunctionSchema, error) {
	open := strings.Index(signature, "(")
	if open < 0 {
		return FunctionSchema{}, errors.Errorf("schema %q has no argument list", signature)
	}
	name, err := ParseName(strings.TrimSpace(signature[:open]))
	if err != nil {
		return FunctionSchema{}, errors.WithMessagef(err, "schema %q", signature)
	}
	rest := signature[open+1:]
	closing := matchingParen(rest)
	if closing < 0 {
		return FunctionSchema{}, errors.Errorf("schema %q has an unterminated argument list", signature)
	}
	args := rest[:closing]
	tail := strings.TrimSpace(rest[closing+1:])
	returns, found := strings.CutPrefix(tail, "->")
	if !found {
		return FunctionSchema{}, errors.Errorf("schema %q is missing the '->' return type", signature)
	}
	return FunctionSchema{
		Name:    name,
		Args:    strings.TrimSpace(args),
		Returns: strings.TrimSpace(returns),
	}, nil
}

// matchingParen returns the index of the ')' closing the '(' just before s,
// or -1 if unbalanced.
func matchingParen(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// ArgNames returns the argument names in declaration order, skipping the
// keyword-only marker "*". Default values are stripped.
func (s FunctionSchema) ArgNames() []string {
	var names []string
	for _, arg := range splitTopLevel(s.Args) {
		arg = strings.TrimSpace(arg)
		if arg == "" || arg == "*" {
			continue
		}
		if eq := strings.Index(arg, "="); eq >= 0 {
			arg = arg[:eq]
		}
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[len(fields)-1])
	}
	return names
}

// splitTopLevel splits on commas that are not nested inside (), [] or <>.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// NativeFunction is one operator variant owned by the registry.
type NativeFunction struct {
	Func FunctionSchema
}

// GroupedUnit is one item of the grouped registry sequence: either a
// standalone NativeFunction or a Group of related variants.
type GroupedUnit interface {
	// Functions returns the native functions of this unit in a fixed order.
	Functions() []*NativeFunction
}

// Group clusters the functional/in-place/out variants of one logical
// operator so they are generated together. Functional is always present;
// the other two are optional.
type Group struct {
	Functional *NativeFunction
	Inplace    *NativeFunction
	Out        *NativeFunction
}

// Functions returns the group members in functional, inplace, out order,
// skipping absent variants.
func (g *Group) Functions() []*NativeFunction {
	fns := make([]*NativeFunction, 0, 3)
	for _, f := range []*NativeFunction{g.Functional, g.Inplace, g.Out} {
		if f != nil {
			fns = append(fns, f)
		}
	}
	return fns
}

// Functions implements GroupedUnit for a standalone function.
func (f *NativeFunction) Functions() []*NativeFunction {
	return []*NativeFunction{f}
}
