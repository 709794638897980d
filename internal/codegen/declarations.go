// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package codegen computes the generated artifact texts: the backend's
// kernel forward declarations, and the fallback declarations, definitions,
// and registrations for operations the backend does not cover.
//
// All output is deterministic: iteration follows registry order, and every
// union of per-index results goes through an insertion-ordered set, so two
// runs over the same inputs produce byte-identical text.
package codegen

import (
	"fmt"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/sets"
)

// NativeFunctionDeclarations returns the forward declarations of the unit's
// functions that the index covers, one per covered function, in the unit's
// fixed variant order.
func NativeFunctionDeclarations(unit ops.GroupedUnit, idx *dispatch.BackendIndex) []string {
	var decls []string
	for _, f := range unit.Functions() {
		m, found := idx.Metadata(f.Func.Name)
		if !found {
			continue
		}
		if m.Structured {
			// The external-kernel policy never sets structured; reaching
			// here means the index was built outside that policy.
			exceptions.Panicf("structured external kernels are not supported (operator %q, dispatch key %q)",
				f.Func.Name, idx.Key)
		}
		prefix := "TORCH_API"
		if m.External {
			prefix = "static"
		}
		decls = append(decls, fmt.Sprintf("%s %s %s(%s);", prefix, f.Func.Returns, m.Kernel, f.Func.Args))
	}
	return decls
}

// Declarations computes the backend declaration list for the whole registry:
// units in registry order, and within each unit the union of the plain and
// autograd indices' declarations. A backend implementing the same operator
// under both keys declares the same kernel twice; the union keeps one copy.
func Declarations(reg *ops.Registry, indices ...*dispatch.BackendIndex) []string {
	var out []string
	for _, unit := range reg.Units {
		perUnit := sets.MakeOrdered[string]()
		for _, idx := range indices {
			perUnit.Insert(NativeFunctionDeclarations(unit, idx)...)
		}
		out = append(out, perUnit.Slice()...)
	}
	return out
}
