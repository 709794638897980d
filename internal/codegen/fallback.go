// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/ops/naming"
)

// Fallbacks returns the fallback text of the given target for every
// operation the index does not cover, in registry order. An operation the
// index covers never appears: the backend's own kernel handles it.
//
// The fallback delegates dispatch to the runtime's default implementation,
// so calling an uncovered operator on this backend still succeeds instead of
// failing at dispatch time.
func Fallbacks(target Target, reg *ops.Registry, idx *dispatch.BackendIndex) []string {
	var out []string
	for _, unit := range reg.Units {
		for _, f := range unit.Functions() {
			if idx.Covers(f.Func.Name) {
				continue
			}
			out = append(out, fallbackFor(target, f))
		}
	}
	return out
}

// fallbackFor emits one fallback artifact for one uncovered function. The
// text does not depend on which index required the fallback: the dispatch-key
// scoping of registrations comes from the template block they are placed in,
// and declarations/definitions are shared across keys (which is what makes
// the cross-index union collapse them).
func fallbackFor(target Target, f *ops.NativeFunction) string {
	kernel := naming.Kernel(f.Func)
	switch target {
	case Declaration:
		return fmt.Sprintf("static %s %s(%s);", f.Func.Returns, kernel, f.Func.Args)
	case Definition:
		return fmt.Sprintf("%s fallback::%s(%s) {\n  return at::native::%s(%s);\n}",
			f.Func.Returns, kernel, f.Func.Args, kernel, strings.Join(f.Func.ArgNames(), ", "))
	case Registration:
		return fmt.Sprintf("m.impl(%q, &fallback::%s);", f.Func.Name.String(), kernel)
	}
	exceptions.Panicf("invalid fallback target %d", target)
	return "" // Unreachable.
}
