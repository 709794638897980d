// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package naming maps an operator schema to the kernel symbol a backend must
// define for it, following the runtime's dispatcher calling convention.
//
// The mapping is a pure function of the schema: same schema in, same symbol
// out, on every run.
package naming

import (
	"github.com/gomlx/stubgen/internal/ops"
)

// Kernel returns the kernel symbol name for the given schema: the base name,
// with the overload tag appended as "_<overload>". The "." of the overload
// notation never appears in a symbol.
//
// Examples: "add" → "add", "add_" → "add_", "add.out" → "add_out",
// "mul.Scalar" → "mul_Scalar".
func Kernel(schema ops.FunctionSchema) string {
	name := schema.Name
	if name.Overload == "" {
		return name.Base
	}
	return name.Base + "_" + name.Overload
}
