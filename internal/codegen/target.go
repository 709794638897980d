// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package codegen

// Target selects which kind of text the fallback generator emits for one
// operation. Every switch over Target must be exhaustive.
type Target int

const (
	// Declaration emits the fallback forward declaration (header).
	Declaration Target = iota
	// Definition emits the fallback function body (source).
	Definition
	// Registration emits the dispatch registration statement, scoped to one
	// dispatch key.
	Registration
)

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t {
	case Declaration:
		return "declaration"
	case Definition:
		return "definition"
	case Registration:
		return "registration"
	}
	return "invalid"
}
