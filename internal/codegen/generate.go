// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"strings"

	"k8s.io/klog/v2"

	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/manifest"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/sets"
	"github.com/gomlx/stubgen/internal/templates"
)

// Artifact is one generated output: a template filename plus its
// substitution environment.
type Artifact struct {
	Filename string
	Env      map[string]any
}

// Artifacts are the three outputs of one generation run.
type Artifacts struct {
	// DeclarationHeader declares the kernels the backend implements.
	DeclarationHeader Artifact
	// FallbackHeader declares the fallbacks for everything it does not.
	FallbackHeader Artifact
	// FallbackSource defines the fallbacks and registers them per dispatch
	// key.
	FallbackSource Artifact
}

// All returns the artifacts in emission order.
func (a *Artifacts) All() []Artifact {
	return []Artifact{a.DeclarationHeader, a.FallbackHeader, a.FallbackSource}
}

// Generate assembles the three artifacts for a parsed manifest.
//
// Limitation carried over from the original policy: artifacts are only
// produced when the manifest yielded BOTH a plain and an autograd dispatch
// key. A backend supplying only one coverage list is skipped (with a
// warning), not an error and not partially generated. It returns (nil, nil)
// in that case.
func Generate(reg *ops.Registry, parsed *manifest.Parsed, table *dispatch.KeyTable) (*Artifacts, error) {
	if parsed.BackendKey == nil || parsed.AutogradKey == nil {
		missing := "supported"
		if parsed.BackendKey != nil {
			missing = "autograd"
		}
		klog.Warningf("Backend %q has an empty %q coverage list: skipping artifact generation "+
			"(a backend must supply both plain and autograd coverage).", parsed.Backend, missing)
		return nil, nil
	}
	plain := table.Lookup(*parsed.BackendKey)
	autograd := table.Lookup(*parsed.AutogradKey)

	declKey := "dispatch_" + strings.ToLower(parsed.Backend) + "_declarations"
	artifacts := &Artifacts{
		DeclarationHeader: Artifact{
			Filename: templates.DeclarationHeader,
			Env: map[string]any{
				"generated_comment": templates.GeneratedComment,
				"cpp_namespace":     parsed.CppNamespace,
				declKey:             Declarations(reg, plain, autograd),
			},
		},
		FallbackHeader: Artifact{
			Filename: templates.FallbackHeader,
			Env: map[string]any{
				"generated_comment":                   templates.GeneratedComment,
				"cpp_namespace":                       parsed.CppNamespace,
				"dispatch_aten_fallback_declarations": unionPerIndex(Declaration, reg, plain, autograd),
			},
		},
		FallbackSource: Artifact{
			Filename: templates.FallbackSource,
			Env: map[string]any{
				"generated_comment":                  templates.GeneratedComment,
				"cpp_namespace":                      parsed.CppNamespace,
				"dispatch_aten_fallback_definitions": unionPerIndex(Definition, reg, plain, autograd),
				// Registrations are scoped per dispatch key: the plain and
				// autograd lists stay separate, and an operator may
				// legitimately appear in both.
				"dispatch_registrations":          Fallbacks(Registration, reg, plain),
				"dispatch_autograd_registrations": Fallbacks(Registration, reg, autograd),
			},
		},
	}
	return artifacts, nil
}

// unionPerIndex computes the fallback texts of both indices and merges them
// preserving first-seen order. An operation covered by neither key needs a
// fallback under both; the union keeps a single copy of its text.
func unionPerIndex(target Target, reg *ops.Registry, indices ...*dispatch.BackendIndex) []string {
	union := sets.MakeOrdered[string]()
	for _, idx := range indices {
		union.Insert(Fallbacks(target, reg, idx)...)
	}
	return union.Slice()
}
