// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declarationEnv() map[string]any {
	return map[string]any{
		"generated_comment": GeneratedComment,
		"cpp_namespace":     "torch_xla",
		"dispatch_xla_declarations": []string{
			"static Tensor add(Tensor self, Tensor other);",
			"static Tensor sub(Tensor self, Tensor other);",
		},
	}
}

func TestRenderDeclarationHeader(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "XLA", false)
	data, err := fm.Render(DeclarationHeader, declarationEnv())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, GeneratedComment)
	assert.Contains(t, text, "namespace torch_xla {")
	assert.Contains(t, text, "class AtenXLAType {")
	assert.Contains(t, text, "  static Tensor add(Tensor self, Tensor other);")
	assert.Contains(t, text, "  static Tensor sub(Tensor self, Tensor other);")
}

func TestRenderFallbackSource(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "XLA", false)
	data, err := fm.Render(FallbackSource, map[string]any{
		"generated_comment":                  GeneratedComment,
		"cpp_namespace":                      "torch_xla",
		"dispatch_aten_fallback_definitions": []string{"Tensor fallback::relu(Tensor self) {\n  return at::native::relu(self);\n}"},
		"dispatch_registrations":             []string{`m.impl("relu", &fallback::relu);`},
		"dispatch_autograd_registrations":    []string{`m.impl("relu", &fallback::relu);`},
	})
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "TORCH_LIBRARY_IMPL(aten, XLA, m) {")
	assert.Contains(t, text, "TORCH_LIBRARY_IMPL(aten, AutogradXLA, m) {")
	assert.Contains(t, text, "at::native::relu(self)")
}

func TestWriteAndDryRun(t *testing.T) {
	outDir := t.TempDir()

	fm := NewFileManager(outDir, "XLA", false)
	n, err := fm.Write(DeclarationHeader, declarationEnv())
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	written, err := os.ReadFile(filepath.Join(outDir, DeclarationHeader))
	require.NoError(t, err)
	assert.Len(t, written, n)

	// Dry-run renders but writes nothing.
	dryDir := t.TempDir()
	dry := NewFileManager(dryDir, "XLA", true)
	n, err = dry.Write(DeclarationHeader, declarationEnv())
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	entries, err := os.ReadDir(dryDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteErrors(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "XLA", false)

	_, err := fm.Write("no_such_template.h", declarationEnv())
	require.ErrorContains(t, err, "no template registered")

	env := declarationEnv()
	delete(env, "cpp_namespace")
	_, err = fm.Write(DeclarationHeader, env)
	require.ErrorContains(t, err, `missing substitution key "cpp_namespace"`)
}

func TestRenderIsDeterministic(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "XLA", false)
	first, err := fm.Render(DeclarationHeader, declarationEnv())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := fm.Render(DeclarationHeader, declarationEnv())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
