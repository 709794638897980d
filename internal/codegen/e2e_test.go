// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/manifest"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/templates"
)

// runPipeline loads the testdata inputs and renders the three artifacts into
// outDir, returning their contents keyed by filename.
func runPipeline(t *testing.T, outDir string) map[string]string {
	reg, err := ops.LoadRegistry(filepath.Join("testdata", "native_functions.yaml"))
	require.NoError(t, err)

	table := dispatch.NewKeyTable()
	parsed, err := manifest.LoadAndParse(filepath.Join("testdata", "xla_manifest.yaml"), reg, table)
	require.NoError(t, err)

	artifacts, err := Generate(reg, parsed, table)
	require.NoError(t, err)
	require.NotNil(t, artifacts)

	fm := templates.NewFileManager(outDir, parsed.Backend, false)
	files := make(map[string]string)
	for _, artifact := range artifacts.All() {
		_, err := fm.Write(artifact.Filename, artifact.Env)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(outDir, artifact.Filename))
		require.NoError(t, err)
		files[artifact.Filename] = string(data)
	}
	return files
}

func TestEndToEnd(t *testing.T) {
	files := runPipeline(t, t.TempDir())
	require.Len(t, files, 3)

	header := files[templates.DeclarationHeader]
	assert.Contains(t, header, "namespace torch_xla {")
	// Covered kernels are declared, each exactly once even when an op is in
	// both coverage lists (add).
	assert.Equal(t, 1, strings.Count(header, " add("))
	assert.Equal(t, 1, strings.Count(header, " add_out("))
	assert.Equal(t, 1, strings.Count(header, " relu("))
	assert.Equal(t, 1, strings.Count(header, " sub("))
	// Uncovered ops are not declared as backend kernels.
	assert.NotContains(t, header, "mul_Scalar")
	assert.NotContains(t, header, " abs(")

	fallbackHeader := files[templates.FallbackHeader]
	// Every registry op uncovered by at least one index appears exactly
	// once in the fallback declarations.
	for _, kernel := range []string{"add_(", "sub_out(", "mul_Scalar(", "relu_(", "abs("} {
		assert.Equal(t, 1, strings.Count(fallbackHeader, " "+kernel), "fallback kernel %s", kernel)
	}
	// An op covered by BOTH indices never falls back.
	assert.NotContains(t, fallbackHeader, " add(")

	source := files[templates.FallbackSource]
	assert.Contains(t, source, "TORCH_LIBRARY_IMPL(aten, XLA, m) {")
	assert.Contains(t, source, "TORCH_LIBRARY_IMPL(aten, AutogradXLA, m) {")
	// relu is covered under XLA but not AutogradXLA: registered as a
	// fallback only for the autograd key.
	assert.NotContains(t, sectionOf(t, source, "TORCH_LIBRARY_IMPL(aten, XLA, m) {"), `"relu"`)
	assert.Contains(t, sectionOf(t, source, "TORCH_LIBRARY_IMPL(aten, AutogradXLA, m) {"), `"relu"`)
	// Definitions delegate to the default implementation.
	assert.Contains(t, source, "return at::native::abs(self);")
}

// sectionOf returns the brace-delimited block starting at marker.
func sectionOf(t *testing.T, text, marker string) string {
	start := strings.Index(text, marker)
	require.GreaterOrEqual(t, start, 0, "marker %q not found", marker)
	rest := text[start:]
	end := strings.Index(rest, "\n}")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestEndToEndIsReproducible(t *testing.T) {
	first := runPipeline(t, t.TempDir())
	second := runPipeline(t, t.TempDir())
	assert.Equal(t, first, second)
}
