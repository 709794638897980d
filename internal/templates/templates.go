// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package templates holds the output-file templates and the FileManager that
// fills them in and persists them.
//
// Each artifact has a fixed set of substitution keys; writing with a missing
// key (or an unknown filename) is an error, never a silently empty section.
package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// GeneratedComment is stamped at the top of every generated file.
const GeneratedComment = "Autogenerated file by stubgen. Do not edit directly!"

// Artifact filenames. They keep the names the runtime's build expects.
const (
	DeclarationHeader = "aten_xla_type.h"
	FallbackHeader    = "aten_xla_type_default.h"
	FallbackSource    = "aten_xla_type_default.cpp"
)

// declarationHeaderTmpl declares the backend's kernels. %[1]s is the
// lowercased backend name (it appears in the substitution key), %[2]s the
// backend name as written in the manifest.
const declarationHeaderTmpl = `#pragma once

// {{.generated_comment}}

#include <ATen/Tensor.h>

namespace {{.cpp_namespace}} {

class Aten%[2]sType {
 public:
{{- range index . "dispatch_%[1]s_declarations"}}
  {{.}}
{{- end}}
};

}  // namespace {{.cpp_namespace}}
`

// fallbackHeaderTmpl declares the fallbacks for uncovered operators.
const fallbackHeaderTmpl = `#pragma once

// {{.generated_comment}}

#include <ATen/Tensor.h>

namespace {{.cpp_namespace}} {
namespace fallback {

{{- range index . "dispatch_aten_fallback_declarations"}}
{{.}}
{{- end}}

}  // namespace fallback
}  // namespace {{.cpp_namespace}}
`

// fallbackSourceTmpl defines the fallbacks and registers them, one
// registration block per dispatch key. %[2]s is the backend name, so the
// blocks are scoped to the backend's plain and autograd keys.
const fallbackSourceTmpl = `// {{.generated_comment}}

#include "` + FallbackHeader + `"

#include <ATen/native/CPUFallback.h>

namespace {{.cpp_namespace}} {

{{- range index . "dispatch_aten_fallback_definitions"}}
{{.}}
{{- end}}

TORCH_LIBRARY_IMPL(aten, %[2]s, m) {
{{- range index . "dispatch_registrations"}}
  {{.}}
{{- end}}
}

TORCH_LIBRARY_IMPL(aten, Autograd%[2]s, m) {
{{- range index . "dispatch_autograd_registrations"}}
  {{.}}
{{- end}}
}

}  // namespace {{.cpp_namespace}}
`

// artifactTemplate pairs a parsed template with the substitution keys it
// requires.
type artifactTemplate struct {
	tmpl         *template.Template
	requiredKeys []string
}

// FileManager fills artifact templates and writes them under OutDir. With
// DryRun set it renders everything but writes nothing.
type FileManager struct {
	OutDir string
	DryRun bool

	artifacts map[string]artifactTemplate
}

// NewFileManager returns a FileManager with the artifact templates
// instantiated for the given backend name.
func NewFileManager(outDir string, backend string, dryRun bool) *FileManager {
	lower := strings.ToLower(backend)
	parse := func(name, text string) *template.Template {
		if strings.Contains(text, "%[") {
			text = fmt.Sprintf(text, lower, backend)
		}
		return template.Must(template.New(name).Parse(text))
	}
	return &FileManager{
		OutDir: outDir,
		DryRun: dryRun,
		artifacts: map[string]artifactTemplate{
			DeclarationHeader: {
				tmpl: parse(DeclarationHeader, declarationHeaderTmpl),
				requiredKeys: []string{
					"generated_comment", "cpp_namespace",
					"dispatch_" + lower + "_declarations",
				},
			},
			FallbackHeader: {
				tmpl: parse(FallbackHeader, fallbackHeaderTmpl),
				requiredKeys: []string{
					"generated_comment", "cpp_namespace",
					"dispatch_aten_fallback_declarations",
				},
			},
			FallbackSource: {
				tmpl: parse(FallbackSource, fallbackSourceTmpl),
				requiredKeys: []string{
					"generated_comment", "cpp_namespace",
					"dispatch_aten_fallback_definitions",
					"dispatch_registrations", "dispatch_autograd_registrations",
				},
			},
		},
	}
}

// Render fills the named template with env and returns the file text.
func (fm *FileManager) Render(filename string, env map[string]any) ([]byte, error) {
	artifact, found := fm.artifacts[filename]
	if !found {
		return nil, errors.Errorf("no template registered for output file %q", filename)
	}
	for _, key := range artifact.requiredKeys {
		if _, found := env[key]; !found {
			return nil, errors.Errorf("output file %q is missing substitution key %q", filename, key)
		}
	}
	var buf bytes.Buffer
	if err := artifact.tmpl.Execute(&buf, env); err != nil {
		return nil, errors.Wrapf(err, "rendering %q", filename)
	}
	return buf.Bytes(), nil
}

// Write renders the named template and persists it under OutDir (or only
// logs it, in dry-run mode). It returns the number of bytes rendered.
func (fm *FileManager) Write(filename string, env map[string]any) (int, error) {
	data, err := fm.Render(filename, env)
	if err != nil {
		return 0, err
	}
	fullPath := filepath.Join(fm.OutDir, filename)
	if fm.DryRun {
		klog.V(1).Infof("dry-run: would write %s (%s)", fullPath, humanize.Bytes(uint64(len(data))))
		return len(data), nil
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return 0, errors.Wrapf(err, "writing %q", fullPath)
	}
	klog.V(1).Infof("wrote %s (%s)", fullPath, humanize.Bytes(uint64(len(data))))
	return len(data), nil
}
