// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package manifest parses and validates a backend's coverage manifest and
// builds its dispatch indices.
//
// A manifest declares which operators the backend implements, split into a
// plain coverage list ("supported") and a differentiable one ("autograd"):
//
//	backend: XLA
//	cpp_namespace: torch_xla
//	supported:
//	  - add
//	  - add.out
//	autograd:
//	  - sub
//
// Every validation failure is fatal to the run: this is a one-shot build
// tool, and a silently wrong manifest means wrong generated code.
package manifest

import (
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gomlx/stubgen/internal/dispatch"
	"github.com/gomlx/stubgen/internal/ops"
	"github.com/gomlx/stubgen/internal/ops/naming"
)

// validKeys are the only top-level keys a manifest may contain.
var validKeys = []string{"backend", "cpp_namespace", "supported", "autograd"}

// Manifest is the decoded manifest document, before resolution against the
// registry.
type Manifest struct {
	Backend      string   `yaml:"backend"`
	CppNamespace string   `yaml:"cpp_namespace"`
	Supported    []string `yaml:"supported"`
	Autograd     []string `yaml:"autograd"`
}

// Parsed is the result of validating a manifest against the registry: the
// backend's dispatch keys (nil when the corresponding coverage list was
// empty) and the namespace its artifacts are generated under. The built
// indices live in the KeyTable that was passed to Parse.
type Parsed struct {
	BackendKey   *dispatch.Key
	AutogradKey  *dispatch.Key
	Backend      string
	CppNamespace string
}

// LoadAndParse reads the manifest file and parses it. See Parse.
func LoadAndParse(path string, reg *ops.Registry, table *dispatch.KeyTable) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading backend manifest %q", path)
	}
	parsed, err := Parse(data, reg, table)
	if err != nil {
		return nil, errors.WithMessagef(err, "backend manifest %q", path)
	}
	return parsed, nil
}

// Parse validates the manifest document, resolves its coverage lists against
// the registry, and registers a BackendIndex per non-empty list into table.
//
// Fatal validation errors: missing required field, unknown top-level keys
// (all offending keys are named), an operator name absent from the registry
// (the literal name is quoted), and a dispatch key already present in table.
func Parse(data []byte, reg *ops.Registry, table *dispatch.KeyTable) (*Parsed, error) {
	if err := checkKnownKeys(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "invalid manifest YAML")
	}
	if m.Backend == "" {
		return nil, errors.New(`manifest is missing the required "backend" field`)
	}
	if m.CppNamespace == "" {
		return nil, errors.New(`manifest is missing the required "cpp_namespace" field`)
	}

	parsed := &Parsed{Backend: m.Backend, CppNamespace: m.CppNamespace}
	if len(m.Supported) > 0 {
		key := dispatch.Key(m.Backend)
		if err := buildIndex(key, m.Supported, reg, table); err != nil {
			return nil, err
		}
		parsed.BackendKey = &key
	}
	if len(m.Autograd) > 0 {
		key := dispatch.AutogradKey(m.Backend)
		if err := buildIndex(key, m.Autograd, reg, table); err != nil {
			return nil, err
		}
		parsed.AutogradKey = &key
	}
	return parsed, nil
}

// buildIndex resolves one coverage list into a BackendIndex and registers it.
func buildIndex(key dispatch.Key, opNames []string, reg *ops.Registry, table *dispatch.KeyTable) error {
	index := make(map[ops.OperatorName]dispatch.BackendMetadata, len(opNames))
	for _, opName := range opNames {
		name, err := ops.ParseName(opName)
		if err != nil {
			return err
		}
		f, found := reg.ByName()[name]
		if !found {
			return errors.Errorf("found an invalid operator name: %q is not in the native functions registry", name)
		}
		index[name] = dispatch.NewExternalMetadata(naming.Kernel(f.Func))
	}
	return table.Register(dispatch.NewExternalIndex(key, index))
}

// checkKnownKeys walks the document's top-level mapping and rejects any key
// outside validKeys, naming every offender. Decoding into the Manifest
// struct alone would silently drop them.
func checkKnownKeys(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "invalid manifest YAML")
	}
	if len(doc.Content) == 0 {
		return errors.New("manifest is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.New("manifest must be a YAML mapping")
	}
	var unknown []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !slices.Contains(validKeys, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return errors.Errorf("manifest contains unexpected keys: %s. Only the following keys are supported: %s",
			strings.Join(unknown, ", "), strings.Join(validKeys, ", "))
	}
	return nil
}
