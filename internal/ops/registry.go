// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Registry holds the runtime's native operators in source order, already
// grouped into variant clusters.
type Registry struct {
	// Units in registry (document) order. A group occupies the position of
	// its first member in the source document.
	Units []GroupedUnit

	byName map[OperatorName]*NativeFunction
}

// ByName returns the flattened operator-name → NativeFunction view.
// The returned map is owned by the registry and must not be modified.
func (r *Registry) ByName() map[OperatorName]*NativeFunction {
	return r.byName
}

// NumFunctions returns the total number of native functions, counting every
// group member.
func (r *Registry) NumFunctions() int {
	return len(r.byName)
}

// registryEntry is one element of the registry YAML sequence. Fields other
// than "func" belong to the runtime's own build and are ignored here.
type registryEntry struct {
	Func string `yaml:"func"`
}

// LoadRegistry reads and parses the native-functions registry YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading native functions registry %q", path)
	}
	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing native functions registry %q", path)
	}
	return reg, nil
}

// ParseRegistry parses the registry document: a YAML sequence of entries,
// each with a "func" signature. Duplicate operator names are an error.
// Variants are clustered into Groups; entries with no sibling variants stay
// standalone.
func ParseRegistry(data []byte) (*Registry, error) {
	var entries []registryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "invalid registry YAML")
	}

	functions := make([]*NativeFunction, 0, len(entries))
	byName := make(map[OperatorName]*NativeFunction, len(entries))
	for i, entry := range entries {
		if entry.Func == "" {
			return nil, errors.Errorf("registry entry #%d is missing the \"func\" field", i)
		}
		schema, err := ParseSchema(entry.Func)
		if err != nil {
			return nil, err
		}
		if _, found := byName[schema.Name]; found {
			return nil, errors.Errorf("registry defines operator %q more than once", schema.Name)
		}
		f := &NativeFunction{Func: schema}
		functions = append(functions, f)
		byName[schema.Name] = f
	}

	return &Registry{
		Units:  groupFunctions(functions),
		byName: byName,
	}, nil
}

// rootOf maps an operator name to the grouping key shared by its
// functional/in-place/out siblings: "add_" and "add" share a root, as do
// "add.out" and "add", and "mul.Scalar_out" and "mul.Scalar".
func rootOf(name OperatorName) OperatorName {
	root := OperatorName{
		Base:     strings.TrimSuffix(name.Base, "_"),
		Overload: name.Overload,
	}
	if root.Overload == "out" {
		root.Overload = ""
	} else {
		root.Overload = strings.TrimSuffix(root.Overload, "_out")
	}
	return root
}

// groupFunctions clusters variants sharing a root name into Groups. A group
// is only formed when the functional variant exists and at least one sibling
// joins it; everything else passes through standalone, in document order.
func groupFunctions(functions []*NativeFunction) []GroupedUnit {
	byRoot := make(map[OperatorName]*Group, len(functions))
	for _, f := range functions {
		root := rootOf(f.Func.Name)
		g := byRoot[root]
		if g == nil {
			g = &Group{}
			byRoot[root] = g
		}
		switch VariantOf(f.Func.Name) {
		case Functional:
			g.Functional = f
		case Inplace:
			g.Inplace = f
		case Out:
			g.Out = f
		}
	}

	var units []GroupedUnit
	emitted := make(map[OperatorName]bool, len(byRoot))
	for _, f := range functions {
		root := rootOf(f.Func.Name)
		if emitted[root] {
			continue
		}
		g := byRoot[root]
		if g.Functional == nil || (g.Inplace == nil && g.Out == nil) {
			// Not groupable: this member stays standalone, siblings (if
			// any) keep their own positions.
			units = append(units, f)
			continue
		}
		emitted[root] = true
		units = append(units, g)
	}
	return units
}
