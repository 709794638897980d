// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dispatch models the runtime's dispatch mechanism as seen by the
// stub generator: dispatch keys (one per backend slot), per-operator backend
// metadata, and the per-coverage-set BackendIndex.
//
// Indices are built once by the manifest parser and are read-only afterwards.
package dispatch

import (
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/gomlx/stubgen/internal/ops"
)

// Key identifies one backend slot in the dispatch mechanism, e.g. "XLA" or
// its autograd counterpart "AutogradXLA".
type Key string

// autogradPrefix is the fixed marker combined with a backend name to form
// its autograd-specialized dispatch key.
const autogradPrefix = "Autograd"

// AutogradKey returns the autograd-specialized dispatch key for a backend.
func AutogradKey(backend string) Key {
	return Key(autogradPrefix + backend)
}

// IsAutograd reports whether the key is an autograd-specialized slot.
func (k Key) IsAutograd() bool {
	return len(k) > len(autogradPrefix) && k[:len(autogradPrefix)] == autogradPrefix
}

// BackendMetadata is the per-operator record of a backend index: the kernel
// symbol the backend defines, and how the kernel is invoked. Immutable once
// built.
type BackendMetadata struct {
	Kernel     string
	Structured bool
	External   bool
}

// External backends currently always implement the plain (non-structured)
// kernel form, and their out/in-place variants are generated from the
// functional one, never the other way around. This is a deliberate
// simplification: revisit here if a backend ever needs structured kernels.
const (
	externalStructured      = false
	externalIsExternal      = true
	externalUseOutAsPrimary = false
)

// NewExternalMetadata builds the metadata for one external-backend kernel
// under the current external-kernel policy.
func NewExternalMetadata(kernel string) BackendMetadata {
	return BackendMetadata{
		Kernel:     kernel,
		Structured: externalStructured,
		External:   externalIsExternal,
	}
}

// BackendIndex maps the operators of one coverage set (plain or autograd) to
// their backend metadata. Built once per coverage set; never mutated after
// construction.
type BackendIndex struct {
	Key             Key
	UseOutAsPrimary bool
	Index           map[ops.OperatorName]BackendMetadata
}

// NewExternalIndex builds the index of an external backend's coverage set
// under the external-kernel policy.
func NewExternalIndex(key Key, index map[ops.OperatorName]BackendMetadata) *BackendIndex {
	return &BackendIndex{
		Key:             key,
		UseOutAsPrimary: externalUseOutAsPrimary,
		Index:           index,
	}
}

// Covers reports whether the index has a kernel for the operator.
func (idx *BackendIndex) Covers(name ops.OperatorName) bool {
	_, found := idx.Index[name]
	return found
}

// Metadata returns the metadata for the operator, if covered.
func (idx *BackendIndex) Metadata(name ops.OperatorName) (BackendMetadata, bool) {
	m, found := idx.Index[name]
	return m, found
}

// Names returns the covered operator names sorted lexicographically, for
// deterministic enumeration.
func (idx *BackendIndex) Names() []ops.OperatorName {
	names := maps.Keys(idx.Index)
	slices.SortFunc(names, func(a, b ops.OperatorName) int {
		if a.Base != b.Base {
			if a.Base < b.Base {
				return -1
			}
			return 1
		}
		switch {
		case a.Overload < b.Overload:
			return -1
		case a.Overload > b.Overload:
			return 1
		}
		return 0
	})
	return names
}

// KeyTable is the run's dispatch-key → BackendIndex table. It is created
// empty, passed explicitly into each construction call, and read by the
// generators afterwards; there is no package-level instance.
type KeyTable struct {
	indices map[Key]*BackendIndex
}

// NewKeyTable returns an empty table.
func NewKeyTable() *KeyTable {
	return &KeyTable{indices: make(map[Key]*BackendIndex)}
}

// Register inserts the index under its key. Registering a key that already
// exists is an error: it would silently overwrite another backend's slot.
func (t *KeyTable) Register(idx *BackendIndex) error {
	if _, found := t.indices[idx.Key]; found {
		return errors.Errorf("dispatch key %q registered twice in the same run", idx.Key)
	}
	t.indices[idx.Key] = idx
	return nil
}

// Lookup returns the index registered under key, or nil.
func (t *KeyTable) Lookup(key Key) *BackendIndex {
	return t.indices[key]
}

// Len returns the number of registered keys.
func (t *KeyTable) Len() int {
	return len(t.indices)
}
