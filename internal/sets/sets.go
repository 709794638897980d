// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sets implement a set type as a `map[T]struct{}` but with better ergonomics,
// plus an insertion-ordered variant used to deduplicate generated text deterministically.
package sets

// Set implements a Set for the key type T.
type Set[T comparable] map[T]struct{}

// Make returns an empty Set of the given type. Size is optional, and if given
// will reserve the expected size.
func Make[T comparable](size ...int) Set[T] {
	if len(size) == 0 {
		return make(Set[T])
	}
	return make(Set[T], size[0])
}

// MakeWith creates a Set[T] with the given elements inserted.
func MakeWith[T comparable](elements ...T) Set[T] {
	s := Make[T](len(elements))
	for _, element := range elements {
		s.Insert(element)
	}
	return s
}

// Has returns true if Set s has the given key.
func (s Set[T]) Has(key T) bool {
	_, found := s[key]
	return found
}

// Insert keys into set.
func (s Set[T]) Insert(keys ...T) {
	for _, key := range keys {
		s[key] = struct{}{}
	}
}

// Sub returns `s - s2`, that is, all elements in `s` that are not in `s2`.
func (s Set[T]) Sub(s2 Set[T]) Set[T] {
	sub := Make[T]()
	for k := range s {
		if !s2.Has(k) {
			sub.Insert(k)
		}
	}
	return sub
}

// Equal returns whether s and s2 have the exact same elements.
func (s Set[T]) Equal(s2 Set[T]) bool {
	if len(s) != len(s2) {
		return false
	}
	for k := range s {
		if !s2.Has(k) {
			return false
		}
	}
	return true
}

// Ordered is a set that remembers the order in which elements were first
// inserted. Iterating a plain Set (a Go map) is randomized, which would make
// generated files differ from run to run; Ordered keeps output reproducible.
type Ordered[T comparable] struct {
	seen  Set[T]
	order []T
}

// MakeOrdered returns an empty Ordered set.
func MakeOrdered[T comparable](size ...int) *Ordered[T] {
	return &Ordered[T]{seen: Make[T](size...)}
}

// Has returns true if the set has the given key.
func (o *Ordered[T]) Has(key T) bool {
	return o.seen.Has(key)
}

// Insert keys into the set. Keys already present keep their original position.
func (o *Ordered[T]) Insert(keys ...T) {
	for _, key := range keys {
		if o.seen.Has(key) {
			continue
		}
		o.seen.Insert(key)
		o.order = append(o.order, key)
	}
}

// Union inserts all elements of o2 into o, preserving first-seen order:
// elements of o come first, new elements of o2 follow in o2's order.
func (o *Ordered[T]) Union(o2 *Ordered[T]) {
	o.Insert(o2.order...)
}

// Len returns the number of elements in the set.
func (o *Ordered[T]) Len() int {
	return len(o.order)
}

// Slice returns the elements in first-seen order. The returned slice is owned
// by the set and must not be modified.
func (o *Ordered[T]) Slice() []T {
	return o.order
}
