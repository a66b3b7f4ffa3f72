// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import (
	"iter"
	"maps"
	"slices"
)

// Set is a generic implementation of a mathematical set for comparable types.
// It is implemented as a map with empty struct values for minimal memory usage.
//
// Mutating methods (Add, AddSeq, AddSlice, Join, Remove) modify the receiver.
// Sets shared between owners, such as hidesets attached to tokens, must be
// derived with With or Union instead, which leave the receiver untouched.
type Set[T comparable] map[T]struct{}

// SetOf creates a new Set containing the given elements.
// It is a shorthand for ToSet with variadic arguments.
func SetOf[T comparable](elems ...T) Set[T] {
	return ToSet(elems)
}

// ToSet converts a slice into a Set, eliminating duplicates.
func ToSet[T comparable](slice []T) Set[T] {
	return make(Set[T], len(slice)).AddSlice(slice)
}

// Add inserts an element into the Set.
// Returns the Set to allow chaining.
func (s Set[T]) Add(elem T) Set[T] {
	s[elem] = struct{}{}
	return s
}

// AddSeq inserts all elements from the given sequence to the Set.
// Returns the Set to allow chaining.
func (s Set[T]) AddSeq(elems iter.Seq[T]) Set[T] {
	for elem := range elems {
		s.Add(elem)
	}
	return s
}

// AddSlice inserts all elements from the given slice to the Set.
// Returns the Set to allow chaining.
func (s Set[T]) AddSlice(elems []T) Set[T] {
	return s.AddSeq(slices.Values(elems))
}

// Remove deletes an element from the Set, if present.
func (s Set[T]) Remove(elem T) Set[T] {
	delete(s, elem)
	return s
}

// Contains checks whether an element exists in the Set. A nil Set contains
// nothing.
func (s Set[T]) Contains(elem T) bool {
	_, exists := s[elem]
	return exists
}

// Clone returns a shallow copy of the Set. Cloning a nil Set yields an empty,
// non-nil Set.
func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], len(s)+1)
	for elem := range s {
		result.Add(elem)
	}
	return result
}

// With returns a new Set holding all elements of the Set plus `elem`.
func (s Set[T]) With(elem T) Set[T] {
	return s.Clone().Add(elem)
}

// Join adds all elements from another Set into the current Set (union).
// Returns the modified Set to allow chaining.
func (s Set[T]) Join(other Set[T]) Set[T] {
	for elem := range other {
		s.Add(elem)
	}
	return s
}

// Union returns a new Set containing elements of both Sets. When one of the
// Sets is empty the other one is returned as is.
func (s Set[T]) Union(other Set[T]) Set[T] {
	switch {
	case len(other) == 0:
		return s
	case len(s) == 0:
		return other
	}
	return s.Clone().Join(other)
}

// Intersect returns a new Set containing only elements present in both Sets.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	result := make(Set[T])
	for elem := range s {
		if other.Contains(elem) {
			result.Add(elem)
		}
	}
	return result
}

// Equal reports whether both Sets contain the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for elem := range s {
		if !other.Contains(elem) {
			return false
		}
	}
	return true
}

// All returns a sequence containing all elements in the Set. The order is not
// guaranteed.
func (s Set[T]) All() iter.Seq[T] {
	return maps.Keys(s)
}

// Values returns a slice containing all elements in the Set.
// The order is not guaranteed. For guaranteed order, use SortedValues.
func (s Set[T]) Values() []T {
	return slices.Collect(s.All())
}

// SortedValues returns a sorted slice containing all elements in the Set.
func (s Set[T]) SortedValues(cmp func(l, r T) int) []T {
	return slices.SortedFunc(s.All(), cmp)
}
