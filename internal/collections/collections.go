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

// Package collections provides functional programming utilities for working
// with Go sequences and slices.
//
// The package includes a generic Set type used for hidesets, visited sets and
// dependency closures, plus a breadth-first reachability helper over graphs
// given as adjacency functions.
package collections

import (
	"iter"
	"slices"
)

// MapSeq applies the provided transformation function `fn` to each element of
// the input sequence `seq` and returns a new sequence of the resulting values.
//
// Example:
//
//	MapSeq(
//		slices.Values([]int{1, 2, 3}),
//		func(x int) string { return fmt.Sprint(x) }
//	)
//	=> sequence of []string{"1", "2", "3"}
func MapSeq[T, V any](seq iter.Seq[T], fn func(T) V) iter.Seq[V] {
	return func(yield func(V) bool) {
		for t := range seq {
			if !yield(fn(t)) {
				return
			}
		}
	}
}

// MapSlice applies the provided transformation function `fn` to each element of
// the input slice `s` and returns a new slice of the resulting values.
func MapSlice[TSlice ~[]T, T, V any](s TSlice, fn func(T) V) []V {
	return slices.AppendSeq(make([]V, 0, len(s)), MapSeq(slices.Values(s), fn))
}

// FilterSeq returns a new sequence containing only the elements of `seq` for
// which the `predicate` function returns true.
func FilterSeq[T any](seq iter.Seq[T], predicate func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for elem := range seq {
			if predicate(elem) && !yield(elem) {
				return
			}
		}
	}
}

// FilterSlice returns a new slice containing only the elements of `s` for which
// the `predicate` function returns true.
//
// Example:
//
//	FilterSlice([]int{1, 2, 3, 4}, func(x int) bool { return x%2 == 0 })
//	=> []int{2, 4}
func FilterSlice[TSlice ~[]T, T any](s TSlice, predicate func(T) bool) TSlice {
	return slices.AppendSeq(make(TSlice, 0, len(s)), FilterSeq(slices.Values(s), predicate))
}

// Reachable returns every node reachable from `start` by following `next`
// edges, breadth first. The start nodes themselves are included only when
// another start node (or a cycle) leads back to them.
//
// Example:
//
//	edges := map[string][]string{"a": {"b"}, "b": {"c"}}
//	Reachable(func(n string) []string { return edges[n] }, "a")
//	=> Set{"b", "c"}
func Reachable[T comparable](next func(T) []T, start ...T) Set[T] {
	visited := make(Set[T])
	queue := slices.Clone(start)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, adjacent := range next(node) {
			if !visited.Contains(adjacent) {
				visited.Add(adjacent)
				queue = append(queue, adjacent)
			}
		}
	}
	return visited
}
