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
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSlice(t *testing.T) {
	result := MapSlice([]int{1, 2, 3}, func(i int) string {
		return string(rune('0' + i))
	})
	assert.Equal(t, []string{"1", "2", "3"}, result)
}

func TestFilterSlice(t *testing.T) {
	result := FilterSlice([]int{1, 2, 3, 4}, func(i int) bool {
		return i%2 == 0
	})
	assert.Equal(t, []int{2, 4}, result)
}

func TestReachable(t *testing.T) {
	edges := map[string][]string{
		"main.c": {"a.h", "b.h"},
		"a.h":    {"common.h"},
		"b.h":    {"common.h"},
		"cycle1": {"cycle2"},
		"cycle2": {"cycle1"},
	}
	next := func(node string) []string { return edges[node] }

	testCases := []struct {
		start    []string
		expected []string
	}{
		{start: []string{"main.c"}, expected: []string{"a.h", "b.h", "common.h"}},
		{start: []string{"a.h"}, expected: []string{"common.h"}},
		{start: []string{"common.h"}, expected: []string{}},
		{start: []string{"cycle1"}, expected: []string{"cycle1", "cycle2"}},
		{start: nil, expected: []string{}},
	}

	for _, tc := range testCases {
		result := Reachable(next, tc.start...).SortedValues(strings.Compare)
		assert.ElementsMatch(t, tc.expected, result, "start: %v", tc.start)
	}
}

func ExampleMapSeq() {
	seq := MapSeq(
		slices.Values([]int{1, 2, 3}),
		func(x int) string { return fmt.Sprint(x) },
	)
	fmt.Println(slices.Collect(seq))
	// Output: [1 2 3]
}

func ExampleFilterSeq() {
	seq := FilterSeq(
		slices.Values([]int{1, 2, 3, 4}),
		func(x int) bool { return x%2 == 0 },
	)
	fmt.Println(slices.Collect(seq))
	// Output: [2 4]
}
