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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDerivationsLeaveReceiverUntouched(t *testing.T) {
	hideset := SetOf("A", "B")

	with := hideset.With("C")
	union := hideset.Union(SetOf("D"))

	assert.Equal(t, SetOf("A", "B"), hideset)
	assert.Equal(t, SetOf("A", "B", "C"), with)
	assert.Equal(t, SetOf("A", "B", "D"), union)
}

func TestSetUnionWithEmpty(t *testing.T) {
	set := SetOf(1, 2)
	assert.Equal(t, set, set.Union(nil))
	assert.Equal(t, set, Set[int](nil).Union(set))
}

func TestSetIntersect(t *testing.T) {
	left := SetOf("x", "y", "z")
	right := SetOf("y", "z", "w")

	assert.Equal(t, []string{"y", "z"}, left.Intersect(right).SortedValues(strings.Compare))
	assert.Empty(t, left.Intersect(nil))
}

func TestSetEqual(t *testing.T) {
	assert.True(t, SetOf(1, 2).Equal(SetOf(2, 1)))
	assert.False(t, SetOf(1, 2).Equal(SetOf(1)))
	assert.False(t, SetOf(1, 2).Equal(SetOf(1, 3)))
	assert.True(t, Set[int](nil).Equal(SetOf[int]()))
}

func TestSetRemoveAndContains(t *testing.T) {
	set := ToSet([]string{"a", "b", "a"})
	assert.Len(t, set, 2)
	set.Remove("a")
	assert.False(t, set.Contains("a"))
	assert.True(t, set.Contains("b"))
	assert.False(t, Set[string](nil).Contains("b"))
}

func TestSetCloneOfNil(t *testing.T) {
	clone := Set[string](nil).Clone()
	assert.NotNil(t, clone)
	clone.Add("x")
	assert.True(t, clone.Contains("x"))
}
