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

package pp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitions(macros []Macro) []string {
	result := make([]string, len(macros))
	for i, macro := range macros {
		result[i] = macro.String()
	}
	return result
}

func newTestEnvironment(t *testing.T, definitions ...string) *Environment {
	env := NewEnvironment()
	for _, definition := range definitions {
		macro, err := NewMacro(definition)
		require.NoError(t, err)
		env.AddMacro(macro)
	}
	return env
}

func TestEnvironmentLookup(t *testing.T) {
	env := newTestEnvironment(t, "A 1", "B 2", "A 3")

	a, ok := env.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "#define A 3", a.String())
	assert.True(t, env.IsDefined("B"))
	assert.False(t, env.IsDefined("C"))
	assert.Equal(t, []string{"#define A 1", "#define B 2", "#define A 3"}, definitions(env.Macros()))
	assert.Equal(t, []string{"#define A 3", "#define A 1"}, definitions(env.History("A")))
	assert.Equal(t, 3, env.Len())
}

func TestEnvironmentRemove(t *testing.T) {
	env := newTestEnvironment(t, "A 1")
	env.CurrentFile, env.CurrentLine = "a.h", 7

	hidden := env.Remove("A")
	assert.True(t, hidden.IsHidden())
	assert.Equal(t, "a.h", hidden.FileName())
	assert.Equal(t, 7, hidden.Line())
	assert.False(t, env.IsDefined("A"))
	_, ok := env.Lookup("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"#define A 1", "#undef A"}, definitions(env.Macros()))

	env.AddMacros(newTestEnvironment(t, "A 2").Macros())
	assert.True(t, env.IsDefined("A"))
}

func TestEnvironmentRollback(t *testing.T) {
	env := newTestEnvironment(t, "A 1")
	checkpoint := env.Checkpoint()

	env.AddMacros(newTestEnvironment(t, "A 2", "B 1").Macros())
	env.Remove("A")
	assert.False(t, env.IsDefined("A"))
	assert.True(t, env.IsDefined("B"))

	env.Rollback(checkpoint)
	a, ok := env.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "#define A 1", a.String())
	assert.False(t, env.IsDefined("B"))
	assert.Equal(t, 1, env.Len())

	env.Reset()
	assert.Equal(t, 0, env.Len())
	assert.False(t, env.IsDefined("A"))
}
