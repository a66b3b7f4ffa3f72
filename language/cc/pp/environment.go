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

// Environment is the macro symbol table of a preprocessing run. It keeps every definition in the order it was made;
// lookups see only the latest definition of each name, which may be a hidden one recorded by #undef.
//
// An Environment is not safe for concurrent use.
type Environment struct {
	// File and line currently being processed, reported by __FILE__ and __LINE__.
	CurrentFile string
	CurrentLine int

	macros []*Macro
	byName map[string]*Macro
}

func NewEnvironment() *Environment {
	return &Environment{byName: make(map[string]*Macro)}
}

// AddMacro binds a definition, shadowing the previous definition of the same name.
func (e *Environment) AddMacro(macro Macro) {
	if e.byName == nil {
		e.byName = make(map[string]*Macro)
	}
	bound := macro
	bound.next = e.byName[macro.name]
	e.macros = append(e.macros, &bound)
	e.byName[macro.name] = &bound
}

// AddMacros binds all definitions in order.
func (e *Environment) AddMacros(macros []Macro) {
	for _, macro := range macros {
		e.AddMacro(macro)
	}
}

// Remove undefines a macro by binding a hidden definition attributed to the current file and line. The hidden macro
// is returned so that it can be reported.
func (e *Environment) Remove(name string) Macro {
	hidden := Macro{name: name, hidden: true, fileName: e.CurrentFile, line: e.CurrentLine}
	e.AddMacro(hidden)
	return hidden
}

// Lookup returns the active definition of a macro.
func (e *Environment) Lookup(name string) (Macro, bool) {
	macro, exists := e.byName[name]
	if !exists || macro.hidden {
		return Macro{}, false
	}
	return *macro, true
}

// IsDefined reports whether the name has an active definition.
func (e *Environment) IsDefined(name string) bool {
	_, defined := e.Lookup(name)
	return defined
}

// Macros returns every definition bound so far, including hidden ones, in binding order.
func (e *Environment) Macros() []Macro {
	result := make([]Macro, len(e.macros))
	for i, macro := range e.macros {
		result[i] = *macro
	}
	return result
}

// History returns the definitions of a name, latest first.
func (e *Environment) History(name string) []Macro {
	var result []Macro
	for macro := e.byName[name]; macro != nil; macro = macro.next {
		result = append(result, *macro)
	}
	return result
}

// Len returns the number of definitions bound so far.
func (e *Environment) Len() int { return len(e.macros) }

// Reset forgets every definition.
func (e *Environment) Reset() {
	e.macros = nil
	e.byName = make(map[string]*Macro)
}

// Checkpoint marks the current state of the table; Rollback returns to it, forgetting later definitions.
type Checkpoint int

func (e *Environment) Checkpoint() Checkpoint { return Checkpoint(len(e.macros)) }

func (e *Environment) Rollback(checkpoint Checkpoint) {
	for len(e.macros) > int(checkpoint) {
		last := e.macros[len(e.macros)-1]
		e.macros = e.macros[:len(e.macros)-1]
		if last.next != nil {
			e.byName[last.name] = last.next
		} else {
			delete(e.byName, last.name)
		}
	}
}
