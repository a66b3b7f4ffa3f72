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

package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MacroDefinition is a macro defined outside of the source code, e.g. with -DNAME=VALUE on the command line or by the
// target platform. Name may carry a parameter list, e.g. "MAX(a,b)".
type MacroDefinition struct {
	Name  string
	Value string
}

func (d MacroDefinition) String() string { return d.Name + "=" + d.Value }

// Directive renders the definition as a #define line, without the trailing newline.
func (d MacroDefinition) Directive() string {
	return strings.TrimSpace("#define " + d.Name + " " + d.Value)
}

// Macro name with an optional parameter list, as accepted by -D.
var macroDefinitionNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\([A-Za-z0-9_,.\s]*\))?$`)

// ParseMacro parses a single -D style macro definition: NAME (defined as 1), NAME= (defined empty) or NAME=VALUE.
func ParseMacro(definition string) (MacroDefinition, error) {
	definition = strings.TrimPrefix(definition, "-D") // tolerate gcc/clang style
	name, value := definition, "1"                     // default: bare macro

	if eqIdx := strings.Index(definition, "="); eqIdx >= 0 {
		name, value = definition[:eqIdx], definition[eqIdx+1:]
	}

	if !macroDefinitionNameRegex.MatchString(name) {
		return MacroDefinition{}, fmt.Errorf("invalid macro name %q", name)
	}
	if strings.ContainsAny(value, "\n\r") {
		return MacroDefinition{}, fmt.Errorf("macro %s value must fit in a single line", name)
	}
	return MacroDefinition{Name: name, Value: value}, nil
}

// ParseMacros converts a slice of -D style macro definitions into MacroDefinitions, preserving their order.
// Returns error if at least one definition failed to parse, joining all parsing errors.
func ParseMacros(definitions []string) ([]MacroDefinition, error) {
	out := make([]MacroDefinition, 0, len(definitions))
	var parsingErrors []error
	for _, d := range definitions {
		defn, err := ParseMacro(d)
		if err != nil {
			parsingErrors = append(parsingErrors, fmt.Errorf("failed to parse: %v: %v", d, err))
			continue
		}
		out = append(out, defn)
	}
	return out, errors.Join(parsingErrors...)
}

// ParseUndefine validates a -U style macro name.
func ParseUndefine(name string) (string, error) {
	name = strings.TrimPrefix(name, "-U")
	if !macroIdentifierRegex.MatchString(name) {
		return "", fmt.Errorf("invalid macro name %q", name)
	}
	return name, nil
}

// CommandLineSource renders definitions followed by undefinitions as preprocessor source, which defines them in order
// when preprocessed.
func CommandLineSource(defines []MacroDefinition, undefines []string) []byte {
	var sb strings.Builder
	for _, d := range defines {
		sb.WriteString(d.Directive())
		sb.WriteByte('\n')
	}
	for _, name := range undefines {
		sb.WriteString("#undef ")
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
