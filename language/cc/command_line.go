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

package cc

import (
	"errors"

	"github.com/EngFlow/ccsnapshot/language/internal/cc/parser"
	"github.com/EngFlow/ccsnapshot/language/internal/cc/platform"
)

type (
	// MacroDefinition is a -D style macro definition, predefined before a
	// translation unit is preprocessed.
	MacroDefinition = parser.MacroDefinition
	// Platform is the os/arch pair selecting the predefined target macros.
	Platform = platform.Platform
)

// ParseDefines parses -D style definitions: NAME, NAME= or NAME=VALUE.
func ParseDefines(definitions []string) ([]MacroDefinition, error) {
	return parser.ParseMacros(definitions)
}

// ParseUndefines validates -U style macro names, joining all errors.
func ParseUndefines(names []string) ([]string, error) {
	var errs []error
	out := make([]string, 0, len(names))
	for _, name := range names {
		parsed, err := parser.ParseUndefine(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, parsed)
	}
	return out, errors.Join(errs...)
}

// ParsePlatform parses an "os/arch" platform, accepting common aliases.
func ParsePlatform(value string) (Platform, error) {
	return platform.Parse(value)
}
