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

// Package index defines a serializable include index: the mapping of every
// processed file to the files it includes directly. It is the exchange format
// between the deps command and tools consuming the include graph.
package index

import (
	"encoding"
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/EngFlow/ccsnapshot/internal/collections"
	"github.com/EngFlow/ccsnapshot/language/cc"
)

type (
	// includePath is a file path that is validated when parsed from JSON
	// text.
	includePath string

	// IncludeIndex maps files to the files they include directly, sorted and
	// without duplicates. Serializable to/from JSON.
	IncludeIndex map[string][]string
)

var (
	_ encoding.TextUnmarshaler = (*includePath)(nil)
	_ json.Marshaler           = (*IncludeIndex)(nil)
	_ json.Unmarshaler         = (*IncludeIndex)(nil)
)

func (p *includePath) UnmarshalText(data []byte) error {
	text := string(data)
	if text == "" || path.Clean(text) != text {
		return fmt.Errorf("invalid path %q", text)
	}
	*p = includePath(text)
	return nil
}

// FromSnapshot indexes the resolved includes of every document of the
// snapshot, except the predefined macros document.
func FromSnapshot(snapshot cc.Snapshot) IncludeIndex {
	index := make(IncludeIndex, snapshot.Len())
	for fileName, doc := range snapshot.All() {
		if fileName == cc.ConfigurationFileName {
			continue
		}
		index[fileName] = sortedUnique(doc.IncludedFiles())
	}
	return index
}

func sortedUnique(files []string) []string {
	return slices.AppendSeq([]string{}, slices.Values(collections.ToSet(files).SortedValues(strings.Compare)))
}

func (index IncludeIndex) MarshalJSON() ([]byte, error) {
	jsonDict := make(map[string][]string, len(index))
	for file, includes := range index {
		jsonDict[file] = sortedUnique(includes)
	}
	return json.Marshal(jsonDict)
}

func (index *IncludeIndex) UnmarshalJSON(data []byte) error {
	var jsonDict map[string][]includePath
	if err := json.Unmarshal(data, &jsonDict); err != nil {
		return err
	}

	*index = make(IncludeIndex, len(jsonDict))
	for file, includes := range jsonDict {
		var key includePath
		if err := key.UnmarshalText([]byte(file)); err != nil {
			return err
		}
		(*index)[file] = collections.MapSlice(includes, func(p includePath) string { return string(p) })
	}
	return nil
}

// IncludedBy inverts the index: every included file maps to the files
// including it.
func (index IncludeIndex) IncludedBy() IncludeIndex {
	inverted := make(IncludeIndex)
	for _, file := range slices.Sorted(maps.Keys(index)) {
		for _, include := range index[file] {
			inverted[include] = append(inverted[include], file)
		}
	}
	return inverted
}

// Dependents returns the files including path, directly or transitively,
// in sorted order.
func (index IncludeIndex) Dependents(path string) []string {
	includedBy := index.IncludedBy()
	next := func(file string) []string { return includedBy[file] }
	return collections.Reachable(next, path).SortedValues(strings.Compare)
}

func (index IncludeIndex) splitByLeaves() (including, leaves []string) {
	including = make([]string, 0, len(index))
	leaves = make([]string, 0, len(index))
	for _, file := range slices.Sorted(maps.Keys(index)) {
		if len(index[file]) == 0 {
			leaves = append(leaves, file)
		} else {
			including = append(including, file)
		}
	}
	return
}

func (index IncludeIndex) Summary() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Include index:")
	including, leaves := index.splitByLeaves()

	fmt.Fprintf(&sb, "  Including files (%d):\n", len(including))
	for _, file := range including {
		fmt.Fprintf(&sb, "    %-40q: %v\n", file, index[file])
	}

	fmt.Fprintf(&sb, "  Leaf files (%d):\n", len(leaves))
	for _, file := range leaves {
		fmt.Fprintf(&sb, "    %q\n", file)
	}

	return sb.String()
}
