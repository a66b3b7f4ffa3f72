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
	"slices"
	"strings"

	"github.com/EngFlow/ccsnapshot/internal/collections"
)

// represents a file in the include graph
type dependencyNode struct {
	includes   collections.Set[string] // files included directly
	includedBy collections.Set[string] // files including this one directly
}

// DependencyTable is the include graph of a snapshot. Edges follow resolved includes only; included files missing
// from the snapshot are still nodes of the graph.
type DependencyTable struct {
	graph map[string]*dependencyNode
}

func newDependencyTable(documents map[string]*Document) *DependencyTable {
	table := &DependencyTable{graph: make(map[string]*dependencyNode, len(documents))}
	for path, doc := range documents {
		node := table.node(path)
		for _, include := range doc.resolvedIncludes {
			node.includes.Add(include.ResolvedFileName)
			table.node(include.ResolvedFileName).includedBy.Add(path)
		}
	}
	return table
}

func (t *DependencyTable) node(path string) *dependencyNode {
	node, ok := t.graph[path]
	if !ok {
		node = &dependencyNode{includes: make(collections.Set[string]), includedBy: make(collections.Set[string])}
		t.graph[path] = node
	}
	return node
}

func (t *DependencyTable) includesOf(path string) []string {
	if node, ok := t.graph[path]; ok {
		return node.includes.Values()
	}
	return nil
}

func (t *DependencyTable) includersOf(path string) []string {
	if node, ok := t.graph[path]; ok {
		return node.includedBy.Values()
	}
	return nil
}

// Files returns every file of the graph, sorted.
func (t *DependencyTable) Files() []string {
	files := make([]string, 0, len(t.graph))
	for path := range t.graph {
		files = append(files, path)
	}
	slices.Sort(files)
	return files
}

// DirectIncludes returns the files the path includes directly, sorted.
func (t *DependencyTable) DirectIncludes(path string) []string {
	return sorted(t.includesOf(path))
}

// IncludedBy returns the files including the path directly, sorted.
func (t *DependencyTable) IncludedBy(path string) []string {
	return sorted(t.includersOf(path))
}

// FilesDependingOn returns every file whose include closure contains the path, sorted. The path itself is part of the
// result only when it includes itself through a cycle.
func (t *DependencyTable) FilesDependingOn(path string) []string {
	return collections.Reachable(t.includersOf, path).SortedValues(strings.Compare)
}

// IncludeClosure returns every file the path includes directly or indirectly, sorted.
func (t *DependencyTable) IncludeClosure(path string) []string {
	return collections.Reachable(t.includesOf, path).SortedValues(strings.Compare)
}

// IncludeCycles returns the groups of files including each other, found with Tarjan's algorithm. Each group is sorted
// and groups are ordered by their first file.
func (t *DependencyTable) IncludeCycles() [][]string {
	index := 0
	indices := make(map[string]int)
	lowLink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var strongConnect func(path string)
	strongConnect = func(path string) {
		indices[path] = index
		lowLink[path] = index
		index++
		stack = append(stack, path)
		onStack[path] = true

		for _, dep := range t.DirectIncludes(path) {
			if _, exists := indices[dep]; !exists {
				strongConnect(dep)
				lowLink[path] = min(lowLink[path], lowLink[dep])
			} else if onStack[dep] {
				lowLink[path] = min(lowLink[path], indices[dep])
			}
		}

		if lowLink[path] == indices[path] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == path {
					break
				}
			}
			// a single file is a cycle only when it includes itself
			if len(scc) > 1 || t.graph[path].includes.Contains(path) {
				slices.Sort(scc)
				cycles = append(cycles, scc)
			}
		}
	}

	for _, path := range t.Files() {
		if _, exists := indices[path]; !exists {
			strongConnect(path)
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return cycles
}

func sorted(values []string) []string {
	slices.Sort(values)
	return values
}
