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
	"iter"
	"maps"
	"slices"
	"sync"
)

type dependencyCache struct {
	once  sync.Once
	table *DependencyTable
}

// Snapshot maps file paths to processed documents. It is a value handle: Insert and Remove change the handle they are
// called on and never the copies taken before, so a copy is a stable view that can be shared between goroutines.
//
// The zero Snapshot is empty and ready to use.
type Snapshot struct {
	documents map[string]*Document
	deps      *dependencyCache
}

// IncludeLocation is an include directive of a document.
type IncludeLocation struct {
	Document *Document
	Line     int
}

func NewSnapshot() Snapshot {
	return Snapshot{deps: &dependencyCache{}}
}

func (s Snapshot) Len() int      { return len(s.documents) }
func (s Snapshot) IsEmpty() bool { return len(s.documents) == 0 }

func (s Snapshot) Contains(path string) bool {
	_, ok := s.documents[path]
	return ok
}

// Document returns the document of the path, or nil.
func (s Snapshot) Document(path string) *Document { return s.documents[path] }

func (s Snapshot) Find(path string) (*Document, bool) {
	doc, ok := s.documents[path]
	return doc, ok
}

// Paths returns the paths of all documents, sorted.
func (s Snapshot) Paths() []string {
	return slices.Sorted(maps.Keys(s.documents))
}

// All yields the documents ordered by path.
func (s Snapshot) All() iter.Seq2[string, *Document] {
	return func(yield func(string, *Document) bool) {
		for _, path := range s.Paths() {
			if !yield(path, s.documents[path]) {
				return
			}
		}
	}
}

// Equal reports whether both snapshots map the same paths to the same documents.
func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s.documents, other.documents)
}

func (s *Snapshot) mutate(change func(documents map[string]*Document)) {
	documents := maps.Clone(s.documents)
	if documents == nil {
		documents = make(map[string]*Document)
	}
	change(documents)
	s.documents = documents
	s.deps = &dependencyCache{}
}

// Insert publishes the document under its file name, replacing the previous one. Nil documents are ignored.
func (s *Snapshot) Insert(doc *Document) {
	if doc == nil {
		return
	}
	s.mutate(func(documents map[string]*Document) { documents[doc.FileName()] = doc })
}

// InsertAll publishes every document of the other snapshot.
func (s *Snapshot) InsertAll(other Snapshot) {
	if other.IsEmpty() {
		return
	}
	s.mutate(func(documents map[string]*Document) { maps.Copy(documents, other.documents) })
}

func (s *Snapshot) Remove(path string) {
	if !s.Contains(path) {
		return
	}
	s.mutate(func(documents map[string]*Document) { delete(documents, path) })
}

// DependencyTable returns the include graph of the snapshot, built on first use.
func (s Snapshot) DependencyTable() *DependencyTable {
	if s.deps == nil {
		return newDependencyTable(s.documents)
	}
	s.deps.once.Do(func() { s.deps.table = newDependencyTable(s.documents) })
	return s.deps.table
}

// FilesDependingOn returns every file including the path, directly or not.
func (s Snapshot) FilesDependingOn(path string) []string {
	return s.DependencyTable().FilesDependingOn(path)
}

// IncludeLocationsOfDocument returns every include directive resolved to the path, ordered by including file.
func (s Snapshot) IncludeLocationsOfDocument(path string) []IncludeLocation {
	var locations []IncludeLocation
	for _, includer := range s.DependencyTable().IncludedBy(path) {
		doc, ok := s.documents[includer]
		if !ok {
			continue
		}
		for _, include := range doc.resolvedIncludes {
			if include.ResolvedFileName == path {
				locations = append(locations, IncludeLocation{Document: doc, Line: include.Line})
			}
		}
	}
	return locations
}

// AllIncludesForDocument returns every file the path includes, directly or not.
func (s Snapshot) AllIncludesForDocument(path string) []string {
	return s.DependencyTable().IncludeClosure(path)
}

// Simplified returns the snapshot restricted to the document and the documents it includes.
func (s Snapshot) Simplified(doc *Document) Snapshot {
	result := NewSnapshot()
	if doc == nil {
		return result
	}
	result.documents = map[string]*Document{doc.FileName(): doc}
	for _, path := range s.AllIncludesForDocument(doc.FileName()) {
		if included, ok := s.documents[path]; ok {
			result.documents[path] = included
		}
	}
	return result
}

// newRevisionOf creates a document for the path carrying over the editor state of the document it replaces.
func (s Snapshot) newRevisionOf(fileName string) *Document {
	doc := NewDocument(fileName)
	if prior, ok := s.documents[fileName]; ok {
		doc.revision = prior.revision + 1
		doc.editorRevision = prior.editorRevision
		doc.lastModified = prior.lastModified
		doc.resolvedIncludes = slices.Clone(prior.resolvedIncludes)
		doc.unresolvedIncludes = slices.Clone(prior.unresolvedIncludes)
		doc.languageFeatures = prior.languageFeatures
	}
	return doc
}

// PreprocessedDocument preprocesses the source against the snapshot and returns a new document holding the output.
// With a positive untilLine the macros the snapshot's document for the file defined up to and including that line
// stay visible and are carried over into the new document, which previews an edit of the file without its later part.
func (s Snapshot) PreprocessedDocument(source []byte, fileName string, untilLine int) *Document {
	doc := s.newRevisionOf(fileName)
	fp := NewFastPreprocessor(s)
	doc.SetSource(fp.run(doc, source, untilLine))
	return doc
}

// DocumentFromSource wraps already preprocessed source into a new document for the file.
func (s Snapshot) DocumentFromSource(source []byte, fileName string) *Document {
	doc := s.newRevisionOf(fileName)
	doc.SetSource(source)
	return doc
}
