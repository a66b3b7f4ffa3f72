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
	"testing"

	"github.com/EngFlow/ccsnapshot/language/cc/pp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documentForTest creates a document including the files, one per line.
func documentForTest(name string, includes ...string) *Document {
	doc := NewDocument(name)
	for i, include := range includes {
		doc.addIncludeFile(Include{UnresolvedFileName: include, ResolvedFileName: include, Line: i + 1, Type: pp.IncludeLocal})
	}
	return doc
}

func snapshotForTest(docs ...*Document) Snapshot {
	var snapshot Snapshot
	for _, doc := range docs {
		snapshot.Insert(doc)
	}
	return snapshot
}

func TestSnapshotLookup(t *testing.T) {
	var snapshot Snapshot
	assert.True(t, snapshot.IsEmpty())
	assert.Nil(t, snapshot.Document("a.h"))

	a := NewDocument("a.h")
	snapshot.Insert(a)
	snapshot.Insert(nil)
	assert.Equal(t, 1, snapshot.Len())
	assert.True(t, snapshot.Contains("a.h"))
	assert.Same(t, a, snapshot.Document("a.h"))
	doc, ok := snapshot.Find("a.h")
	assert.True(t, ok)
	assert.Same(t, a, doc)
	_, ok = snapshot.Find("b.h")
	assert.False(t, ok)
}

func TestSnapshotCopyOnWrite(t *testing.T) {
	snapshot := NewSnapshot()
	a, b := NewDocument("a.h"), NewDocument("b.h")
	snapshot.Insert(a)

	view := snapshot
	snapshot.Insert(b)
	snapshot.Remove("a.h")

	assert.Equal(t, []string{"a.h"}, view.Paths())
	assert.Equal(t, []string{"b.h"}, snapshot.Paths())

	replaced := NewDocument("b.h")
	before := snapshot
	snapshot.Insert(replaced)
	assert.Same(t, b, before.Document("b.h"))
	assert.Same(t, replaced, snapshot.Document("b.h"))
}

func TestSnapshotInsertAllAndAll(t *testing.T) {
	first := snapshotForTest(NewDocument("b.h"), NewDocument("a.h"))
	second := snapshotForTest(NewDocument("c.h"))
	first.InsertAll(second)

	var paths []string
	for path, doc := range first.All() {
		assert.Equal(t, path, doc.FileName())
		paths = append(paths, path)
	}
	assert.Equal(t, []string{"a.h", "b.h", "c.h"}, paths)
	assert.Equal(t, 1, second.Len())
}

func TestSnapshotEqual(t *testing.T) {
	a := NewDocument("a.h")
	assert.True(t, snapshotForTest(a).Equal(snapshotForTest(a)))
	assert.False(t, snapshotForTest(a).Equal(snapshotForTest(NewDocument("a.h"))), "documents compare by identity")
	assert.False(t, snapshotForTest(a).Equal(Snapshot{}))
	assert.True(t, Snapshot{}.Equal(NewSnapshot()))
}

func TestSnapshotDependencies(t *testing.T) {
	snapshot := snapshotForTest(
		documentForTest("main.c", "a.h", "b.h"),
		documentForTest("a.h", "c.h"),
		documentForTest("b.h", "d.h", "e.h", "c.h"),
		documentForTest("c.h"),
		documentForTest("other.c", "b.h"),
	)

	assert.Equal(t, []string{"a.h", "b.h", "main.c", "other.c"}, snapshot.FilesDependingOn("c.h"))
	assert.Equal(t, []string{"main.c"}, snapshot.FilesDependingOn("a.h"))
	assert.Empty(t, snapshot.FilesDependingOn("main.c"))
	assert.Empty(t, snapshot.FilesDependingOn("unknown.h"))

	assert.Equal(t, []string{"a.h", "b.h", "c.h", "d.h", "e.h"}, snapshot.AllIncludesForDocument("main.c"))
	assert.Empty(t, snapshot.AllIncludesForDocument("c.h"))

	locations := snapshot.IncludeLocationsOfDocument("c.h")
	require.Len(t, locations, 2)
	assert.Equal(t, "a.h", locations[0].Document.FileName())
	assert.Equal(t, 1, locations[0].Line)
	assert.Equal(t, "b.h", locations[1].Document.FileName())
	assert.Equal(t, 3, locations[1].Line)

	// files missing from the snapshot still have include locations
	locations = snapshot.IncludeLocationsOfDocument("d.h")
	require.Len(t, locations, 1)
	assert.Equal(t, IncludeLocation{Document: snapshot.Document("b.h"), Line: 1}, locations[0])
	assert.Empty(t, snapshot.IncludeLocationsOfDocument("main.c"))
}

func TestSnapshotDependencyTableCaching(t *testing.T) {
	snapshot := snapshotForTest(documentForTest("main.c", "a.h"), documentForTest("a.h"))
	table := snapshot.DependencyTable()
	assert.Same(t, table, snapshot.DependencyTable())

	view := snapshot
	snapshot.Insert(documentForTest("b.c", "a.h"))
	assert.NotSame(t, table, snapshot.DependencyTable())
	assert.Same(t, table, view.DependencyTable())
	assert.Equal(t, []string{"b.c", "main.c"}, snapshot.FilesDependingOn("a.h"))
	assert.Equal(t, []string{"main.c"}, view.FilesDependingOn("a.h"))
}

func TestSnapshotSimplified(t *testing.T) {
	main := documentForTest("main.c", "a.h", "missing.h")
	snapshot := snapshotForTest(
		main,
		documentForTest("a.h", "b.h"),
		documentForTest("b.h"),
		documentForTest("unrelated.h"),
	)
	assert.Equal(t, []string{"a.h", "b.h", "main.c"}, snapshot.Simplified(main).Paths())
	assert.Equal(t, []string{"b.h"}, snapshot.Simplified(snapshot.Document("b.h")).Paths())
	assert.True(t, snapshot.Simplified(nil).IsEmpty())
}

func TestDependencyTable(t *testing.T) {
	snapshot := snapshotForTest(
		documentForTest("main.c", "x.h", "z.h"),
		documentForTest("x.h", "y.h"),
		documentForTest("y.h", "x.h"),
		documentForTest("z.h", "z.h"),
	)
	table := snapshot.DependencyTable()

	assert.Equal(t, []string{"main.c", "x.h", "y.h", "z.h"}, table.Files())
	assert.Equal(t, []string{"x.h", "z.h"}, table.DirectIncludes("main.c"))
	assert.Equal(t, []string{"main.c", "y.h"}, table.IncludedBy("x.h"))
	assert.Equal(t, []string{"main.c", "x.h", "y.h"}, table.FilesDependingOn("x.h"))
	assert.Equal(t, []string{"x.h", "y.h"}, table.IncludeClosure("x.h"))
	assert.Equal(t, [][]string{{"x.h", "y.h"}, {"z.h"}}, table.IncludeCycles())
	assert.Empty(t, snapshotForTest(documentForTest("main.c", "a.h")).DependencyTable().IncludeCycles())
}

func TestSnapshotDocumentFromSource(t *testing.T) {
	prior := documentForTest("a.c", "a.h")
	prior.setRevision(4)
	prior.SetEditorRevision(7)
	prior.SetLanguageFeatures(FeatureC99)
	snapshot := snapshotForTest(prior)

	doc := snapshot.DocumentFromSource([]byte("int a;\n"), "a.c")
	assert.Equal(t, 5, doc.Revision())
	assert.Equal(t, 7, doc.EditorRevision())
	assert.Equal(t, FeatureC99, doc.LanguageFeatures())
	assert.Equal(t, []string{"a.h"}, doc.IncludedFiles())
	assert.Equal(t, []byte("int a;\n"), doc.Source())
	assert.Same(t, prior, snapshot.Document("a.c"), "the snapshot is not changed")

	fresh := snapshot.DocumentFromSource([]byte("int b;\n"), "b.c")
	assert.Zero(t, fresh.Revision())
}
