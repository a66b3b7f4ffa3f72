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
	"math"
	"path"

	"github.com/EngFlow/ccsnapshot/internal/collections"
	"github.com/EngFlow/ccsnapshot/language/cc/pp"
)

// FastPreprocessor preprocesses a single document against a snapshot. Included files are not read: the macros they
// define are taken from their documents in the snapshot, following their resolved includes.
//
// A FastPreprocessor is used by one goroutine at a time.
type FastPreprocessor struct {
	snapshot   Snapshot
	resolver   *IncludeResolver
	env        *pp.Environment
	preprocess *pp.Preprocessor

	currentDoc              *Document
	merged                  collections.Set[string]
	addIncludesToCurrentDoc bool
}

var (
	_ pp.Client           = (*FastPreprocessor)(nil)
	_ pp.DiagnosticClient = (*FastPreprocessor)(nil)
	_ pp.PragmaClient     = (*FastPreprocessor)(nil)
)

func NewFastPreprocessor(snapshot Snapshot) *FastPreprocessor {
	fp := &FastPreprocessor{snapshot: snapshot, env: pp.NewEnvironment()}
	fp.preprocess = pp.New(fp, fp.env)
	fp.preprocess.SetExpandFunctionLikeMacros(false)
	fp.preprocess.SetKeepComments(true)
	return fp
}

// SetIncludeResolver makes includes missing from the snapshot's documents resolvable through search paths.
func (fp *FastPreprocessor) SetIncludeResolver(resolver *IncludeResolver) { fp.resolver = resolver }

// Run preprocesses the source into doc and returns the output. Includes found while running are recorded on doc only
// when it has none yet. With mergeDefinedMacrosOfDocument the macros of the snapshot's document for the same file are
// defined before the source is read and carried over into doc.
func (fp *FastPreprocessor) Run(doc *Document, source []byte, mergeDefinedMacrosOfDocument bool) []byte {
	untilLine := 0
	if mergeDefinedMacrosOfDocument {
		untilLine = math.MaxInt
	}
	return fp.run(doc, source, untilLine)
}

func (fp *FastPreprocessor) run(doc *Document, source []byte, untilLine int) []byte {
	previousDoc := fp.currentDoc
	fp.currentDoc = doc
	defer func() { fp.currentDoc = previousDoc }()

	fp.env.Reset()
	fp.merged = make(collections.Set[string])
	fp.addIncludesToCurrentDoc = len(doc.resolvedIncludes) == 0 && len(doc.unresolvedIncludes) == 0

	if prior, ok := fp.snapshot.Find(doc.FileName()); ok {
		fp.merged.Add(doc.FileName())
		for _, include := range prior.resolvedIncludes {
			fp.mergeEnvironment(include.ResolvedFileName)
		}
		for _, macro := range prior.definedMacros {
			if macro.Line() <= untilLine {
				fp.env.AddMacro(macro)
				doc.appendMacro(macro)
			}
		}
	}
	return fp.preprocess.Run(doc.FileName(), source)
}

// mergeEnvironment defines the macros of the file and of everything it includes, visiting every file once.
func (fp *FastPreprocessor) mergeEnvironment(fileName string) {
	if fp.merged.Contains(fileName) {
		return
	}
	fp.merged.Add(fileName)
	doc, ok := fp.snapshot.Find(fileName)
	if !ok {
		return
	}
	for _, include := range doc.resolvedIncludes {
		fp.mergeEnvironment(include.ResolvedFileName)
	}
	fp.env.AddMacros(doc.definedMacros)
}

func (fp *FastPreprocessor) resolveInclude(fileName string, mode pp.IncludeType) (string, bool) {
	current := fp.currentDoc.FileName()
	known := fp.currentDoc.resolvedIncludes
	if prior, ok := fp.snapshot.Find(current); ok {
		known = append(known[:len(known):len(known)], prior.resolvedIncludes...)
	}
	for _, include := range known {
		if include.UnresolvedFileName == fileName && include.Type == mode {
			return include.ResolvedFileName, true
		}
	}
	if fp.resolver != nil {
		if resolved, ok := fp.resolver.Resolve(fileName, mode, current); ok {
			return resolved, true
		}
	}
	if relative := path.Join(path.Dir(current), fileName); fp.snapshot.Contains(relative) {
		return relative, true
	}
	if verbatim := path.Clean(fileName); fp.snapshot.Contains(verbatim) {
		return verbatim, true
	}
	return "", false
}

// stampRevision stamps the macro with the revision of the document defining it, which is either the document being
// built or one of the snapshot.
func stampRevision(snapshot Snapshot, current *Document, macro pp.Macro) pp.Macro {
	if current != nil && macro.FileName() == current.FileName() {
		return macro.WithFileRevision(current.Revision())
	}
	if doc, ok := snapshot.Find(macro.FileName()); ok {
		return macro.WithFileRevision(doc.Revision())
	}
	return macro
}

func (fp *FastPreprocessor) revision(macro pp.Macro) pp.Macro {
	return stampRevision(fp.snapshot, fp.currentDoc, macro)
}

func (fp *FastPreprocessor) SourceNeeded(line int, fileName string, mode pp.IncludeType, initialIncludes []string) {
	resolved, ok := fp.resolveInclude(fileName, mode)
	if fp.addIncludesToCurrentDoc {
		fp.currentDoc.addIncludeFile(Include{
			UnresolvedFileName: fileName,
			ResolvedFileName:   resolved,
			Line:               line,
			Type:               mode,
		})
	}
	if ok {
		fp.mergeEnvironment(resolved)
	}
}

func (fp *FastPreprocessor) MacroAdded(macro pp.Macro) { fp.currentDoc.appendMacro(macro) }

func (fp *FastPreprocessor) PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, macro pp.Macro) {
	fp.currentDoc.addMacroUse(fp.revision(macro), bytesOffset, utf16Offset, line, nil)
}

func (fp *FastPreprocessor) FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string) {
	fp.currentDoc.addUndefinedMacroUse(name, bytesOffset, utf16Offset)
}

func (fp *FastPreprocessor) NotifyMacroReference(bytesOffset, utf16Offset, line int, macro pp.Macro) {
	fp.currentDoc.addMacroUse(fp.revision(macro), bytesOffset, utf16Offset, line, nil)
}

func (fp *FastPreprocessor) StartExpandingMacro(bytesOffset, utf16Offset, line int, macro pp.Macro, actuals []pp.MacroArgumentReference) {
	fp.currentDoc.addMacroUse(fp.revision(macro), bytesOffset, utf16Offset, line, actuals)
}

func (fp *FastPreprocessor) StopExpandingMacro(int, pp.Macro) {}

func (fp *FastPreprocessor) MarkAsIncludeGuard(macroName string) {
	fp.currentDoc.setIncludeGuardMacroName(macroName)
}

func (fp *FastPreprocessor) StartSkippingBlocks(bytesOffset, utf16Offset int) {
	fp.currentDoc.startSkippingBlocks(bytesOffset, utf16Offset)
}

func (fp *FastPreprocessor) StopSkippingBlocks(bytesOffset, utf16Offset int) {
	fp.currentDoc.stopSkippingBlocks(bytesOffset, utf16Offset)
}

func (fp *FastPreprocessor) ReportDiagnostic(diagnostic pp.Diagnostic) {
	fp.currentDoc.AddDiagnosticMessage(diagnostic)
}

func (fp *FastPreprocessor) PragmaSeen(pragma pp.Pragma) { fp.currentDoc.addPragma(pragma) }
