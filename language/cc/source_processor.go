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
	"fmt"
	"path"
	"slices"

	"github.com/EngFlow/ccsnapshot/internal/collections"
	"github.com/EngFlow/ccsnapshot/internal/logging"
	"github.com/EngFlow/ccsnapshot/language/cc/pp"
	"github.com/EngFlow/ccsnapshot/language/internal/cc/parser"
	"github.com/EngFlow/ccsnapshot/language/internal/cc/platform"
	"github.com/charmbracelet/log"
)

// ConfigurationFileName is the document holding the predefined macros.
const ConfigurationFileName = "<configuration>"

// WorkingCopyEntry is the unsaved content of a file open in an editor.
type WorkingCopyEntry struct {
	Source   []byte
	Revision int
}

// WorkingCopy maps file paths to unsaved contents, which take precedence over the file system.
type WorkingCopy map[string]WorkingCopyEntry

type SourceProcessorOptions struct {
	Logger      *log.Logger
	WorkingCopy WorkingCopy

	// Predefined macros: platform macros first, then language macros, then Defines and Undefines.
	Platform  *platform.Platform
	Defines   []parser.MacroDefinition
	Undefines []string

	// Files processed before every translation unit, like -include.
	InitialIncludes []string

	// Zero detects the features from the name and content of each translation unit.
	LanguageFeatures LanguageFeatures

	KeepComments             bool
	ExpandFunctionLikeMacros bool
	MaxIncludeDepth          int
}

// SourceProcessor builds a snapshot out of files: each translation unit is preprocessed together with the headers it
// includes, recursively, and every processed file ends up as a document of the snapshot.
//
// Headers already in the snapshot are not read again, their macros are merged into the environment instead. Documents
// of the previous snapshot are reused when preprocessing a file gives the same output as before.
type SourceProcessor struct {
	snapshot Snapshot
	previous Snapshot
	resolver *IncludeResolver
	options  SourceProcessorOptions
	logger   *log.Logger

	env              *pp.Environment
	preprocess       *pp.Preprocessor
	currentDoc       *Document
	languageFeatures LanguageFeatures
	processed        collections.Set[string] // documents whose macros are in env
	included         collections.Set[string] // files seen in the current translation unit
}

var (
	_ pp.Client           = (*SourceProcessor)(nil)
	_ pp.DiagnosticClient = (*SourceProcessor)(nil)
	_ pp.PragmaClient     = (*SourceProcessor)(nil)
)

// NewSourceProcessor creates a processor reading files through resolver. Documents of previous are reused when their
// content did not change.
func NewSourceProcessor(previous Snapshot, resolver *IncludeResolver, options SourceProcessorOptions) *SourceProcessor {
	sp := &SourceProcessor{
		snapshot: NewSnapshot(),
		previous: previous,
		resolver: resolver,
		options:  options,
		logger:   options.Logger,
		env:      pp.NewEnvironment(),
	}
	if sp.logger == nil {
		sp.logger = logging.Discard()
	}
	sp.preprocess = pp.New(sp, sp.env)
	sp.preprocess.SetKeepComments(options.KeepComments)
	sp.preprocess.SetExpandFunctionLikeMacros(options.ExpandFunctionLikeMacros)
	if options.MaxIncludeDepth > 0 {
		sp.preprocess.SetMaxIncludeDepth(options.MaxIncludeDepth)
	}
	return sp
}

// Snapshot returns the documents processed so far.
func (sp *SourceProcessor) Snapshot() Snapshot { return sp.snapshot }

// RemoveFromCache drops the document of the file, so that the next translation unit including it reads it again.
func (sp *SourceProcessor) RemoveFromCache(fileName string) { sp.snapshot.Remove(cleanPath(fileName)) }

func (sp *SourceProcessor) resetEnvironment() {
	sp.env.Reset()
	sp.processed = make(collections.Set[string])
	sp.included = make(collections.Set[string])
	sp.currentDoc = nil
}

// Run processes the translation unit of the file and returns its document. The file is always read again, headers
// are read only when the snapshot has no document for them yet.
func (sp *SourceProcessor) Run(fileName string) (*Document, error) {
	fileName = cleanPath(fileName)
	sp.resetEnvironment()
	sp.snapshot.Remove(fileName)

	contents, _, err := sp.fileContents(fileName)
	if err != nil {
		return nil, err
	}
	sp.languageFeatures = sp.options.LanguageFeatures
	if sp.languageFeatures == 0 {
		sp.languageFeatures = DetectLanguageFeatures(fileName, contents)
	}
	if err := sp.processConfiguration(); err != nil {
		return nil, err
	}

	sp.preprocess.SetInitialIncludes(sp.options.InitialIncludes)
	sp.process(fileName)
	doc, ok := sp.snapshot.Find(fileName)
	if !ok {
		return nil, fmt.Errorf("processing %s: %w", fileName, ErrFileNotFound)
	}
	return doc, nil
}

// PredefinedMacros returns the macros defined before any file is read, in definition order.
func (sp *SourceProcessor) PredefinedMacros() ([]parser.MacroDefinition, error) {
	var macros []parser.MacroDefinition
	if sp.options.Platform != nil {
		macros = append(macros, platform.PredefinedMacros(*sp.options.Platform)...)
	}
	languageMacros, err := platform.LanguageMacros(sp.languageFeatures.Dialect())
	if err != nil {
		return nil, err
	}
	macros = append(macros, languageMacros...)
	return append(macros, sp.options.Defines...), nil
}

func (sp *SourceProcessor) processConfiguration() error {
	macros, err := sp.PredefinedMacros()
	if err != nil {
		return err
	}
	doc := sp.newDocument(ConfigurationFileName)
	source := parser.CommandLineSource(macros, sp.options.Undefines)
	sp.withCurrentDocument(doc, func() {
		doc.SetSource(sp.preprocess.Run(ConfigurationFileName, source))
	})
	sp.processed.Add(ConfigurationFileName)
	sp.snapshot.Insert(doc)
	return nil
}

func (sp *SourceProcessor) withCurrentDocument(doc *Document, run func()) {
	previous := sp.currentDoc
	sp.currentDoc = doc
	defer func() { sp.currentDoc = previous }()
	run()
}

func (sp *SourceProcessor) newDocument(fileName string) *Document {
	doc := NewDocument(fileName)
	doc.SetLanguageFeatures(sp.languageFeatures)
	for _, snapshot := range []Snapshot{sp.snapshot, sp.previous} {
		if prior, ok := snapshot.Find(fileName); ok {
			doc.setRevision(max(doc.Revision(), prior.Revision()+1))
		}
	}
	return doc
}

func (sp *SourceProcessor) fileContents(fileName string) ([]byte, int, error) {
	if entry, ok := sp.options.WorkingCopy[fileName]; ok {
		return entry.Source, entry.Revision, nil
	}
	if sp.resolver == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
	}
	contents, err := sp.resolver.ReadFile(fileName)
	return contents, 0, err
}

func (sp *SourceProcessor) resolveFile(fileName string, mode pp.IncludeType) string {
	current := sp.currentDoc.FileName()
	if mode == pp.IncludeLocal {
		local := path.Join(path.Dir(current), fileName)
		if _, ok := sp.options.WorkingCopy[local]; ok {
			return local
		}
	}
	if sp.resolver != nil {
		if resolved, ok := sp.resolver.Resolve(fileName, mode, current); ok {
			return resolved
		}
	}
	verbatim := cleanPath(fileName)
	if _, ok := sp.options.WorkingCopy[verbatim]; ok {
		return verbatim
	}
	if sp.resolver != nil && sp.resolver.Exists(verbatim) {
		return verbatim
	}
	return ""
}

func (sp *SourceProcessor) SourceNeeded(line int, fileName string, mode pp.IncludeType, initialIncludes []string) {
	if fileName == "" || sp.currentDoc == nil {
		return
	}
	resolved := sp.resolveFile(fileName, mode)
	sp.currentDoc.addIncludeFile(Include{
		UnresolvedFileName: fileName,
		ResolvedFileName:   resolved,
		Line:               line,
		Type:               mode,
	})
	if resolved == "" {
		sp.currentDoc.AddDiagnosticMessage(DiagnosticMessage{
			Level:    pp.Warning,
			FileName: sp.currentDoc.FileName(),
			Line:     line,
			Text:     fmt.Sprintf("%s: No such file or directory", fileName),
		})
		sp.logger.Debug("Unresolved include", logging.FieldPath, fileName, logging.FieldIncludedFrom, sp.currentDoc.FileName())
		return
	}
	sp.process(resolved)
}

// process preprocesses the file unless it was already seen in this translation unit.
func (sp *SourceProcessor) process(fileName string) {
	if sp.included.Contains(fileName) {
		return
	}
	sp.included.Add(fileName)

	if doc, ok := sp.snapshot.Find(fileName); ok {
		if guard := doc.IncludeGuardMacroName(); guard != "" && guard != pp.PragmaOnceGuard && sp.env.IsDefined(guard) {
			sp.logger.Debug("Skipping guarded file", logging.FieldPath, fileName, logging.FieldIncludeGuard, guard)
			return
		}
		sp.mergeEnvironment(doc)
		return
	}

	contents, editorRevision, err := sp.fileContents(fileName)
	if err != nil {
		sp.logger.Warn("Cannot read file", logging.FieldPath, fileName, logging.FieldError, err)
		if sp.currentDoc != nil {
			sp.currentDoc.AddDiagnosticMessage(DiagnosticMessage{
				Level:    pp.Warning,
				FileName: sp.currentDoc.FileName(),
				Text:     fmt.Sprintf("%s: could not read file: %v", fileName, err),
			})
		}
		return
	}
	sp.logger.Debug("Processing", logging.FieldPath, fileName, logging.FieldBytes, len(contents))

	doc := sp.newDocument(fileName)
	doc.SetEditorRevision(editorRevision)
	if sp.resolver != nil {
		doc.SetLastModified(sp.resolver.LastModified(fileName))
	}
	var output []byte
	sp.withCurrentDocument(doc, func() { output = sp.preprocess.Run(fileName, contents) })
	sp.processed.Add(fileName)

	prior, ok := sp.previous.Find(fileName)
	if ok && prior.Fingerprint() == ComputeFingerprint(output) && sameDeclarations(prior, doc) {
		sp.logger.Debug("Reusing unchanged document", logging.FieldPath, fileName, logging.FieldRevision, prior.Revision())
		sp.snapshot.Insert(prior)
		return
	}
	doc.SetSource(output)
	if _, ok := sp.options.WorkingCopy[fileName]; ok {
		doc.checkMode = FullCheck
	} else {
		doc.checkMode = FastCheck
	}
	sp.snapshot.Insert(doc)
}

// sameDeclarations reports whether the documents define the same macros, include the same files and share the
// include guard. Equal output alone does not cover a header whose definitions changed but are not used within it.
func sameDeclarations(prior, doc *Document) bool {
	return prior.includeGuardMacroName == doc.includeGuardMacroName &&
		slices.Equal(prior.resolvedIncludes, doc.resolvedIncludes) &&
		slices.Equal(prior.unresolvedIncludes, doc.unresolvedIncludes) &&
		slices.EqualFunc(prior.definedMacros, doc.definedMacros, pp.Macro.Equal)
}

// mergeEnvironment defines the macros of the document and of the files it includes.
func (sp *SourceProcessor) mergeEnvironment(doc *Document) {
	if sp.processed.Contains(doc.FileName()) {
		return
	}
	sp.processed.Add(doc.FileName())
	for _, include := range doc.resolvedIncludes {
		if included, ok := sp.snapshot.Find(include.ResolvedFileName); ok {
			sp.mergeEnvironment(included)
		} else if !sp.included.Contains(include.ResolvedFileName) {
			sp.process(include.ResolvedFileName)
		}
	}
	sp.env.AddMacros(doc.definedMacros)
}

func (sp *SourceProcessor) MacroAdded(macro pp.Macro) {
	if sp.currentDoc != nil {
		sp.currentDoc.appendMacro(macro)
	}
}

func (sp *SourceProcessor) PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, macro pp.Macro) {
	if sp.currentDoc != nil {
		sp.currentDoc.addMacroUse(stampRevision(sp.snapshot, sp.currentDoc, macro), bytesOffset, utf16Offset, line, nil)
	}
}

func (sp *SourceProcessor) FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string) {
	if sp.currentDoc != nil {
		sp.currentDoc.addUndefinedMacroUse(name, bytesOffset, utf16Offset)
	}
}

func (sp *SourceProcessor) NotifyMacroReference(bytesOffset, utf16Offset, line int, macro pp.Macro) {
	if sp.currentDoc != nil {
		sp.currentDoc.addMacroUse(stampRevision(sp.snapshot, sp.currentDoc, macro), bytesOffset, utf16Offset, line, nil)
	}
}

func (sp *SourceProcessor) StartExpandingMacro(bytesOffset, utf16Offset, line int, macro pp.Macro, actuals []pp.MacroArgumentReference) {
	if sp.currentDoc != nil {
		sp.currentDoc.addMacroUse(stampRevision(sp.snapshot, sp.currentDoc, macro), bytesOffset, utf16Offset, line, actuals)
	}
}

func (sp *SourceProcessor) StopExpandingMacro(int, pp.Macro) {}

func (sp *SourceProcessor) MarkAsIncludeGuard(macroName string) {
	if sp.currentDoc != nil {
		sp.currentDoc.setIncludeGuardMacroName(macroName)
	}
}

func (sp *SourceProcessor) StartSkippingBlocks(bytesOffset, utf16Offset int) {
	if sp.currentDoc != nil {
		sp.currentDoc.startSkippingBlocks(bytesOffset, utf16Offset)
	}
}

func (sp *SourceProcessor) StopSkippingBlocks(bytesOffset, utf16Offset int) {
	if sp.currentDoc != nil {
		sp.currentDoc.stopSkippingBlocks(bytesOffset, utf16Offset)
	}
}

func (sp *SourceProcessor) ReportDiagnostic(diagnostic pp.Diagnostic) {
	if sp.currentDoc != nil {
		sp.currentDoc.AddDiagnosticMessage(diagnostic)
	}
	sp.logger.Debug("Diagnostic", logging.FieldDiagnostic, diagnostic.String())
}

func (sp *SourceProcessor) PragmaSeen(pragma pp.Pragma) {
	if sp.currentDoc != nil {
		sp.currentDoc.addPragma(pragma)
	}
}
