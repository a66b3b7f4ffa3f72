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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
	"github.com/EngFlow/ccsnapshot/language/cc/pp"
)

// Include is one #include directive of a document.
type Include struct {
	UnresolvedFileName string // as spelled in the directive
	ResolvedFileName   string // empty for unresolved includes
	Line               int
	Type               pp.IncludeType
}

// Block is a range of the document source, both in bytes and in UTF-16 code units.
type Block struct {
	BytesBegin int
	BytesEnd   int
	UTF16Begin int
	UTF16End   int
}

// Contains reports whether the byte offset lies inside the block.
func (b Block) Contains(bytesOffset int) bool {
	return bytesOffset >= b.BytesBegin && bytesOffset < b.BytesEnd
}

// MacroUse is an expansion or a reference of a defined macro.
type MacroUse struct {
	Macro     pp.Macro
	Block     Block
	BeginLine int
	Arguments []Block
}

// UndefinedMacroUse is a name that looked like a macro but had no definition when it was used.
type UndefinedMacroUse struct {
	Name  string
	Block Block
}

// DiagnosticMessage is a problem found while processing a document.
type DiagnosticMessage = pp.Diagnostic

// LanguageFeatures are the language dialect flags of a document.
type LanguageFeatures uint32

const (
	FeatureCXX LanguageFeatures = 1 << iota
	FeatureCXX11
	FeatureCXX14
	FeatureCXX17
	FeatureCXX20
	FeatureC99
	FeatureC11
	FeatureObjC
)

// Has reports whether all flags of other are set.
func (f LanguageFeatures) Has(other LanguageFeatures) bool { return f&other == other }

type CheckMode int

const (
	Unchecked CheckMode = iota
	FullCheck
	FastCheck
)

// ParseMode selects what the parser reads the document as.
type ParseMode int

const (
	ParseTranslationUnit ParseMode = iota
	ParseDeclaration
	ParseExpression
	ParseDeclarator
	ParseStatement
)

// Stage is how far a document went through processing.
type Stage int

const (
	StageCreated Stage = iota
	StageTokenized
	StageParsed
	StageChecked
)

func (s Stage) String() string {
	switch s {
	case StageTokenized:
		return "tokenized"
	case StageParsed:
		return "parsed"
	case StageChecked:
		return "checked"
	default:
		return "created"
	}
}

// Symbol is a declaration known to the parser.
type Symbol interface {
	Name() string
	Line() int
	Column() int
}

// Scope is a lexical scope known to the parser.
type Scope interface {
	Symbol
	Enclosing() (Scope, bool)
}

// Namespace answers positional queries over the symbols of a parsed document.
type Namespace interface {
	FunctionAt(line, column int) (Symbol, bool)
	LastVisibleSymbolAt(line, column int) (Symbol, bool)
	ScopeAt(line, column int) (Scope, bool)
}

// TranslationUnit is the syntax tree the parser built for a document.
type TranslationUnit interface {
	Mode() ParseMode
}

// Parser builds translation units out of preprocessed documents.
type Parser interface {
	Parse(doc *Document, mode ParseMode) (TranslationUnit, error)
}

var (
	ErrSourceReleased = errors.New("document source is not retained")
	ErrNotParsed      = errors.New("document is not parsed")
)

// Fingerprint identifies the content of a source file.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// IsZero reports whether the fingerprint was never computed.
func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

var utf8BOM = []byte("\xef\xbb\xbf")

// ComputeFingerprint hashes the source with a leading byte order mark removed and CRLF line endings turned into LF,
// so that encodings of the same text agree.
func ComputeFingerprint(source []byte) Fingerprint {
	normalized := bytes.TrimPrefix(source, utf8BOM)
	if bytes.Contains(normalized, []byte("\r\n")) {
		normalized = bytes.ReplaceAll(normalized, []byte("\r\n"), []byte("\n"))
	}
	return sha256.Sum256(normalized)
}

type translationUnitBox struct{ unit TranslationUnit }

// Document is the record of one processed file: what the preprocessor learned about it and, when a parser ran, its
// translation unit.
//
// A document is built by a single goroutine and then published into a Snapshot. Published documents are treated as
// immutable. Source retention is the exception: KeepSourceAndAST and ReleaseSourceAndAST may be called from any
// goroutine.
type Document struct {
	fileName         string
	revision         int
	editorRevision   int
	lastModified     time.Time
	fingerprint      Fingerprint
	languageFeatures LanguageFeatures
	checkMode        CheckMode
	parseMode        ParseMode
	stage            Stage

	resolvedIncludes      []Include
	unresolvedIncludes    []Include
	definedMacros         []pp.Macro
	skippedBlocks         []Block
	macroUses             []MacroUse
	undefinedMacroUses    []UndefinedMacroUse
	includeGuardMacroName string
	pragmas               []pp.Pragma
	diagnosticMessages    []DiagnosticMessage

	globalNamespace Namespace

	retained        atomic.Int32
	source          atomic.Pointer[[]byte]
	translationUnit atomic.Pointer[translationUnitBox]
}

// NewDocument creates an empty document for the file.
func NewDocument(fileName string) *Document {
	return &Document{fileName: fileName}
}

func (d *Document) FileName() string                   { return d.fileName }
func (d *Document) Revision() int                      { return d.revision }
func (d *Document) EditorRevision() int                { return d.editorRevision }
func (d *Document) LastModified() time.Time            { return d.lastModified }
func (d *Document) Fingerprint() Fingerprint           { return d.fingerprint }
func (d *Document) LanguageFeatures() LanguageFeatures { return d.languageFeatures }
func (d *Document) CheckMode() CheckMode               { return d.checkMode }
func (d *Document) ParseMode() ParseMode               { return d.parseMode }
func (d *Document) Stage() Stage                       { return d.stage }
func (d *Document) IncludeGuardMacroName() string      { return d.includeGuardMacroName }

func (d *Document) SetEditorRevision(revision int)                { d.editorRevision = revision }
func (d *Document) SetLastModified(lastModified time.Time)        { d.lastModified = lastModified }
func (d *Document) SetLanguageFeatures(features LanguageFeatures) { d.languageFeatures = features }

func (d *Document) ResolvedIncludes() []Include   { return slices.Clone(d.resolvedIncludes) }
func (d *Document) UnresolvedIncludes() []Include { return slices.Clone(d.unresolvedIncludes) }
func (d *Document) DefinedMacros() []pp.Macro     { return slices.Clone(d.definedMacros) }
func (d *Document) SkippedBlocks() []Block        { return slices.Clone(d.skippedBlocks) }
func (d *Document) MacroUses() []MacroUse         { return slices.Clone(d.macroUses) }
func (d *Document) Pragmas() []pp.Pragma          { return slices.Clone(d.pragmas) }
func (d *Document) DiagnosticMessages() []DiagnosticMessage {
	return slices.Clone(d.diagnosticMessages)
}

func (d *Document) UndefinedMacroUses() []UndefinedMacroUse {
	return slices.Clone(d.undefinedMacroUses)
}

// IncludedFiles returns the resolved file names of all includes, in directive order.
func (d *Document) IncludedFiles() []string {
	files := make([]string, 0, len(d.resolvedIncludes))
	for _, include := range d.resolvedIncludes {
		files = append(files, include.ResolvedFileName)
	}
	return files
}

// AddDiagnosticMessage records a problem, typically found by the parser.
func (d *Document) AddDiagnosticMessage(message DiagnosticMessage) {
	d.diagnosticMessages = append(d.diagnosticMessages, message)
}

func (d *Document) ClearDiagnosticMessages() { d.diagnosticMessages = nil }

// Source returns the retained source, or nil once it was released.
func (d *Document) Source() []byte {
	if source := d.source.Load(); source != nil {
		return *source
	}
	return nil
}

// SetSource stores the source and its fingerprint and marks the document as tokenized.
func (d *Document) SetSource(source []byte) {
	d.source.Store(&source)
	d.fingerprint = ComputeFingerprint(source)
	d.stage = max(d.stage, StageTokenized)
}

// ReleaseSource drops the source unless it is retained.
func (d *Document) ReleaseSource() {
	if d.retained.Load() == 0 {
		d.source.Store(nil)
	}
}

// ReleaseTranslationUnit drops the translation unit unless it is retained.
func (d *Document) ReleaseTranslationUnit() {
	if d.retained.Load() == 0 {
		d.translationUnit.Store(nil)
	}
}

// KeepSourceAndAST keeps the source and the translation unit alive until the matching ReleaseSourceAndAST.
func (d *Document) KeepSourceAndAST() { d.retained.Add(1) }

// ReleaseSourceAndAST ends one KeepSourceAndAST. The last release drops the source and the translation unit.
// A release without a matching keep is ignored.
func (d *Document) ReleaseSourceAndAST() {
	for {
		n := d.retained.Load()
		if n <= 0 {
			return
		}
		if d.retained.CompareAndSwap(n, n-1) {
			if n == 1 {
				d.source.Store(nil)
				d.translationUnit.Store(nil)
			}
			return
		}
	}
}

// IsRetained reports whether some KeepSourceAndAST is outstanding.
func (d *Document) IsRetained() bool { return d.retained.Load() > 0 }

// Parse runs the parser over the retained source.
func (d *Document) Parse(parser Parser, mode ParseMode) error {
	if d.Source() == nil {
		return ErrSourceReleased
	}
	d.parseMode = mode
	unit, err := parser.Parse(d, mode)
	if err != nil {
		return err
	}
	d.translationUnit.Store(&translationUnitBox{unit: unit})
	d.stage = max(d.stage, StageParsed)
	return nil
}

// Check records the check mode of a parsed document.
func (d *Document) Check(mode CheckMode) error {
	if d.stage < StageParsed {
		return ErrNotParsed
	}
	d.checkMode = mode
	d.stage = StageChecked
	return nil
}

// TranslationUnit returns the parsed translation unit, if still retained.
func (d *Document) TranslationUnit() (TranslationUnit, bool) {
	if box := d.translationUnit.Load(); box != nil {
		return box.unit, true
	}
	return nil, false
}

func (d *Document) SetGlobalNamespace(namespace Namespace) { d.globalNamespace = namespace }
func (d *Document) GlobalNamespace() Namespace             { return d.globalNamespace }

// FunctionAt returns the function enclosing the position, as known to the global namespace.
func (d *Document) FunctionAt(line, column int) (Symbol, bool) {
	if d.globalNamespace == nil {
		return nil, false
	}
	return d.globalNamespace.FunctionAt(line, column)
}

func (d *Document) LastVisibleSymbolAt(line, column int) (Symbol, bool) {
	if d.globalNamespace == nil {
		return nil, false
	}
	return d.globalNamespace.LastVisibleSymbolAt(line, column)
}

func (d *Document) ScopeAt(line, column int) (Scope, bool) {
	if d.globalNamespace == nil {
		return nil, false
	}
	return d.globalNamespace.ScopeAt(line, column)
}

// MacroUseAt returns the macro use covering the byte offset.
func (d *Document) MacroUseAt(bytesOffset int) (MacroUse, bool) {
	for _, use := range d.macroUses {
		if use.Block.Contains(bytesOffset) {
			return use, true
		}
	}
	return MacroUse{}, false
}

func (d *Document) UndefinedMacroUseAt(bytesOffset int) (UndefinedMacroUse, bool) {
	for _, use := range d.undefinedMacroUses {
		if use.Block.Contains(bytesOffset) {
			return use, true
		}
	}
	return UndefinedMacroUse{}, false
}

// IsSkipped reports whether the byte offset lies in a block excluded by conditional compilation.
func (d *Document) IsSkipped(bytesOffset int) bool {
	return slices.ContainsFunc(d.skippedBlocks, func(b Block) bool { return b.Contains(bytesOffset) })
}

// Mutators used while the document is being built.

func (d *Document) setRevision(revision int) { d.revision = revision }

func (d *Document) addIncludeFile(include Include) {
	if include.ResolvedFileName == "" {
		d.unresolvedIncludes = append(d.unresolvedIncludes, include)
	} else {
		d.resolvedIncludes = append(d.resolvedIncludes, include)
	}
}

func (d *Document) appendMacro(macro pp.Macro) { d.definedMacros = append(d.definedMacros, macro) }

func (d *Document) addMacroUse(macro pp.Macro, bytesOffset, utf16Offset, line int, actuals []pp.MacroArgumentReference) {
	use := MacroUse{
		Macro: macro,
		Block: Block{
			BytesBegin: bytesOffset,
			BytesEnd:   bytesOffset + len(macro.Name()),
			UTF16Begin: utf16Offset,
			UTF16End:   utf16Offset + lexer.UTF16Len(macro.Name()),
		},
		BeginLine: line,
	}
	for _, actual := range actuals {
		use.Arguments = append(use.Arguments, Block{
			BytesBegin: actual.BytesOffset,
			BytesEnd:   actual.BytesOffset + actual.BytesLength,
			UTF16Begin: actual.UTF16Offset,
			UTF16End:   actual.UTF16Offset + actual.UTF16Length,
		})
	}
	d.macroUses = append(d.macroUses, use)
}

func (d *Document) addUndefinedMacroUse(name string, bytesOffset, utf16Offset int) {
	d.undefinedMacroUses = append(d.undefinedMacroUses, UndefinedMacroUse{
		Name: name,
		Block: Block{
			BytesBegin: bytesOffset,
			BytesEnd:   bytesOffset + len(name),
			UTF16Begin: utf16Offset,
			UTF16End:   utf16Offset + lexer.UTF16Len(name),
		},
	})
}

func (d *Document) setIncludeGuardMacroName(name string) { d.includeGuardMacroName = name }

func (d *Document) addPragma(pragma pp.Pragma) { d.pragmas = append(d.pragmas, pragma) }

func (d *Document) startSkippingBlocks(bytesOffset, utf16Offset int) {
	d.skippedBlocks = append(d.skippedBlocks, Block{BytesBegin: bytesOffset, UTF16Begin: utf16Offset})
}

// stopSkippingBlocks closes the last skipped block. A block ending before it starts is dropped.
func (d *Document) stopSkippingBlocks(bytesOffset, utf16Offset int) {
	if len(d.skippedBlocks) == 0 {
		return
	}
	last := &d.skippedBlocks[len(d.skippedBlocks)-1]
	if last.BytesBegin > bytesOffset {
		d.skippedBlocks = d.skippedBlocks[:len(d.skippedBlocks)-1]
		return
	}
	last.BytesEnd, last.UTF16End = bytesOffset, utf16Offset
}
