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

import "fmt"

// IncludeType tells how an included file was requested.
type IncludeType int

const (
	IncludeLocal  IncludeType = iota // #include "file"
	IncludeGlobal                    // #include <file>
	IncludeNext                      // #include_next
)

func (t IncludeType) String() string {
	switch t {
	case IncludeGlobal:
		return "global"
	case IncludeNext:
		return "next"
	default:
		return "local"
	}
}

// PragmaOnceGuard is passed to Client.MarkAsIncludeGuard for files protected by `#pragma once`.
const PragmaOnceGuard = "#pragma once"

// MacroArgumentReference locates one actual argument of a function-like macro invocation in the source.
type MacroArgumentReference struct {
	BytesOffset int
	BytesLength int
	UTF16Offset int
	UTF16Length int
}

// Client receives everything the preprocessor learns about a file while it runs. Offsets refer to the source passed
// to Preprocessor.Run; lines are 1-based.
//
// SourceNeeded is called for every #include in active code. The client may process the file by calling Run on the same
// Preprocessor before returning.
type Client interface {
	MacroAdded(macro Macro)
	PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, macro Macro)
	FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string)
	NotifyMacroReference(bytesOffset, utf16Offset, line int, macro Macro)
	StartExpandingMacro(bytesOffset, utf16Offset, line int, macro Macro, actuals []MacroArgumentReference)
	StopExpandingMacro(bytesOffset int, macro Macro)
	MarkAsIncludeGuard(macroName string)
	StartSkippingBlocks(bytesOffset, utf16Offset int)
	StopSkippingBlocks(bytesOffset, utf16Offset int)
	SourceNeeded(line int, fileName string, mode IncludeType, initialIncludes []string)
}

// DiagnosticLevel is the severity of a Diagnostic.
type DiagnosticLevel int

const (
	Warning DiagnosticLevel = iota
	Error
	Fatal
)

func (l DiagnosticLevel) String() string {
	switch l {
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "warning"
	}
}

// Diagnostic is a problem found in the preprocessed source.
type Diagnostic struct {
	Level    DiagnosticLevel
	FileName string
	Line     int
	Column   int
	Length   int
	Text     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.FileName, d.Line, d.Column, d.Level, d.Text)
}

// DiagnosticClient is implemented by clients that want diagnostics.
type DiagnosticClient interface {
	ReportDiagnostic(diagnostic Diagnostic)
}

// Pragma is a `#pragma` seen in active code.
type Pragma struct {
	Tokens []string
	Line   int
}

// PragmaClient is implemented by clients that want to see pragmas.
type PragmaClient interface {
	PragmaSeen(pragma Pragma)
}

// NopClient implements Client by ignoring all notifications. Embed it to override only some of them.
type NopClient struct{}

var _ Client = NopClient{}

func (NopClient) MacroAdded(Macro)                                                   {}
func (NopClient) PassedMacroDefinitionCheck(int, int, int, Macro)                    {}
func (NopClient) FailedMacroDefinitionCheck(int, int, string)                        {}
func (NopClient) NotifyMacroReference(int, int, int, Macro)                          {}
func (NopClient) StartExpandingMacro(int, int, int, Macro, []MacroArgumentReference) {}
func (NopClient) StopExpandingMacro(int, Macro)                                      {}
func (NopClient) MarkAsIncludeGuard(string)                                          {}
func (NopClient) StartSkippingBlocks(int, int)                                       {}
func (NopClient) StopSkippingBlocks(int, int)                                        {}
func (NopClient) SourceNeeded(int, string, IncludeType, []string)                    {}
