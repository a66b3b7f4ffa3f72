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

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/EngFlow/ccsnapshot/language/cc"
	"github.com/EngFlow/ccsnapshot/language/cc/pp"
)

func (s *Styles) level(level pp.DiagnosticLevel) string {
	switch level {
	case pp.Error:
		return s.Error.Render(level.String())
	case pp.Fatal:
		return s.Fatal.Render(level.String())
	default:
		return s.Warning.Render(level.String())
	}
}

// FormatDiagnostic renders a diagnostic in the "file:line:col: level: text"
// form used by compilers.
func (s *Styles) FormatDiagnostic(d pp.Diagnostic) string {
	location := fmt.Sprintf(":%d:%d:", d.Line, d.Column)
	return fmt.Sprintf("%s%s %s: %s",
		s.FilePath.Render(d.FileName),
		s.Location.Render(location),
		s.level(d.Level),
		s.Message.Render(d.Text))
}

// DiagnosticCounts tallies diagnostics per level.
type DiagnosticCounts struct {
	Warnings int
	Errors   int
}

func (c DiagnosticCounts) String() string {
	return fmt.Sprintf("%d %s, %d %s", c.Warnings, plural(c.Warnings, "warning"), c.Errors, plural(c.Errors, "error"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// WriteDiagnostics writes the diagnostics of every document of the snapshot,
// ordered by file name, and returns their counts. Fatal diagnostics count as
// errors.
func WriteDiagnostics(w io.Writer, styles *Styles, snapshot cc.Snapshot) (DiagnosticCounts, error) {
	var counts DiagnosticCounts
	for _, doc := range snapshot.All() {
		for _, d := range doc.DiagnosticMessages() {
			if d.FileName == "" {
				d.FileName = doc.FileName()
			}
			if d.Level == pp.Warning {
				counts.Warnings++
			} else {
				counts.Errors++
			}
			if _, err := fmt.Fprintln(w, styles.FormatDiagnostic(d)); err != nil {
				return counts, err
			}
		}
	}
	return counts, nil
}

// WriteDocument writes what the preprocessor recorded about a document:
// include guard, includes, defined macros, macro uses and skipped blocks.
func WriteDocument(w io.Writer, styles *Styles, doc *cc.Document) error {
	var sb strings.Builder
	heading := func(title string, n int) {
		fmt.Fprintf(&sb, "%s %s\n", styles.Heading.Render(title), styles.Dim.Render(fmt.Sprintf("(%d)", n)))
	}

	fmt.Fprintf(&sb, "%s %s\n", styles.FilePath.Render(doc.FileName()), styles.Dim.Render(fmt.Sprintf("revision %d", doc.Revision())))
	if guard := doc.IncludeGuardMacroName(); guard != "" {
		fmt.Fprintf(&sb, "include guard: %s\n", styles.Macro.Render(guard))
	}

	resolved, unresolved := doc.ResolvedIncludes(), doc.UnresolvedIncludes()
	heading("Includes:", len(resolved)+len(unresolved))
	for _, include := range resolved {
		fmt.Fprintf(&sb, "  %d: %s -> %s\n", include.Line, include.UnresolvedFileName, include.ResolvedFileName)
	}
	for _, include := range unresolved {
		fmt.Fprintf(&sb, "  %d: %s %s\n", include.Line, include.UnresolvedFileName, styles.Dim.Render("(unresolved)"))
	}

	macros := doc.DefinedMacros()
	heading("Defined macros:", len(macros))
	for _, macro := range macros {
		fmt.Fprintf(&sb, "  %d: %s\n", macro.Line(), styles.Macro.Render(macro.String()))
	}

	uses := doc.MacroUses()
	heading("Macro uses:", len(uses))
	for _, use := range uses {
		fmt.Fprintf(&sb, "  %d: %s [%d, %d)\n", use.BeginLine, styles.Macro.Render(use.Macro.Name()), use.Block.BytesBegin, use.Block.BytesEnd)
	}

	undefined := doc.UndefinedMacroUses()
	heading("Undefined macro uses:", len(undefined))
	for _, use := range undefined {
		fmt.Fprintf(&sb, "  %s [%d, %d)\n", styles.Macro.Render(use.Name), use.Block.BytesBegin, use.Block.BytesEnd)
	}

	skipped := doc.SkippedBlocks()
	heading("Skipped blocks:", len(skipped))
	for _, block := range skipped {
		fmt.Fprintf(&sb, "  [%d, %d)\n", block.BytesBegin, block.BytesEnd)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
