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

package lexer

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Position in the source code. Line and Column are 1-based, which is natural for humans. Offset counts bytes and
// UTF16Offset counts UTF-16 code units from the beginning of the input; editors address text in either unit, so both
// are tracked in parallel.
type Cursor struct {
	Line, Column int
	Offset       int
	UTF16Offset  int
}

var (
	// Initial cursor position, at the beginning of the file or string.
	CursorInit = Cursor{Line: 1, Column: 1}
	// Special cursor value indicating the end of the file or string.
	CursorEOF = Cursor{}
)

func (c Cursor) String() string {
	if c == CursorEOF {
		return "EOF"
	}
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// Return a new Cursor advanced by the given lookAhead string. Assumes the current cursor points at the beginning of
// lookAhead and returns the cursor position right after lookAhead.
//
// Newlines in lookAhead increment the line number and reset the column; other characters increment the column.
func (c Cursor) AdvancedBy(lookAhead string) Cursor {
	c.Offset += len(lookAhead)
	for len(lookAhead) > 0 {
		r, size := utf8.DecodeRuneInString(lookAhead)
		lookAhead = lookAhead[size:]
		if n := utf16.RuneLen(r); n > 0 {
			c.UTF16Offset += n
		} else {
			c.UTF16Offset++
		}
		if r == '\n' {
			c.Line++
			c.Column = 1
		} else {
			c.Column++
		}
	}
	return c
}

// UTF16Len returns the length of s counted in UTF-16 code units.
func UTF16Len(s string) int {
	return CursorInit.AdvancedBy(s).UTF16Offset
}
