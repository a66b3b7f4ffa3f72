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

// Package report renders preprocessing results for terminals and writes
// preprocessed output, optionally xz-compressed.
package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the renderers used for terminal output.
type Styles struct {
	Warning lipgloss.Style
	Error   lipgloss.Style
	Fatal   lipgloss.Style

	FilePath lipgloss.Style
	Location lipgloss.Style
	Message  lipgloss.Style
	Macro    lipgloss.Style
	Heading  lipgloss.Style
	Dim      lipgloss.Style
}

func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Warning:  plain,
			Error:    plain,
			Fatal:    plain,
			FilePath: plain,
			Location: plain,
			Message:  plain,
			Macro:    plain,
			Heading:  plain,
			Dim:      plain,
		}
	}
	return &Styles{
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Fatal:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		FilePath: lipgloss.NewStyle().Bold(true),
		Location: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Message:  lipgloss.NewStyle(),
		Macro:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Heading:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// IsColorEnabled reports whether output to writer should be colored.
// Mode is one of "auto", "always" or "never". In auto mode colors are used
// for terminals unless NO_COLOR is set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}
