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

package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/EngFlow/ccsnapshot/internal/logging"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"DEBUG", log.DebugLevel},
		{"invalid", log.InfoLevel},
		{"", log.InfoLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.expected, logging.New(tc.level).GetLevel())
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", logging.FieldPath, "a.h")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "path=a.h")
}

func TestFromContext(t *testing.T) {
	logger := logging.Discard()
	assert.Same(t, logger, logging.FromContext(logging.WithLogger(context.Background(), logger)))
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
}
