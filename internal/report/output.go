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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Stdout is the output path selecting standard output.
const Stdout = "-"

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type xzFile struct {
	*xz.Writer
	file *os.File
}

func (f *xzFile) Close() error {
	return errors.Join(f.Writer.Close(), f.file.Close())
}

// CreateOutput opens the destination of preprocessed output. Paths ending in
// ".xz" are compressed. An empty path or "-" selects stdout, which is left
// open by Close.
func CreateOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == Stdout {
		return nopCloser{stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return file, nil
	}
	xzw, err := xz.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create xz writer: %w", err)
	}
	return &xzFile{Writer: xzw, file: file}, nil
}

// OpenInput opens a file written by CreateOutput, decompressing ".xz" files.
func OpenInput(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return file, nil
	}
	xzr, err := xz.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create xz reader: %w", err)
	}
	return struct {
		io.Reader
		io.Closer
	}{xzr, file}, nil
}
