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
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/EngFlow/ccsnapshot/language/cc/pp"
	"github.com/bmatcuk/doublestar/v4"
)

var ErrFileNotFound = errors.New("file not found")

// SearchPaths are the include directories, in search order. Entries are slash separated paths relative to the root of
// the file system and may be doublestar patterns, e.g. "third_party/**/include".
type SearchPaths struct {
	Quote  []string // searched for #include "..." only, like -iquote
	User   []string // like -I
	System []string // like -isystem, searched after User
	// Patterns of directories dropped from the expansion of User and System patterns.
	Exclude []string
}

// IncludeResolver finds included files in a file system.
type IncludeResolver struct {
	fsys  fs.FS
	quote []string
	dirs  []string // User then System
}

// NewIncludeResolver expands the search path patterns against fsys. Only existing directories are kept.
func NewIncludeResolver(fsys fs.FS, paths SearchPaths) (*IncludeResolver, error) {
	for _, pattern := range paths.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	r := &IncludeResolver{fsys: fsys}
	var errs []error
	expand := func(entries []string) []string {
		var dirs []string
		for _, entry := range entries {
			expanded, err := r.expandSearchPath(entry, paths.Exclude)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, dir := range expanded {
				if !slices.Contains(dirs, dir) {
					dirs = append(dirs, dir)
				}
			}
		}
		return dirs
	}
	r.quote = expand(paths.Quote)
	r.dirs = expand(slices.Concat(paths.User, paths.System))
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func cleanPath(p string) string {
	if p == "" {
		return "."
	}
	return strings.TrimPrefix(path.Clean(p), "/")
}

func (r *IncludeResolver) expandSearchPath(entry string, excludePatterns []string) ([]string, error) {
	entry = cleanPath(entry)
	if !hasGlobMeta(entry) {
		if !r.isDir(entry) {
			return nil, nil
		}
		return []string{entry}, nil
	}
	if !doublestar.ValidatePattern(entry) {
		return nil, fmt.Errorf("invalid search path pattern %q", entry)
	}
	matches, err := doublestar.Glob(r.fsys, entry)
	if err != nil {
		return nil, fmt.Errorf("expanding search path %q: %w", entry, err)
	}
	var dirs []string
	for _, match := range matches {
		if !r.isDir(match) {
			continue
		}
		// Check matched exclude pattern
		if slices.ContainsFunc(
			excludePatterns,
			func(pattern string) bool { return doublestar.MatchUnvalidated(pattern, match) },
		) {
			continue // excluded
		}
		dirs = append(dirs, match)
	}
	slices.Sort(dirs)
	return dirs, nil
}

func (r *IncludeResolver) isDir(name string) bool {
	info, err := fs.Stat(r.fsys, name)
	return err == nil && info.IsDir()
}

// Exists reports whether name is a regular file.
func (r *IncludeResolver) Exists(name string) bool {
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(r.fsys, name)
	return err == nil && !info.IsDir()
}

// SearchDirs returns the expanded User and System directories.
func (r *IncludeResolver) SearchDirs() []string { return slices.Clone(r.dirs) }

// Resolve finds the file an include directive of includingFile refers to. Quoted includes look next to the including
// file first. #include_next continues the search after the directory the including file was found in.
func (r *IncludeResolver) Resolve(name string, mode pp.IncludeType, includingFile string) (string, bool) {
	if name == "" || path.IsAbs(name) {
		return "", false
	}
	var candidates []string
	switch mode {
	case pp.IncludeLocal:
		candidates = append(candidates, path.Dir(includingFile))
		candidates = append(candidates, r.quote...)
		candidates = append(candidates, r.dirs...)
	case pp.IncludeGlobal:
		candidates = r.dirs
	case pp.IncludeNext:
		candidates = r.dirs[r.foundIn(includingFile)+1:]
	}
	for _, dir := range candidates {
		if candidate := path.Join(dir, name); r.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// foundIn returns the index of the most specific search directory holding the file, or -1.
func (r *IncludeResolver) foundIn(fileName string) int {
	found, longest := -1, -1
	for i, dir := range r.dirs {
		switch {
		case dir == "." && longest < 0:
			found, longest = i, 0
		case strings.HasPrefix(fileName, dir+"/") && len(dir) > longest:
			found, longest = i, len(dir)
		}
	}
	return found
}

func (r *IncludeResolver) ReadFile(name string) ([]byte, error) {
	content, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return content, err
}

// LastModified returns the modification time of the file, or the zero time.
func (r *IncludeResolver) LastModified(name string) time.Time {
	info, err := fs.Stat(r.fsys, name)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
