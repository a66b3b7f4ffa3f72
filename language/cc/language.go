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
	"path/filepath"
	"slices"
	"strings"

	"github.com/EngFlow/ccsnapshot/language/internal/cc/platform"
	"github.com/go-enry/go-enry/v2"
)

// Language is the source language of a file.
type Language string

const (
	LanguageUnknown Language = ""
	LanguageC       Language = "C"
	LanguageCXX     Language = "C++"
	LanguageObjC    Language = "Objective-C"
	LanguageObjCXX  Language = "Objective-C++"
)

var (
	sourceExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".c++", ".m", ".mm"}
	headerExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++", ".inc", ".inl", ".ipp", ".tcc"}
	cxxExtensions    = []string{".cc", ".cpp", ".cxx", ".c++", ".hh", ".hpp", ".hxx", ".h++", ".ipp", ".tcc"}
)

func hasMatchingExtension(filename string, extensions []string) bool {
	ext := filepath.Ext(filename)
	return slices.ContainsFunc(extensions, func(validExt string) bool {
		return strings.EqualFold(ext, validExt) // Case-insensitive comparison
	})
}

// IsSourceFile reports whether the file name has a C, C++ or Objective-C source or header extension.
func IsSourceFile(name string) bool {
	return hasMatchingExtension(name, sourceExtensions) || fileNameIsHeader(name)
}

func fileNameIsHeader(name string) bool {
	return hasMatchingExtension(name, headerExtensions)
}

var candidateLanguages = []string{string(LanguageC), string(LanguageCXX), string(LanguageObjC), string(LanguageObjCXX)}

// DetectLanguage classifies the file by extension first and by content when the extension is shared between
// languages, as ".h" is.
func DetectLanguage(fileName string, content []byte) Language {
	if language, safe := enry.GetLanguageByExtension(fileName); safe {
		return knownLanguage(language)
	}
	if language := knownLanguage(enry.GetLanguage(fileName, content)); language != LanguageUnknown {
		return language
	}
	if language, _ := enry.GetLanguageByClassifier(content, candidateLanguages); language != "" {
		return knownLanguage(language)
	}
	switch {
	case hasMatchingExtension(fileName, cxxExtensions):
		return LanguageCXX
	case IsSourceFile(fileName):
		return LanguageC
	}
	return LanguageUnknown
}

func knownLanguage(name string) Language {
	if slices.Contains(candidateLanguages, name) {
		return Language(name)
	}
	return LanguageUnknown
}

// DetectLanguageFeatures returns the features of the language of the file with the default language standards.
// Unknown files are read as C++.
func DetectLanguageFeatures(fileName string, content []byte) LanguageFeatures {
	var features LanguageFeatures
	switch DetectLanguage(fileName, content) {
	case LanguageC:
		return FeatureC99 | FeatureC11
	case LanguageObjC:
		return FeatureC99 | FeatureC11 | FeatureObjC
	case LanguageObjCXX:
		features = FeatureObjC
	}
	return features | FeatureCXX | FeatureCXX11 | FeatureCXX14 | FeatureCXX17
}

// Dialect returns the language dialect the features select, for picking predefined macros.
func (f LanguageFeatures) Dialect() platform.Dialect {
	dialect := platform.Dialect{CXX: f.Has(FeatureCXX), ObjC: f.Has(FeatureObjC)}
	switch {
	case f.Has(FeatureCXX20):
		dialect.CXXStandard = "c++20"
	case f.Has(FeatureCXX17):
		dialect.CXXStandard = "c++17"
	case f.Has(FeatureCXX14):
		dialect.CXXStandard = "c++14"
	case f.Has(FeatureCXX11):
		dialect.CXXStandard = "c++11"
	default:
		dialect.CXXStandard = "c++98"
	}
	switch {
	case f.Has(FeatureC11):
		dialect.CStandard = "c11"
	case f.Has(FeatureC99):
		dialect.CStandard = "c99"
	default:
		dialect.CStandard = "c89"
	}
	return dialect
}
