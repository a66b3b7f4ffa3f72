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
	"testing"

	"github.com/EngFlow/ccsnapshot/language/internal/cc/platform"
	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	testCases := []struct {
		fileName string
		content  string
		expected Language
	}{
		{fileName: "main.c", content: "int main(void) { return 0; }\n", expected: LanguageC},
		{fileName: "main.cpp", content: "int main() {}\n", expected: LanguageCXX},
		{fileName: "lib.hpp", content: "#pragma once\n", expected: LanguageCXX},
		{fileName: "view.h", content: "#import <Foundation/Foundation.h>\n@interface View : NSObject\n@end\n", expected: LanguageObjC},
		{fileName: "util.h", content: "namespace util {\ntemplate <typename T> class Box {};\n}\n", expected: LanguageCXX},
	}
	for _, tc := range testCases {
		t.Run(tc.fileName, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectLanguage(tc.fileName, []byte(tc.content)))
		})
	}
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("a.c"))
	assert.True(t, IsSourceFile("a.HPP"))
	assert.True(t, IsSourceFile("dir/a.inl"))
	assert.False(t, IsSourceFile("a.py"))
	assert.False(t, IsSourceFile("BUILD"))
	assert.True(t, fileNameIsHeader("a.hh"))
	assert.False(t, fileNameIsHeader("a.cc"))
}

func TestDetectLanguageFeatures(t *testing.T) {
	assert.Equal(t, FeatureC99|FeatureC11, DetectLanguageFeatures("main.c", []byte("int x;\n")))
	cxx := DetectLanguageFeatures("main.cc", []byte("int x;\n"))
	assert.True(t, cxx.Has(FeatureCXX|FeatureCXX17))
	assert.False(t, cxx.Has(FeatureObjC))
}

func TestLanguageFeaturesDialect(t *testing.T) {
	testCases := []struct {
		features LanguageFeatures
		expected platform.Dialect
	}{
		{features: 0, expected: platform.Dialect{CStandard: "c89", CXXStandard: "c++98"}},
		{features: FeatureC99, expected: platform.Dialect{CStandard: "c99", CXXStandard: "c++98"}},
		{features: FeatureC99 | FeatureC11 | FeatureObjC, expected: platform.Dialect{ObjC: true, CStandard: "c11", CXXStandard: "c++98"}},
		{features: FeatureCXX | FeatureCXX11, expected: platform.Dialect{CXX: true, CStandard: "c89", CXXStandard: "c++11"}},
		{features: FeatureCXX | FeatureCXX11 | FeatureCXX14 | FeatureCXX17 | FeatureCXX20, expected: platform.Dialect{CXX: true, CStandard: "c89", CXXStandard: "c++20"}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.features.Dialect())
	}
}
