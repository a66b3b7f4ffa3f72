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

// Package config loads the project configuration of the ccpp tool from
// .ccpp.yaml, .ccpp.yml or .ccpp.toml files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/EngFlow/ccsnapshot/language/cc"
)

// FileNames lists the configuration files looked up in the project
// directory, in order of precedence.
var FileNames = []string{".ccpp.yaml", ".ccpp.yml", ".ccpp.toml"}

// ErrUnsupportedFormat is returned for configuration files that are neither
// YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported configuration format")

// Config describes how sources of a project are preprocessed.
type Config struct {
	// Directories searched for both quoted and angle-bracket includes.
	// Entries may be doublestar glob patterns.
	IncludePaths []string `yaml:"include_paths" toml:"include_paths" validate:"dive,required"`
	// Directories searched only for quoted includes.
	QuoteIncludePaths []string `yaml:"quote_include_paths" toml:"quote_include_paths" validate:"dive,required"`
	// Directories searched last, for system headers.
	SystemIncludePaths []string `yaml:"system_include_paths" toml:"system_include_paths" validate:"dive,required"`
	// Glob patterns of directories never searched for includes.
	Exclude []string `yaml:"exclude" toml:"exclude" validate:"dive,required"`

	Defines   []string `yaml:"defines" toml:"defines" validate:"dive,required"`
	Undefines []string `yaml:"undefines" toml:"undefines" validate:"dive,required"`
	Platform  string   `yaml:"platform" toml:"platform" validate:"omitempty,platform"`

	KeepComments             bool `yaml:"keep_comments" toml:"keep_comments"`
	ExpandFunctionLikeMacros bool `yaml:"expand_function_like_macros" toml:"expand_function_like_macros"`
	MaxIncludeDepth          int  `yaml:"max_include_depth" toml:"max_include_depth" validate:"gte=0,lte=4096"`

	LogLevel string `yaml:"log_level" toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Defaults returns the configuration used when no file is found.
func Defaults() *Config {
	return &Config{
		IncludePaths:             []string{},
		QuoteIncludePaths:        []string{},
		SystemIncludePaths:       []string{},
		Exclude:                  []string{},
		Defines:                  []string{},
		Undefines:                []string{},
		ExpandFunctionLikeMacros: true,
		MaxIncludeDepth:          200,
		LogLevel:                 "info",
	}
}

// Discover returns the path of the first configuration file present in dir,
// or an empty string if there is none.
func Discover(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Load reads the configuration file at path. An explicit path that does not
// exist is an error. When path is empty, the configuration is discovered in
// dir, falling back to Defaults.
func Load(dir, path string) (*Config, string, error) {
	if path == "" {
		path = Discover(dir)
		if path == "" {
			return Defaults(), "", nil
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(path, content)
	if err != nil {
		return nil, path, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

// Decode parses and validates the configuration content. The format is
// selected by the file name extension. Omitted settings keep their default
// values.
func Decode(fileName string, content []byte) (*Config, error) {
	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		_, err := cc.ParsePlatform(fl.Field().String())
		return err == nil
	})
	return validate
}

// Validate checks field constraints as well as the syntax of macro
// definitions and the target platform.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.MacroDefinitions(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.MacroUndefinitions(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SearchPaths converts the include directories to the include resolver
// search paths.
func (c *Config) SearchPaths() cc.SearchPaths {
	return cc.SearchPaths{
		Quote:   c.QuoteIncludePaths,
		User:    c.IncludePaths,
		System:  c.SystemIncludePaths,
		Exclude: c.Exclude,
	}
}

func (c *Config) MacroDefinitions() ([]cc.MacroDefinition, error) {
	return cc.ParseDefines(c.Defines)
}

func (c *Config) MacroUndefinitions() ([]string, error) {
	return cc.ParseUndefines(c.Undefines)
}

// TargetPlatform returns the configured platform, or nil when no platform
// specific macros should be predefined.
func (c *Config) TargetPlatform() (*cc.Platform, error) {
	if c.Platform == "" {
		return nil, nil
	}
	p, err := cc.ParsePlatform(c.Platform)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProcessorOptions assembles the source processor options described by the
// configuration.
func (c *Config) ProcessorOptions() (cc.SourceProcessorOptions, error) {
	defines, err := c.MacroDefinitions()
	if err != nil {
		return cc.SourceProcessorOptions{}, err
	}
	undefines, err := c.MacroUndefinitions()
	if err != nil {
		return cc.SourceProcessorOptions{}, err
	}
	target, err := c.TargetPlatform()
	if err != nil {
		return cc.SourceProcessorOptions{}, err
	}
	return cc.SourceProcessorOptions{
		Platform:                 target,
		Defines:                  defines,
		Undefines:                undefines,
		KeepComments:             c.KeepComments,
		ExpandFunctionLikeMacros: c.ExpandFunctionLikeMacros,
		MaxIncludeDepth:          c.MaxIncludeDepth,
	}, nil
}
