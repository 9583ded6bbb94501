// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the svdgen configuration: a YAML file whose values
// can be overridden from the command line.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/svdgen/cleanup"
)

type Config struct {
	IgnoreCluster string `yaml:"ignore_cluster"`
	NonUnique     string `yaml:"non_unique"`
	Output        string `yaml:"output"`
	ImportRoot    string `yaml:"import_root"`
	HexLine       int    `yaml:"hex_line"`

	Verbose bool `yaml:"-"`
}

func Default() *Config {
	return &Config{NonUnique: "keep", HexLine: 16}
}

// Load reads the YAML file path. Keys missing in the file keep their
// default values, unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cfg. It does not modify it.
func Validate(cfg *Config) error {
	if _, err := regexp.Compile(cfg.IgnoreCluster); err != nil {
		return fmt.Errorf("ignore_cluster: %w", err)
	}
	if _, err := cleanup.ParseNonUnique(cfg.NonUnique); err != nil {
		return fmt.Errorf("non_unique: %w", err)
	}
	if cfg.HexLine <= 0 || cfg.HexLine > 255 {
		return fmt.Errorf("hex_line: %d out of range 1..255", cfg.HexLine)
	}
	if cfg.ImportRoot != "" {
		if err := module.CheckImportPath(cfg.ImportRoot); err != nil {
			return fmt.Errorf("import_root: %w", err)
		}
	}
	return nil
}

// Options returns the cleanup options described by the valid cfg.
func (cfg *Config) Options(log *slog.Logger) cleanup.Options {
	nu, _ := cleanup.ParseNonUnique(cfg.NonUnique)
	return cleanup.Options{
		IgnoreCluster: cfg.IgnoreCluster,
		NonUnique:     nu,
		Logger:        log,
	}
}

// Flags defines the command line options shared by all commands in fs.
// After fs is parsed the returned function loads the file given by -config
// (if any), overrides its values with the flags set on the command line and
// validates the result.
func Flags(fs *flag.FlagSet) func() (*Config, error) {
	file := fs.String("config", "", "YAML configuration `file`")
	fc := Default()
	fs.StringVar(
		&fc.IgnoreCluster, "ignore", "",
		"do not build clusters with `scope.name` matching this regular expression",
	)
	fs.StringVar(
		&fc.NonUnique, "nonunique", fc.NonUnique,
		"clusters with non-unique register names: keep or reject",
	)
	fs.StringVar(&fc.Output, "o", "", "output `path`")
	fs.StringVar(
		&fc.ImportRoot, "root", "",
		"import `path` of the generated packages (default: module path from go.mod)",
	)
	fs.IntVar(&fc.HexLine, "line", fc.HexLine, "number of data `bytes` in a HEX record")
	fs.BoolVar(&fc.Verbose, "v", false, "print debug messages")
	return func() (*Config, error) {
		cfg := Default()
		if *file != "" {
			var err error
			if cfg, err = Load(*file); err != nil {
				return nil, err
			}
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "ignore":
				cfg.IgnoreCluster = fc.IgnoreCluster
			case "nonunique":
				cfg.NonUnique = fc.NonUnique
			case "o":
				cfg.Output = fc.Output
			case "root":
				cfg.ImportRoot = fc.ImportRoot
			case "line":
				cfg.HexLine = fc.HexLine
			case "v":
				cfg.Verbose = fc.Verbose
			}
		})
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
}
