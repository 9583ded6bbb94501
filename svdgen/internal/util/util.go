// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/svd"
)

func Warn(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
}

func Fatal(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// FatalErr prints an error description and exits the program if the
// err != nil.
func FatalErr(what string, err error) {
	if err == nil {
		return
	}
	s := err.Error() + "\n"
	if what != "" {
		s = what + ": " + s
	}
	os.Stderr.WriteString(s)
	os.Exit(1)
}

var ErrNoModule = errors.New("go.mod file not found in current directory or any parent directory")

// Module returns the module path declared in the go.mod file found in dir
// or the nearest of its parent directories, and the directory containing it.
func Module(dir string) (modPath, modDir string, err error) {
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	for {
		gomod := filepath.Join(dir, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			modPath = modfile.ModulePath(data)
			if modPath == "" {
				return "", "", fmt.Errorf("there is no module directive in %s", gomod)
			}
			return modPath, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", ErrNoModule
		}
		dir = parent
	}
}

// ImportPath returns the import path of the package in dir, which need not
// exist yet.
func ImportPath(dir string) (string, error) {
	modPath, modDir, err := Module(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(modDir, abs)
	if err != nil {
		return "", err
	}
	return path.Join(modPath, filepath.ToSlash(rel)), nil
}

// MCU returns the lower case name of the SVD file without its directory and
// extension. It is used as the build constraint of generated files.
func MCU(svdFile string) string {
	mcu := filepath.Base(svdFile)
	if i := strings.LastIndexByte(mcu, '.'); i >= 0 {
		mcu = mcu[:i]
	}
	return strings.ToLower(mcu)
}

// OutFile infers the name of the output file from the name of the input
// file if outName is an empty string.
func OutFile(inName, outName, outSuffix string) string {
	if outName != "" {
		return outName
	}
	return strings.TrimSuffix(inName, filepath.Ext(inName)) + outSuffix
}

// Logger returns the text logger used by all commands.
func Logger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Load reads the SVD file name and runs the register map cleanup on it.
func Load(name string, opts cleanup.Options) (*cleanup.Result, error) {
	d, err := svd.ReadFile(name)
	if err != nil {
		return nil, err
	}
	dev, err := d.Model()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res, err := cleanup.Run(dev, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}
