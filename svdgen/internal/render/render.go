// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render generates the Go register access packages from a cleaned up
// register map: one package per peripheral group, the mmap package with the
// peripheral base addresses and the irq package with the interrupt numbers.
package render

import (
	"bytes"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"text/template"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/regmap"
)

// Generator renders cleanup results. MCU is used as the build constraint and
// as the base name of every generated file. ImportRoot is the import path of
// the directory the packages are written to.
type Generator struct {
	MCU        string
	ImportRoot string
	Log        *slog.Logger
}

type file struct {
	path string
	src  []byte
}

func (g *Generator) log() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}

// Files returns the formatted content of the generated files by their slash
// separated path relative to the output directory.
func (g *Generator) Files(res *cleanup.Result) (map[string][]byte, error) {
	srcs, err := g.sources(res)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]byte, len(srcs))
	for _, f := range srcs {
		src, err := format(f.path, f.src)
		if err != nil {
			return nil, err
		}
		m[f.path] = src
	}
	return m, nil
}

// Write writes the generated files into dir. A file that cannot be formatted
// is written unformatted with the .broken suffix and an error is returned.
func (g *Generator) Write(dir string, res *cleanup.Result) error {
	srcs, err := g.sources(res)
	if err != nil {
		return err
	}
	for _, f := range srcs {
		name := filepath.Join(dir, filepath.FromSlash(f.path))
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return err
		}
		if err := writeFormatted(name, f.src); err != nil {
			return err
		}
		g.log().Debug("written", "file", name)
	}
	return nil
}

func format(name string, src []byte) ([]byte, error) {
	out, err := imports.Process(name, src, &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func writeFormatted(name string, src []byte) error {
	out, err := format(name, src)
	if err != nil {
		if werr := os.WriteFile(name+".broken", src, 0o644); werr != nil {
			return werr
		}
		return err
	}
	return os.WriteFile(name, out, 0o644)
}

func (g *Generator) sources(res *cleanup.Result) ([]file, error) {
	if g.MCU == "" {
		return nil, fmt.Errorf("render: MCU not set")
	}
	if g.ImportRoot == "" {
		return nil, fmt.Errorf("render: import root not set")
	}
	var files []file
	var groups []*regmap.Group
	for _, name := range res.GroupNames() {
		grp := res.Groups[name]
		groups = append(groups, grp)
		data := g.periph(grp)
		src, err := execute(periphTmpl, data)
		if err != nil {
			return nil, err
		}
		files = append(files, file{path.Join(data.Pkg, g.MCU+".go"), src})
	}

	src, err := execute(mmapTmpl, mmapData{g.MCU, groups})
	if err != nil {
		return nil, err
	}
	files = append(files, file{path.Join("mmap", g.MCU+".go"), src})

	var irqs []*regmap.Interrupt
	for _, irq := range res.IRQs() {
		irqs = append(irqs, &regmap.Interrupt{
			Name:        ident(irq.Name),
			Value:       irq.Value,
			Description: fixSpaces(irq.Description),
		})
	}
	src, err = execute(irqTmpl, irqData{g.MCU, irqs})
	if err != nil {
		return nil, err
	}
	files = append(files, file{path.Join("irq", g.MCU+".go"), src})
	return files, nil
}

type mmapData struct {
	MCU    string
	Groups []*regmap.Group
}

type irqData struct {
	MCU        string
	Interrupts []*regmap.Interrupt
}

func execute(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PkgName returns the name of the package generated for the group name.
func PkgName(group string) string {
	pkg := strings.ToLower(ident(group))
	if token.IsKeyword(pkg) || pkg == "mmap" || pkg == "irq" {
		pkg += "_"
	}
	return pkg
}

// ident turns s into a valid Go identifier. The array placeholders are
// removed, other invalid characters replaced with underscores.
func ident(s string) string {
	s = strings.ReplaceAll(s, "[%s]", "")
	s = strings.ReplaceAll(s, "%s", "")
	s = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
	if r, _ := utf8.DecodeRuneInString(s); s == "" || unicode.IsDigit(r) {
		s = "R" + s
	}
	return s
}

func fixSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// table formats rows as a tab aligned code block of a doc comment.
func table(w *strings.Builder, rows [][]string) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		w.WriteString("//\t" + strings.TrimRight(line, " ") + "\n")
	}
}
