// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export writes the cleaned up register map in YAML or CBOR.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/regmap"
)

// Document is the exported form of a cleanup result. Groups are sorted by
// name, interrupts by value.
type Document struct {
	Device     *regmap.Device      `yaml:"device" cbor:"device"`
	Groups     []*regmap.Group     `yaml:"groups" cbor:"groups"`
	Interrupts []*regmap.Interrupt `yaml:"interrupts" cbor:"interrupts"`
}

func NewDocument(res *cleanup.Result) *Document {
	doc := &Document{Device: res.Device, Interrupts: res.IRQs()}
	for _, name := range res.GroupNames() {
		doc.Groups = append(doc.Groups, res.Groups[name])
	}
	return doc
}

type Format uint8

const (
	YAML Format = iota
	CBOR
)

func (f Format) String() string {
	if f == CBOR {
		return "CBOR"
	}
	return "YAML"
}

// FormatOf selects the format from the extension of the file name.
func FormatOf(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".cbor":
		return CBOR, nil
	default:
		return 0, fmt.Errorf("unknown output format %q (want .yaml, .yml or .cbor)", ext)
	}
}

var encMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

func Encode(w io.Writer, f Format, doc *Document) error {
	if f == CBOR {
		return encMode.NewEncoder(w).Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func Decode(r io.Reader, f Format) (*Document, error) {
	doc := new(Document)
	var err error
	if f == CBOR {
		err = cbor.NewDecoder(r).Decode(doc)
	} else {
		err = yaml.NewDecoder(r).Decode(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %v: %w", f, err)
	}
	return doc, nil
}

// WriteFile writes res to the file name in the format selected by the
// name extension.
func WriteFile(name string, res *cleanup.Result) error {
	f, err := FormatOf(name)
	if err != nil {
		return err
	}
	w, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Encode(w, f, NewDocument(res)); err != nil {
		w.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return w.Close()
}
