// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import "text/template"

const header = `// Code generated by svdgen; DO NOT EDIT.

//go:build {{.MCU}}

`

var periphTmpl = template.Must(template.New("periph").Parse(header + `{{.Doc}}package {{.Pkg}}

import (
{{- if .Regs}}
	"embedded/mmio"
{{- end}}
	"unsafe"

	"{{.ImportRoot}}/mmap"
)
{{range .Structs}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end}}
{{- range .Instances}}
func {{.Func}}() *Periph { return (*Periph)(unsafe.Pointer(mmap.{{.Base}})) }
{{end}}
{{- range $r := .Regs}}
type {{.Name}} {{.Uint}}
{{- if .Bits}}

const (
{{- range .Bits}}
	{{.Name}} {{$r.Name}} = {{printf "0x%02X" .Mask}} << {{.Shift}} //+{{with .Descr}} {{.}}{{end}}
{{- range .Values}}
	{{.Name}} {{$r.Name}} = {{printf "0x%02X" .Value}} << {{.Shift}}{{with .Descr}} // {{.}}{{end}}
{{- end}}
{{- end}}
)

const (
{{- range .Bits}}
	{{.Name}}n = {{.Shift}}
{{- end}}
)
{{- end}}
{{end}}`))

var mmapTmpl = template.Must(template.New("mmap").Funcs(template.FuncMap{
	"fixSpaces": fixSpaces,
	"ident":     ident,
}).Parse(header + `// Package mmap provides base memory addresses for all peripherals.
package mmap
{{range .Groups}}
// {{.Name}}{{with .Description}}: {{fixSpaces .}}{{end}}
const (
{{- range .Peripherals}}
	{{ident .Name}}_BASE uintptr = {{printf "0x%08X" .BaseAddress}}
{{- end}}
)
{{end}}`))

var irqTmpl = template.Must(template.New("irq").Parse(header + `// Package irq provides the list of supported external interrupts.
package irq

const (
{{- range .Interrupts}}
	{{.Name}} = {{.Value}}{{with .Description}} // {{.}}{{end}}
{{- end}}
)
`))
