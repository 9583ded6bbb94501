// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Svdgen cleans up CMSIS-SVD register maps and generates from them Go
// register access packages, YAML or CBOR dumps and reset value HEX images.
package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/embeddedgo/svdgen/svdgen/internal/cmd/dump"
	"github.com/embeddedgo/svdgen/svdgen/internal/cmd/gen"
	"github.com/embeddedgo/svdgen/svdgen/internal/cmd/hex"
	"github.com/embeddedgo/svdgen/svdgen/internal/cmd/show"
)

type tool struct {
	descr string
	main  func(cmd string, args []string)
}

var tools = map[string]tool{
	"dump": {dump.Descr, dump.Main},
	"go":   {gen.Descr, gen.Main},
	"hex":  {hex.Descr, hex.Main},
	"show": {show.Descr, show.Main},
}

func printToolList() {
	names := slices.Sorted(maps.Keys(tools))
	maxLen := 0
	for _, k := range names {
		if maxLen < len(k) {
			maxLen = len(k)
		}
	}
	uw := os.Stderr
	uw.WriteString("Usage:\n  svdgen COMMAND [ARGUMENTS]\n\n")
	uw.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %*s  %s\n", maxLen, name, tools[name].descr)
	}
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" {
		printToolList()
		return
	}
	tool, ok := tools[os.Args[1]]
	if !ok {
		printToolList()
		os.Exit(1)
	}
	tool.main(os.Args[1], os.Args[2:])
}
