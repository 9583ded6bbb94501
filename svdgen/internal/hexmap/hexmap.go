// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hexmap builds a memory image of the register reset values.
package hexmap

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/marcinbor85/gohex"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/regmap"
)

// Image returns the memory image containing the reset value of every
// register of every peripheral instance in res, at its absolute address and
// in little-endian byte order. Every element of register arrays and clusters
// is included. Registers that overlap the ones already placed are skipped.
func Image(res *cleanup.Result, log *slog.Logger) (*gohex.Memory, error) {
	mem := gohex.NewMemory()
	for _, name := range res.GroupNames() {
		g := res.Groups[name]
		for _, p := range g.Peripherals {
			err := place(mem, p.Name, p.BaseAddress, g.Registers, log)
			if err != nil {
				return nil, err
			}
		}
	}
	return mem, nil
}

func place(mem *gohex.Memory, path string, base uint64, rs []*regmap.Register, log *slog.Logger) error {
	for _, r := range rs {
		n := max(r.Dim, 1)
		for i := range n {
			addr := base + r.AddressOffset + uint64(i)*r.DimIncrement
			if r.IsCluster() {
				if err := place(mem, path+"."+r.Name, addr, r.Registers, log); err != nil {
					return err
				}
				continue
			}
			if r.Size == 0 || r.Size%8 != 0 || r.Size > 64 {
				log.Warn("register size not supported", "register", path+"."+r.Name, "size", r.Size)
				break
			}
			size := uint64(r.Size / 8)
			if addr+size-1 > math.MaxUint32 {
				return fmt.Errorf("%s.%s: address %#x does not fit in 32 bits", path, r.Name, addr)
			}
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], r.ResetValue)
			if err := mem.AddBinary(uint32(addr), buf[:size]); err != nil {
				log.Warn("skipping register", "register", path+"."+r.Name,
					"address", fmt.Sprintf("%#x", addr), "err", err)
			}
		}
	}
	return nil
}

// Write dumps mem to w in the Intel HEX format with lineLen data bytes per
// record.
func Write(w io.Writer, mem *gohex.Memory, lineLen int) error {
	return mem.DumpIntelHex(w, byte(lineLen))
}
