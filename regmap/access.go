// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

// Access is the access mode of a register or field as written in the
// source description.
type Access string

const (
	ReadOnly      Access = "read-only"
	WriteOnly     Access = "write-only"
	ReadWrite     Access = "read-write"
	WriteOnce     Access = "writeOnce"
	ReadWriteOnce Access = "read-writeOnce"
)

// Supported reports whether a typed interface can be generated for a field
// with the access mode a.
func (a Access) Supported() bool {
	switch a {
	case ReadOnly, WriteOnly, ReadWrite:
		return true
	}
	return false
}

func (a Access) CanRead() bool  { return a == ReadOnly || a == ReadWrite || a == ReadWriteOnce }
func (a Access) CanWrite() bool { return a != ReadOnly && a != "" }
