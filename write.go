// Copyright 2012 Luuk van Dijk. All Rights Reserved.
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

// This file serializes a Header to the CDF classic on-disk grammar: a
// dim_list, a gatt_list and a var_list, each wrapped in the same
// [tag, count] envelope, followed by each dimension/attribute/variable's
// own encoding.

package netcdf

import (
	"encoding/binary"
	"io"
)

// grammar tag values: each of dim_list/att_list/var_list is either
// ZERO NON_NEG (absent) or one of these tags followed by a positive count.
const (
	tagAbsent    int32 = 0
	tagDimension int32 = 0x0A
	tagVariable  int32 = 0x0B
	tagAttribute int32 = 0x0C
)

var fourZeros [4]byte

// putPad writes up to 3 zero bytes so that n bytes already written end on a
// 4 byte boundary.
func putPad(w io.Writer, n int) error {
	if rem := n & 3; rem != 0 {
		_, err := w.Write(fourZeros[:4-rem])
		return err
	}
	return nil
}

// putString encodes a NetCDF "name": a big-endian int32 byte count followed
// by the raw bytes of s, padded to a 4 byte boundary.
func putString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(s))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return putPad(w, len(s))
}

// writeSection writes a grammar list header for n elements tagged as tag,
// then invokes each for every element index in order. With n == 0 it writes
// the ZERO NON_NEG absent marker instead.
func writeSection(w io.Writer, tag int32, n int, each func(i int) error) error {
	if n == 0 {
		return binary.Write(w, binary.BigEndian, [2]int32{tagAbsent, 0})
	}
	if err := binary.Write(w, binary.BigEndian, [2]int32{tag, int32(n)}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := each(i); err != nil {
			return err
		}
	}
	return nil
}

func writeAttributes(w io.Writer, atts []attribute) error {
	return writeSection(w, tagAttribute, len(atts), func(i int) error { return atts[i].writeTo(w) })
}

func (d *dimension) writeTo(w io.Writer) error {
	if err := putString(w, d.name); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, d.length)
}

func (a *attribute) writeTo(w io.Writer) error {
	if err := putString(w, a.name); err != nil {
		return err
	}

	dt := dataTypeFromValues(a.values)
	if !dt.valid() {
		panic("invalid attribute data type for " + a.name)
	}
	if err := binary.Write(w, binary.BigEndian, dt); err != nil {
		return err
	}
	if dt == _CHAR {
		return putString(w, a.values.(string))
	}

	n := attrElemCount(a.values)
	if err := binary.Write(w, binary.BigEndian, int32(n)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, a.values); err != nil {
		return err
	}
	return putPad(w, n*dt.storageSize())
}

// attrElemCount returns the element count of an attribute's stored slice;
// the string case is handled separately by the caller and is not counted
// here.
func attrElemCount(values interface{}) int {
	switch v := values.(type) {
	case []uint8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	}
	return 0
}

func (v *variable) writeTo(w io.Writer, offs64 bool) error {
	if err := putString(w, v.name); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, int32(len(v.dim))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, v.dim); err != nil {
		return err
	}

	if err := writeAttributes(w, v.att); err != nil {
		return err
	}

	if !v.dtype.valid() {
		panic("invalid variable data type for " + v.name)
	}
	if err := binary.Write(w, binary.BigEndian, v.dtype); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, v.vsize); err != nil {
		return err
	}

	if !offs64 {
		return binary.Write(w, binary.BigEndian, int32(v.begin))
	}
	return binary.Write(w, binary.BigEndian, v.begin)
}

// WriteHeader encodes h to w at its current position: magic, version,
// numrecs (always numrecsStreaming; readers derive the real count from file
// size), then the dim_list, gatt_list and var_list sections in that fixed
// order. If a write fails, w is left at the erroring position and the
// underlying binary.Write error is returned unwrapped.
func (h *Header) WriteHeader(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, [4]byte{'C', 'D', 'F', byte(h.version)}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, numrecsStreaming); err != nil {
		return err
	}

	if err := writeSection(w, tagDimension, len(h.dim), func(i int) error { return h.dim[i].writeTo(w) }); err != nil {
		return err
	}
	if err := writeAttributes(w, h.att); err != nil {
		return err
	}
	return writeSection(w, tagVariable, len(h.vars), func(i int) error {
		return h.vars[i].writeTo(w, h.version == _V2)
	})
}

// nullWriter discards everything written to it, counting the bytes.
type nullWriter int64

func (w *nullWriter) Write(p []byte) (int, error) {
	*w += nullWriter(len(p))
	return len(p), nil
}

// size returns the byte length of h's serialized header.
func (h *Header) size() int64 {
	var nw nullWriter
	h.WriteHeader(&nw)
	return int64(nw)
}
