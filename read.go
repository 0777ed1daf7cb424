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

// This file decodes a CDF header, the mirror image of write.go's encoder.

package netcdf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the logger used to report recoverable header oddities (such as an
// out-of-order section) encountered while decoding. It defaults to the
// standard logger and may be replaced by callers that want the messages
// routed elsewhere.
var Log logrus.FieldLogger = logrus.StandardLogger()

// paddedElemCount returns how many elements of elemSize bytes a reader must
// allocate to receive n logical elements plus the trailing zero padding the
// classic grammar adds to round the byte count up to a multiple of 4.
func paddedElemCount(n, elemSize int) int {
	raw := n * elemSize
	return (raw + pad(raw)) / elemSize
}

func pad(n int) int { return (4 - n%4) % 4 }

// readString decodes a NetCDF "name": a big-endian int32 byte count
// followed by that many bytes plus zero padding to a 4 byte boundary.
func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if n < 0 {
		return "", badLength
	}

	buf := make([]byte, paddedElemCount(int(n), 1))
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return "", err
	}
	return string(buf[:n]), nil
}

func (d *dimension) readFrom(r io.Reader) error {
	var err error
	if d.name, err = readString(r); err != nil {
		return err
	}
	return binary.Read(r, binary.BigEndian, &d.length)
}

// readAttrValues reads the nelems-element payload of a non-CHAR attribute,
// including the padding bytes the grammar requires for BYTE and SHORT
// payloads, and stores the unpadded, correctly typed slice in a.values.
func readAttrValues(r io.Reader, dtype datatype, nelems int32) (interface{}, error) {
	size := dtype.storageSize()
	padded := paddedElemCount(int(nelems), size)

	switch dtype {
	case _BYTE:
		v := make([]uint8, padded)
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return nil, err
		}
		return v[:nelems], nil
	case _SHORT:
		v := make([]int16, padded)
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return nil, err
		}
		return v[:nelems], nil
	case _INT:
		v := make([]int32, nelems)
		return v, binary.Read(r, binary.BigEndian, v)
	case _FLOAT:
		v := make([]float32, nelems)
		return v, binary.Read(r, binary.BigEndian, v)
	case _DOUBLE:
		v := make([]float64, nelems)
		return v, binary.Read(r, binary.BigEndian, v)
	}
	return nil, badAttributeType
}

func (a *attribute) readFrom(r io.Reader) error {
	var err error
	if a.name, err = readString(r); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &a.dtype); err != nil {
		return err
	}
	if !a.dtype.valid() {
		return badAttributeType
	}

	if a.dtype == _CHAR {
		a.values, err = readString(r)
		return err
	}

	var nelems int32
	if err := binary.Read(r, binary.BigEndian, &nelems); err != nil {
		return err
	}
	if nelems < 0 {
		return badLength
	}

	a.values, err = readAttrValues(r, a.dtype, nelems)
	return err
}

func (v *variable) readFrom(r io.Reader, offs64 bool) error {
	var err error
	if v.name, err = readString(r); err != nil {
		return err
	}

	var ndims int32
	if err := binary.Read(r, binary.BigEndian, &ndims); err != nil {
		return err
	}
	if ndims < 0 {
		return badLength
	}
	v.dim = make([]int32, ndims)
	if err := binary.Read(r, binary.BigEndian, v.dim); err != nil {
		return err
	}

	var tag, nattrs int32
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &nattrs); err != nil {
		return err
	}
	switch tag {
	case tagAbsent:
		if nattrs != 0 {
			return badLength
		}
	case tagAttribute:
		v.att = make([]attribute, nattrs)
		for i := range v.att {
			if err := v.att[i].readFrom(r); err != nil {
				return err
			}
		}
	default:
		return badTag
	}

	if err := binary.Read(r, binary.BigEndian, &v.dtype); err != nil {
		return err
	}
	if !v.dtype.valid() {
		return fmt.Errorf("variable %q: %w: type tag %d", v.name, ErrUnsupportedType, int32(v.dtype))
	}
	if err := binary.Read(r, binary.BigEndian, &v.vsize); err != nil {
		return err
	}

	if !offs64 {
		var begin32 int32
		if err := binary.Read(r, binary.BigEndian, &begin32); err != nil {
			return err
		}
		v.begin = int64(begin32)
		return nil
	}
	return binary.Read(r, binary.BigEndian, &v.begin)
}

// sectionOrder names the three top-level header sections in the order the
// grammar fixes them to: dimensions, then global attributes, then
// variables. A section seen out of this order still decodes (classic
// readers tolerate it) but is logged, since it is a strong sign the file
// was not produced by a standard writer.
var sectionOrder = [3]int32{tagDimension, tagAttribute, tagVariable}

// ReadHeader decodes a CDF header from r at its current position: the
// "CDF"+version magic, the (ignored) numrecs field, then the dim_list,
// gatt_list and var_list sections. On failure r is left at the erroring
// position and the returned error is one of the sentinels in errors.go, or
// an error from the underlying reader.
func ReadHeader(r io.Reader) (*Header, error) {
	var magic [3]byte
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != [3]byte{'C', 'D', 'F'} {
		return nil, badMagic
	}

	var v version
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return nil, err
	}
	if v != _V1 && v != _V2 {
		return nil, badVersion
	}
	h := &Header{version: v}

	var numrecs int32 // ignored: Filesize/recordCount replace it
	if err := binary.Read(r, binary.BigEndian, &numrecs); err != nil {
		return nil, err
	}

	for pos, want := range sectionOrder {
		var tag, n int32
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, badLength
		}

		if tag == tagAbsent {
			if n != 0 {
				return nil, badLength
			}
			continue
		}

		switch tag {
		case tagDimension, tagAttribute, tagVariable:
			if tag != want {
				Log.Warnf("header section %#x out of its canonical position (slot %d)", tag, pos)
			}
		default:
			return nil, badTag
		}

		switch tag {
		case tagDimension:
			h.dim = make([]dimension, n)
			for i := range h.dim {
				if err := h.dim[i].readFrom(r); err != nil {
					return nil, err
				}
			}
		case tagAttribute:
			h.att = make([]attribute, n)
			for i := range h.att {
				if err := h.att[i].readFrom(r); err != nil {
					return nil, err
				}
			}
		case tagVariable:
			h.vars = make([]variable, n)
			for i := range h.vars {
				if err := h.vars[i].readFrom(r, h.version == _V2); err != nil {
					return nil, err
				}
				h.vars[i].setComputed(h.dim)
			}
		default:
			return nil, badTag
		}
	}

	for i := range h.vars {
		for _, d := range h.vars[i].dim {
			if d < 0 || int(d) >= len(h.dim) {
				return nil, fmt.Errorf("variable %q: %w: dimension id %d out of range", h.vars[i].name, ErrMalformedHeader, d)
			}
		}
	}

	h.fixRecordStrides()
	return h, nil
}
