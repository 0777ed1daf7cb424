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

// This file contains the primitive type registry: the version byte, the six
// NetCDF classic data types, and a single table describing each one instead
// of the parallel string/size/fill-value arrays a pre-generics port needs.

package netcdf

import "fmt"

// A version of 1 indicates 32 bit offsets, a version of 2 indicates 64 bit
// offsets. All other versions, in particular V4 (which uses HDF as a
// backing store), are unsupported.
type version byte

const (
	_V1 version = iota + 1 // 32 bit offsets
	_V2                    // 64 bit offsets
)

func (v version) String() string {
	switch v {
	case _V1:
		return "V1"
	case _V2:
		return "V2"
	}
	return fmt.Sprintf("<%d>", byte(v))
}

// A datatype encodes the NetCDF data type of a variable or attribute.
type datatype int32

const (
	_BYTE datatype = iota + 1
	_CHAR
	_SHORT
	_INT
	_FLOAT
	_DOUBLE
)

// kind bundles everything the codec needs to know about one datatype: its
// wire name, the width of one stored element, the default fill value used
// when a variable declares none of its own, and a constructor for a zeroed
// Go value of the matching dynamic type.
type kind struct {
	name string
	size int
	fill interface{}
	zero func(n int) interface{}
}

var kinds = map[datatype]kind{
	_BYTE:   {"BYTE", 1, int8(-127), func(n int) interface{} { return make([]uint8, n) }},
	_CHAR:   {"CHAR", 1, uint8(0), func(int) interface{} { return "" }},
	_SHORT:  {"SHORT", 2, int16(-32767), func(n int) interface{} { return make([]int16, n) }},
	_INT:    {"INT", 4, int32(-2147483647), func(n int) interface{} { return make([]int32, n) }},
	_FLOAT:  {"FLOAT", 4, float32(9.9692099683868690e+36), func(n int) interface{} { return make([]float32, n) }},
	_DOUBLE: {"DOUBLE", 8, float64(9.9692099683868690e+36), func(n int) interface{} { return make([]float64, n) }},
}

// valid reports whether d is one of the six defined NetCDF classic types.
func (d datatype) valid() bool {
	_, ok := kinds[d]
	return ok
}

// storageSize returns the number of bytes occupied by one element of d, or
// 0 if d is not a valid datatype.
func (d datatype) storageSize() int {
	return kinds[d].size
}

// Zero returns a slice of the proper Go type of length n, except for
// _CHAR, for which it returns the empty string.
func (d datatype) Zero(n int) interface{} {
	k, ok := kinds[d]
	if !ok {
		return nil
	}
	return k.zero(n)
}

// FillValue returns d's default fill value, used when a variable declares
// no _FillValue attribute of its own.
func (d datatype) FillValue() interface{} {
	return kinds[d].fill
}

// String renders the datatype as "BYTE", "CHAR", "SHORT", "INT", "FLOAT",
// "DOUBLE" or "<42>" if the type is invalid.
func (d datatype) String() string {
	if k, ok := kinds[d]; ok {
		return k.name
	}
	return fmt.Sprintf("<%d>", int32(d))
}

// dataTypeFromValues maps the dynamic type of val to its corresponding
// datatype.
//
// The only valid dynamic types of val are []uint8, string, []int16,
// []int32, []float32 or []float64. Any other type returns the zero
// (invalid) datatype.
func dataTypeFromValues(val interface{}) datatype {
	switch val.(type) {
	case []uint8:
		return _BYTE
	case string:
		return _CHAR
	case []int16:
		return _SHORT
	case []int32:
		return _INT
	case []float32:
		return _FLOAT
	case []float64:
		return _DOUBLE
	}
	return 0
}

// pad4 rounds x up to the nearest multiple of 4.
func pad4(x int64) int64 { return (x + 3) &^ 3 }
