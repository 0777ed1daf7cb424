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

// This file defines the header structure: dimensions, attributes,
// variables, and the Header type that owns them plus the accessors,
// mutation and validation methods built on top.

package netcdf

import (
	"bytes"
	"fmt"
	"io"
)

// A NetCDF dimension as represented in the header.
type dimension struct {
	name   string
	length int32
}

// A NetCDF global or variable attribute as represented in the header.
type attribute struct {
	name   string
	dtype  datatype
	values interface{} // []uint8, string, []int16, []int32, []float32 or []float64
}

// Fprint writes a debug representation of the attribute, "pfx:name type =
// val", to w. Long strings are truncated and suffixed with "...".
func (a *attribute) Fprint(w io.Writer, pfx string) {
	fmt.Fprintf(w, "%s:%s %s = ", pfx, a.name, a.dtype)
	if a.dtype == _CHAR {
		s := a.values.(string)
		if len(s) > 40 {
			s = s[:40] + "..."
		}
		fmt.Fprintf(w, "%#v", s)
		return
	}
	fmt.Fprintf(w, "%#v", a.values)
}

// scalarValue returns the sole element of values if it is a length-1 slice
// (or a length-1 string, for a CHAR attribute), and whether that held.
func scalarValue(values interface{}) (interface{}, bool) {
	switch v := values.(type) {
	case []uint8:
		if len(v) == 1 {
			return v[0], true
		}
	case string:
		if len(v) == 1 {
			return v[0], true
		}
	case []int16:
		if len(v) == 1 {
			return v[0], true
		}
	case []int32:
		if len(v) == 1 {
			return v[0], true
		}
	case []float32:
		if len(v) == 1 {
			return v[0], true
		}
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return nil, false
}

// A NetCDF variable as represented in the header.
type variable struct {
	// stored
	name  string
	dim   []int32 // indices into header.dim
	att   []attribute
	dtype datatype
	vsize int32 // written to the file but never consulted on read
	begin int64

	// computed by setComputed
	lengths []int // header.dim[v.dim[i]].length, one per v.dim entry

	// for a non-record variable: {nz*ny*nx*dsz, ny*nx*dsz, nx*dsz, dsz}
	// for a record variable:     {ny*nx*dsz (vsize), recsize, nx*dsz, dsz}
	strides []int64
}

func (v *variable) isRecordVariable() bool { return len(v.lengths) > 0 && v.lengths[0] == 0 }
func (v *variable) vSize() int64           { return v.strides[0] }

func (v *variable) setComputed(dims []dimension) {
	v.lengths = make([]int, len(v.dim))
	for i, d := range v.dim {
		if d >= 0 && d < int32(len(dims)) {
			v.lengths[i] = int(dims[d].length)
		}
	}

	v.strides = make([]int64, len(v.dim)+1)
	v.strides[len(v.dim)] = int64(v.dtype.storageSize())
	for i := len(v.dim) - 1; i >= 0; i-- {
		v.strides[i] = int64(v.lengths[i]) * v.strides[i+1]
	}

	vsize := v.strides[0]
	if vsize == 0 && len(v.strides) > 1 {
		vsize = v.strides[1] // record variable: vsize is one record's worth
	}
	vsize = pad4(vsize)
	// The NetCDF classic grammar stores vsize as a signed 32 bit NON_NEG;
	// a size that would overflow that is written as -1 (the same sentinel
	// used for STREAMING numrecs) rather than wrapping.
	if vsize > (1<<31 - 4) {
		v.vsize = -1
	} else {
		v.vsize = int32(vsize)
	}
}

func (v *variable) offsetOf(idx []int) int64 {
	o := v.begin
	for i, x := range idx {
		o += int64(x) * v.strides[i+1]
	}
	return o
}

// fillValue returns v's own scalar _FillValue attribute if it declared one
// of matching type, otherwise the datatype's default fill value.
func (v *variable) fillValue() interface{} {
	for i := range v.att {
		if v.att[i].name != "_FillValue" || v.att[i].dtype != v.dtype {
			continue
		}
		if sv, ok := scalarValue(v.att[i].values); ok {
			return sv
		}
	}
	return v.dtype.FillValue()
}

// A Header describes the dimensions, attributes and variables of a NetCDF
// classic file, and the layout (vsize/begin for each variable) of its data
// section.
//
// The format itself is documented in "The NetCDF Classic Format
// Specification":
//
//	http://www.unidata.ucar.edu/software/netcdf/docs/classic_format_spec.html
//
// A header decoded by ReadHeader is immutable. A header built with
// NewHeader is mutable via AddVariable/AddAttribute until Define is called,
// which fixes the variable layout and the header's version (V1 or V2).
//
// The numrecs field defined by the format is never consulted by this
// package (see layout.go's Filesize/recordCount); WriteHeader always writes
// it as STREAMING, and UpdateNumRecs can set it to a concrete value for
// interoperability with other NetCDF readers.
type Header struct {
	version version
	dim     []dimension
	att     []attribute
	vars    []variable
}

// findByName returns the index of the first element of items for which
// name returns want, or -1.
func findByName[T any](items []T, name func(T) string, want string) int {
	for i := range items {
		if name(items[i]) == want {
			return i
		}
	}
	return -1
}

func (h *Header) dimByName(v string) int {
	return findByName(h.dim, func(d dimension) string { return d.name }, v)
}

func (h *Header) varByName(v string) *variable {
	i := findByName(h.vars, func(vv variable) string { return vv.name }, v)
	if i < 0 {
		return nil
	}
	return &h.vars[i]
}

func (h *Header) attrByName(v, a string) *attribute {
	attrs := &h.att
	if v != "" {
		vv := h.varByName(v)
		if vv == nil {
			return nil
		}
		attrs = &vv.att
	}
	i := findByName(*attrs, func(at attribute) string { return at.name }, a)
	if i < 0 {
		return nil
	}
	return &(*attrs)[i]
}

// Dimensions returns the names of the dimensions of variable v, or all
// dimensions if v == "". Returns nil if v is not a valid variable.
//
// May panic on an un-Check-ed header.
func (h *Header) Dimensions(v string) []string {
	if v == "" {
		names := make([]string, len(h.dim))
		for i := range h.dim {
			names[i] = h.dim[i].name
		}
		return names
	}

	vv := h.varByName(v)
	if vv == nil {
		return nil
	}
	names := make([]string, len(vv.dim))
	for i, d := range vv.dim {
		names[i] = h.dim[d].name
	}
	return names
}

// Lengths returns the lengths of the dimensions of variable v, or of all
// dimensions if v == "". Returns nil if v is not a valid variable.
//
// May panic on an un-Check-ed header.
func (h *Header) Lengths(v string) []int {
	if v == "" {
		lens := make([]int, len(h.dim))
		for i := range h.dim {
			lens[i] = int(h.dim[i].length)
		}
		return lens
	}

	vv := h.varByName(v)
	if vv == nil {
		return nil
	}
	return vv.lengths
}

// ZeroValue returns a zeroed slice of variable v's element type, of length
// n (the empty string, for a CHAR variable). Returns nil if v is not a
// valid variable.
func (h *Header) ZeroValue(v string, n int) interface{} {
	vv := h.varByName(v)
	if vv == nil {
		return nil
	}
	return vv.dtype.Zero(n)
}

// FillValue returns the fill value of variable v: its own scalar
// _FillValue attribute if declared with matching type, otherwise the
// type's default.
func (h *Header) FillValue(v string) interface{} {
	vv := h.varByName(v)
	if vv == nil {
		return nil
	}
	return vv.fillValue()
}

// IsRecordVariable reports whether v names a variable whose outermost
// dimension is the header's record dimension.
func (h *Header) IsRecordVariable(v string) bool {
	vv := h.varByName(v)
	return vv != nil && vv.isRecordVariable()
}

// Variables returns the names of all variables defined in the header.
func (h *Header) Variables() []string {
	names := make([]string, len(h.vars))
	for i := range h.vars {
		names[i] = h.vars[i].name
	}
	return names
}

// Attributes returns the names of all attributes of variable v, or of all
// global attributes if v == "".
func (h *Header) Attributes(v string) []string {
	attrs := &h.att
	if v != "" {
		vv := h.varByName(v)
		if vv == nil {
			return nil
		}
		attrs = &vv.att
	}
	names := make([]string, len(*attrs))
	for i := range *attrs {
		names[i] = (*attrs)[i].name
	}
	return names
}

// GetAttribute returns the value of attribute a of variable v, or the
// global attribute a if v == "". The returned value (one of []uint8,
// string, []int16, []int32, []float32 or []float64) is shared with the
// header and must not be modified.
func (h *Header) GetAttribute(v, a string) interface{} {
	attr := h.attrByName(v, a)
	if attr == nil {
		return nil
	}
	return attr.values
}

// NewHeader constructs a new mutable header.
//
// dims and lengths give the names and lengths of the dimensions. A length
// of 0 marks the (at most one) unlimited dimension, which must be declared
// first. A repeated dimension name or a negative length is a programmer
// error and panics; declaring a second unlimited dimension, or giving a
// non-first dimension length 0, is instead reported as ErrInvalidShape,
// since both can depend on data the caller only learns at run time.
//
// The header stays mutable, usable with AddAttribute/AddVariable, until
// Define is called.
func NewHeader(dims []string, lengths []int) (*Header, error) { return newHeader(0, dims, lengths) }

func newHeader(v version, dims []string, lengths []int) (*Header, error) {
	if len(dims) != len(lengths) {
		panic("dims and lengths must be the same length")
	}

	recdim := -1
	for i, name := range dims {
		if lengths[i] < 0 {
			panic("invalid dimension length")
		}
		if lengths[i] == 0 {
			if i != 0 {
				return nil, fmt.Errorf("dimension %q: %w: unlimited dimension must be first", name, ErrInvalidShape)
			}
			if recdim != -1 {
				return nil, fmt.Errorf("dimension %q: %w: multiple unlimited dimensions", name, ErrInvalidShape)
			}
			recdim = i
		}
		for j := i + 1; j < len(dims); j++ {
			if dims[j] == name {
				panic("duplicate dimension name: " + name)
			}
		}
	}

	h := &Header{version: v, dim: make([]dimension, len(dims))}
	for i, name := range dims {
		h.dim[i] = dimension{name: name, length: int32(lengths[i])}
	}
	return h, nil
}

// AddVariable adds a variable of the type of val with the named dimensions
// to the header.
//
// An existing variable name or a nonexistent dimension name is a programmer
// error and panics. Using the unlimited dimension anywhere but first is
// reported as ErrInvalidShape.
//
// The datatype is taken from the dynamic type of val: []uint8, string,
// []int16, []int32, []float32 or []float64. Any other type panics; val's
// contents are ignored.
//
// The header must be mutable (built with NewHeader, not ReadHeader).
func (h *Header) AddVariable(v string, dims []string, val interface{}) error {
	if !h.isMutable() {
		panic("cannot call AddVariable on an immutable header")
	}
	if h.varByName(v) != nil {
		panic("repeated add of variable " + v)
	}

	dt := dataTypeFromValues(val)
	if !dt.valid() {
		panic("invalid attribute value type")
	}

	dims32 := make([]int32, len(dims))
	for i, name := range dims {
		d := h.dimByName(name)
		if d < 0 {
			panic("invalid dimension")
		}
		if h.dim[d].length == 0 && i != 0 {
			return fmt.Errorf("variable %q dimension %q: %w: unlimited dimension not outermost", v, name, ErrInvalidShape)
		}
		dims32[i] = int32(d)
	}

	h.vars = append(h.vars, variable{name: v, dim: dims32, dtype: dt})
	h.vars[len(h.vars)-1].setComputed(h.dim)
	return nil
}

// AddAttribute adds an attribute named a to variable v, or to the global
// attributes if v is the empty string.
//
// A nonexistent variable name or a repeated attribute name panics. val may
// be []uint8, string, []int16, []int32, []float32 or []float64, stored as
// NetCDF type BYTE, CHAR, SHORT, INT, FLOAT or DOUBLE respectively.
//
// The header must be mutable (built with NewHeader, not ReadHeader).
func (h *Header) AddAttribute(v, a string, val interface{}) {
	if !h.isMutable() {
		panic("cannot call AddAttribute on an immutable header")
	}

	attrs := &h.att
	if v != "" {
		vv := h.varByName(v)
		if vv == nil {
			panic("no such variable")
		}
		attrs = &vv.att
	}
	if findByName(*attrs, func(at attribute) string { return at.name }, a) >= 0 {
		panic("repeated add of attribute " + v + ":" + a)
	}

	dt := dataTypeFromValues(val)
	if !dt.valid() {
		panic("invalid attribute value type")
	}
	*attrs = append(*attrs, attribute{name: a, dtype: dt, values: val})
}

// String returns a summary dump of the header, suitable for debugging.
func (h *Header) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "version:%v\ndimensions:\n", h.version)
	for i := range h.dim {
		if h.dim[i].length == 0 {
			fmt.Fprintf(&b, "\t%s = UNLIMITED ;\n", h.dim[i].name)
		} else {
			fmt.Fprintf(&b, "\t%s = %d ;\n", h.dim[i].name, h.dim[i].length)
		}
	}

	fmt.Fprintf(&b, "variables:\n")
	for i := range h.vars {
		fmt.Fprintf(&b, "\t%s %s[", h.vars[i].name, h.vars[i].dtype)
		for j, d := range h.vars[i].dim {
			if j > 0 {
				fmt.Fprintf(&b, ", ")
			}
			if d < 0 || int(d) >= len(h.dim) {
				fmt.Fprintf(&b, "<invalid %d>", d)
				continue
			}
			fmt.Fprintf(&b, "%s", h.dim[d].name)
			if h.dim[d].length == 0 {
				fmt.Fprintf(&b, "*")
			}
		}
		fmt.Fprintf(&b, "] vsize:%d begin:%d\n", h.vars[i].vsize, h.vars[i].begin)
		for j := range h.vars[i].att {
			fmt.Fprintf(&b, "\t\t")
			h.vars[i].att[j].Fprint(&b, h.vars[i].name)
			fmt.Fprintf(&b, "\n")
		}
	}

	for j := range h.att {
		fmt.Fprintf(&b, "\t")
		h.att[j].Fprint(&b, "")
		fmt.Fprintf(&b, "\n")
	}

	return b.String()
}

// duplicates returns every distinct name that appears more than once among
// items.
func duplicates[T any](items []T, name func(T) string) []string {
	count := make(map[string]int, len(items))
	for _, it := range items {
		count[name(it)]++
	}
	var dup []string
	for n, c := range count {
		if c > 1 {
			dup = append(dup, n)
		}
	}
	return dup
}

// checkOffsets walks vars in declaration order, considering only those
// whose isRecordVariable matches record, and reports (via errs) any whose
// begin is not 4-byte aligned or not large enough to follow the previous
// one at offs. It returns the offset immediately past the last variable it
// considered.
func checkOffsets(vars []variable, record bool, offs int64, errs *[]error) int64 {
	for i := range vars {
		if vars[i].isRecordVariable() != record {
			continue
		}
		if vars[i].begin&3 != 0 || vars[i].begin < offs {
			*errs = append(*errs, fmt.Errorf("variable %s offset %d invalid", vars[i].name, vars[i].begin))
		}
		offs = vars[i].begin + pad4(vars[i].strides[0])
	}
	return offs
}

// Check verifies the integrity of the header:
//
//   - at most one record dimension
//   - no duplicate dimension, variable or attribute names
//   - every variable dimension index is in range, and only the first
//     dimension of a variable may be the record dimension
//   - variable offsets increase, are 4-byte aligned, leave room for the
//     preceding variable's vsize, and place all non-record variables
//     before all record variables
func (h *Header) Check() (errs []error) {
	var recordDims []string
	for i := range h.dim {
		if h.dim[i].length == 0 {
			recordDims = append(recordDims, h.dim[i].name)
		}
	}
	if len(recordDims) > 1 {
		errs = append(errs, fmt.Errorf("multiple record dimensions: %v", recordDims))
	}

	for _, name := range duplicates(h.dim, func(d dimension) string { return d.name }) {
		errs = append(errs, fmt.Errorf("repeated dimension: %v", name))
	}
	for _, name := range duplicates(h.vars, func(v variable) string { return v.name }) {
		errs = append(errs, fmt.Errorf("repeated variable: %s", name))
	}
	for _, name := range duplicates(h.att, func(a attribute) string { return a.name }) {
		errs = append(errs, fmt.Errorf("repeated attribute :%s", name))
	}
	for v := range h.vars {
		for _, name := range duplicates(h.vars[v].att, func(a attribute) string { return a.name }) {
			errs = append(errs, fmt.Errorf("repeated attribute %s:%s", h.vars[v].name, name))
		}
	}

	ndim := int32(len(h.dim))
	for v := range h.vars {
		for i, d := range h.vars[v].dim {
			if d < 0 || d >= ndim {
				errs = append(errs, fmt.Errorf("invalid dimension %s[%d] = %d", h.vars[v].name, i, d))
				continue
			}
			if h.dim[d].length == 0 && i != 0 {
				errs = append(errs, fmt.Errorf("non-outer record dimension %s[%d]", h.vars[v].name, i))
			}
		}
	}

	offs := checkOffsets(h.vars, false, pad4(h.size()), &errs)
	checkOffsets(h.vars, true, offs, &errs)

	return errs
}

func (h *Header) isMutable() bool { return h.version == 0 }

// Define makes a mutable header immutable: it computes every variable's
// begin offset in canonical order (non-record variables first, then record
// variables, each group in declaration order) and fixes the header's
// version to V1 or V2, whichever is small enough for the resulting
// offsets.
func (h *Header) Define() {
	if !h.isMutable() {
		panic("cannot Define an immutable header")
	}

	h.fixRecordStrides()

	// The layout is computed against the V1 header first. Only if the last
	// begin does not fit a 32 bit offset is the version switched to V2 and
	// the layout redone, since V2's 64 bit begin fields make the header,
	// and therefore every begin, larger.
	h.version = _V1
	if _, last := h.setOffsets(h.size()); last >= (1 << 31) {
		h.version = _V2
		h.setOffsets(h.size())
	}
}
