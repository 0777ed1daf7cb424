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

// This file contains the data layout engine: computing vsize, recsize and
// begin offsets for every variable in canonical order.

package netcdf

// fixRecordStrides computes recsize (the stride between successive records)
// and rewrites each record variable's strides so strides[0] holds its own
// vsize and strides[1] holds the shared recsize.
//
// If there is exactly one record variable, recsize is its unpadded vsize,
// per the record-padding rule, and a header being defined also writes that
// unpadded size as the variable's vsize field; with two or more, recsize is
// the sum of their vsizes each padded to a multiple of 4.
func (h *Header) fixRecordStrides() {
	recvars := 0
	var slabsize int64

	for i := range h.vars {
		if h.vars[i].strides[0] == 0 && len(h.vars[i].strides) > 1 {
			recvars++
			slabsize = h.vars[i].strides[1]
		}
	}

	// if there was just 1 recvar, slabsize has been set above, and does not require padding
	// otherwise recompute based on all of the vsizes of the record variables
	if recvars > 1 {
		slabsize = 0
		for i := range h.vars {
			if h.vars[i].strides[0] == 0 { // is record variable
				slabsize += pad4(h.vars[i].strides[1])
			}
		}
	}

	for i := range h.vars {
		if h.vars[i].strides[0] == 0 {
			// save the vsize in the [0] entry which is not used for indexing anyway
			h.vars[i].strides[0] = h.vars[i].strides[1]
			h.vars[i].strides[1] = slabsize
			if recvars == 1 && h.isMutable() && h.vars[i].vsize >= 0 {
				h.vars[i].vsize = int32(h.vars[i].strides[0])
			}
		}
	}
}

// dataStart returns the offset of the first variable's data: the header
// length for a header still being defined, or the begin of the first
// non-record variable (falling back to the first variable of any kind) for
// one already laid out.
func (h *Header) dataStart() int64 {
	if h.isMutable() {
		return pad4(h.size())
	}

	ds := h.vars[0].begin

	for i := range h.vars {
		if !h.vars[i].isRecordVariable() {
			ds = h.vars[i].begin
			break
		}
	}

	return ds
}

// setOffsets walks all variables in canonical order (non-record first,
// then record, each group in declaration order) and assigns begin
// cumulatively starting at max(start, h.size()), rounded up to a multiple
// of 4. It returns the first and last assigned offsets; last is zero if
// there are no variables.
func (h *Header) setOffsets(start int64) (first, last int64) {
	offs := h.size()
	if offs < start {
		offs = start
	}

	offs = pad4(offs)
	first = offs

	for i := range h.vars {
		if !h.vars[i].isRecordVariable() {
			h.vars[i].begin = offs
			last = offs
			offs += pad4(h.vars[i].vSize())
		}
	}

	for i := range h.vars {
		if h.vars[i].isRecordVariable() {
			h.vars[i].begin = offs
			last = offs
			offs += pad4(h.vars[i].vSize())
		}
	}

	return
}

// slabs returns the byte offset and per-record stride (recsize) of the
// record region, or (0, 0) if there are no record variables.
func (h *Header) slabs() (offs, size int64) {
	for i := range h.vars {
		if h.vars[i].isRecordVariable() {
			offs = h.vars[i].begin
			size = h.vars[i].strides[1] // slabsize
			break
		}
	}
	return
}

// Filesize returns the size in bytes this header implies for a file
// holding numrecs records. With record variables present but zero records,
// filesize is the offset right after all non-record data, i.e. begin of
// the first record variable.
//
// Filesize panics if called on a mutable (not yet Define-d) header.
func (h *Header) Filesize(numrecs int64) (int64, error) {
	if h.isMutable() {
		panic("Filesize called on a header that has not been Define-d")
	}

	offs, size := h.slabs()
	if size == 0 {
		// no record variables: size is determined purely by non-record data
		if len(h.vars) == 0 {
			return h.size(), nil
		}
		last := h.vars[len(h.vars)-1]
		return last.begin + pad4(last.vSize()), nil
	}

	if numrecs < 0 {
		return 0, ErrNumrecsUnset
	}

	return offs + numrecs*size, nil
}

// recordCount is the inverse of Filesize: given the actual size in bytes of
// a file on disk, it derives how many complete records it holds. Used by
// UpdateNumRecs to recover the record count of a file written without ever
// tracking it explicitly. Any incomplete trailing record is not counted.
// Returns 0 if there are no record variables at all.
func (h *Header) recordCount(fsize int64) int64 {
	offs, size := h.slabs()
	if size == 0 {
		return 0
	}
	n := (fsize - offs) / size
	if n < 0 {
		return 0
	}
	return n
}
