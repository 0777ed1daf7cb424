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

// This file deals with the numrecs field of a CDF header: this library
// never consults it (Filesize/recordCount derive the same information from
// the variable layout and an explicit count), but other NetCDF readers do,
// so UpdateNumRecs lets a writer keep it accurate after the fact.

package netcdf

import (
	"encoding/binary"
	"io"
	"os"
)

// numrecsStreaming is the value WriteHeader always writes into numrecs: it
// tells classic readers the count is indeterminate and must be derived from
// file size.
const numrecsStreaming = int32(-1)

// numrecsOffset is the byte offset of numrecs within the header: right
// after the 4-byte "CDF"+version preamble.
const numrecsOffset = 4

func readNumRecs(r io.ReaderAt) (int64, error) {
	var buf [4]byte
	if _, err := r.ReadAt(buf[:], numrecsOffset); err != nil {
		return 0, err
	}
	return int64(int32(binary.BigEndian.Uint32(buf[:]))), nil
}

func writeNumRecs(w io.WriterAt, numrecs int64) error {
	if numrecs < 0 || numrecs >= (1<<31) {
		numrecs = int64(numrecsStreaming)
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(numrecs))
	_, err := w.WriteAt(buf[:], numrecsOffset)
	return err
}

// UpdateNumRecs recomputes the number of complete records held by the file
// f from its on-disk size and rewrites the numrecs field of its header to
// match. Any incomplete trailing record is not counted.
//
// Call this once, after all writing by the program is done; it re-reads,
// re-parses and Checks the whole header, which is not cheap, and f's file
// offset is left at EOF afterward.
func UpdateNumRecs(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	h, err := ReadHeader(f)
	if err != nil {
		return err
	}

	// Leave f's offset at EOF, as documented above; the numrecs write goes
	// through WriteAt and does not depend on it. A header that fails Check
	// is never written to.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if errs := h.Check(); len(errs) > 0 {
		return errs[0]
	}

	return writeNumRecs(f, h.recordCount(fi.Size()))
}
