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

// This file contains the File type: the entity store plus the two ways of
// attaching it to storage, a plain io.ReaderAt/io.WriterAt ("eager") and a
// memory map ("zero-copy").

package netcdf

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/pacificclimate/gonetcdf/internal/parallel"
)

// A ReaderWriterAt is the underlying storage for a NetCDF file,
// providing {Read,Write}At([]byte, int64) methods.
// Since {Read,Write}At are required to not modify the underlying
// file pointer, one instance may be shared by multiple Files, although
// the documentation of io.WriterAt specifies that it only has to
// guarantee non-concurrent calls succeed.
type ReaderWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// File is the in-memory entity store: a Header plus the storage backing its
// variable data. A File opened with OpenMmap holds one memory map shared by
// every view derived from it; a File opened with Open or Create reads and
// writes through an ordinary ReaderWriterAt instead.
type File struct {
	rw     ReaderWriterAt
	Header *Header

	// mm and osFile are set only when this File owns a memory map
	// (OpenMmap/CreateMmap); Close unmaps and closes them. Every Reader or
	// Writer handed out by this File holds only a reference to f.rw, never
	// a copy of the mapping, so the caller owns the lifetime question
	// explicitly: Close while views derived from f are still in use
	// invalidates them.
	mm     mmap.MMap
	osFile *os.File
}

// Open reads the header from an existing storage rw and returns a File
// usable for reading or writing (if the underlying rw permits).
func Open(rw ReaderWriterAt) (*File, error) {
	h, err := ReadHeader(io.NewSectionReader(rw, 0, 1<<31))
	if err != nil {
		return nil, err
	}
	return &File{rw: rw, Header: h}, nil
}

// Create writes the header to a storage rw and returns a File
// usable for reading and writing.
//
// The header should not be mutable, and may be shared by multiple
// Files.  Note that at every Create the headers numrec
// field will be reset to -1 (STREAMING).
func Create(rw ReaderWriterAt, h *Header) (*File, error) {
	if h.isMutable() {
		panic("Create must be called with a fully defined header")
	}
	var buf bytes.Buffer
	err := h.WriteHeader(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := rw.WriteAt(buf.Bytes(), 0); err != nil {
		return nil, err
	}
	return &File{rw: rw, Header: h}, nil
}

// OpenMmap opens the named file read-only and memory-maps it, returning a
// File whose variable views (see Reader/Writer) are backed by that
// mapping instead of repeated ReadAt calls: a zero-copy read path for
// callers that can afford to keep the whole file mapped.
//
// Grounded on saferwall-pe's pe.New: mmap.Map(f, mmap.RDONLY, 0), with the
// File keeping the *os.File alive so the mapping stays valid until Close.
func OpenMmap(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("netcdf: %w", err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("netcdf: mmap %s: %w", path, err)
	}
	h, err := ReadHeader(bytes.NewReader([]byte(m)))
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	return &File{rw: mmapReaderWriterAt{m: m}, Header: h, mm: m, osFile: f}, nil
}

// CreateMmap creates (or truncates) the named file, writes h's header to
// it, grows it to h's eventual Filesize for numrecs records, and
// memory-maps it read-write. numrecs may be 0 for a file with no record
// variables, or for one that is to hold no records. The mapping keeps the
// size it was created with: a write past it fails with ErrNotWritable.
func CreateMmap(path string, h *Header, numrecs int64) (*File, error) {
	if h.isMutable() {
		panic("CreateMmap must be called with a fully defined header")
	}
	size, err := h.Filesize(numrecs)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("netcdf: %w", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("netcdf: %w", err)
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("netcdf: mmap %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := h.WriteHeader(&buf); err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	copy(m, buf.Bytes())

	return &File{rw: mmapReaderWriterAt{m: m, writable: true}, Header: h, mm: m, osFile: f}, nil
}

// Close releases this File's memory map (if any) and the underlying file
// descriptor. Files opened with Open/Create, which never own a mapping,
// are a no-op. Any Reader/Writer obtained from this File must not be used
// after Close.
func (f *File) Close() error {
	if f.mm == nil {
		return nil
	}
	if err := f.mm.Unmap(); err != nil {
		return fmt.Errorf("netcdf: unmap: %w", err)
	}
	f.mm = nil
	err := f.osFile.Close()
	f.osFile = nil
	return err
}

// mmapReaderWriterAt adapts an mmap.MMap (a []byte) to ReaderWriterAt so
// the rest of the package (header decode, striders, Fill) can treat a
// memory-mapped file exactly like any other storage.
type mmapReaderWriterAt struct {
	m        mmap.MMap
	writable bool
}

func (m mmapReaderWriterAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.m)) {
		return 0, io.EOF
	}
	n := copy(p, m.m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m mmapReaderWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if !m.writable || off < 0 || off+int64(len(p)) > int64(len(m.m)) {
		return 0, ErrNotWritable
	}
	return copy(m.m[off:], p), nil
}

func fill(w io.WriterAt, begin, end int64, val interface{}, dtype datatype) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, val)
	if buf.Len() != dtype.storageSize() {
		panic("invalid fill value")
	}
	d := int64(buf.Len())
	for ; begin < end; begin += d {
		if _, err := w.WriteAt(buf.Bytes(), begin); err != nil {
			return err
		}
	}
	return nil
}

// Fill overwrites the data for non-record variable named v with its fill value.
// Fill panics if v does not name a non-record variable.
// If the variable has a scalar attribute '_FillValue' of the same data type as the variable,
// it will be used, otherwise the type's default fill value will be used.
func (f *File) Fill(v string) error {
	vv := f.Header.varByName(v)
	if vv == nil || vv.isRecordVariable() {
		panic("Fill for non-record variable")
	}
	return fill(f.rw, vv.begin, vv.begin+pad4(vv.vSize()), vv.fillValue(), vv.dtype)
}

// ReadAllInto eagerly loads every non-record variable named by a key of dst
// into that key's buffer (pre-sized with f.Header.ZeroValue), fanning
// the reads out across goroutines since each non-record variable occupies a
// disjoint byte range of the file. Record variables share one interleaved
// region and are excluded: callers read those with f.Reader as usual.
//
// ReadAllInto is a convenience on top of the single-variable Reader/Writer
// API; it does not change the synchronous, single-threaded contract seen by
// the caller, since the fan-out is entirely internal to this call.
func (f *File) ReadAllInto(ctx context.Context, dst map[string]interface{}) error {
	runs := make([]func(context.Context) error, 0, len(dst))
	for name, buf := range dst {
		name, buf := name, buf
		vv := f.Header.varByName(name)
		if vv == nil {
			return fmt.Errorf("netcdf: ReadAllInto: no such variable %q", name)
		}
		if vv.isRecordVariable() {
			return fmt.Errorf("netcdf: ReadAllInto: %q is a record variable, use Reader instead", name)
		}
		runs = append(runs, func(ctx context.Context) error {
			r := f.Reader(name, nil, nil)
			_, err := r.Read(buf)
			if err == io.EOF {
				err = nil
			}
			return err
		})
	}
	return parallel.RunAll(ctx, runs...)
}

// FillRecord overwrites the data for all record variables in the r'th slab with their fill values.
func (f *File) FillRecord(r int) error {
	_, slabsize := f.Header.slabs()
	for i := range f.Header.vars {
		vv := &f.Header.vars[i]
		if !vv.isRecordVariable() {
			continue
		}
		begin := vv.begin + int64(r)*slabsize
		end := begin + pad4(vv.vSize())
		if err := fill(f.rw, begin, end, vv.fillValue(), vv.dtype); err != nil {
			return err
		}
	}
	return nil
}
