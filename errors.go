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

// This file contains the sentinel error kinds returned by this package.
// Callers should match them with errors.Is; wrapped errors carry additional
// context with %w.

package netcdf

import "errors"

var (
	// ErrNotNetCDF is returned when a file is missing the "CDF" magic or
	// carries an unsupported version byte.
	ErrNotNetCDF = errors.New("netcdf: not a NetCDF classic file")

	// ErrMalformedHeader is returned for an unexpected grammar tag, a
	// negative length/count prefix, a truncated field, or an out-of-range
	// dimension id.
	ErrMalformedHeader = errors.New("netcdf: malformed header")

	// ErrUnsupportedType is returned for a type tag outside {1..6}, or
	// when encoding a Go value whose dynamic type has no NetCDF
	// counterpart.
	ErrUnsupportedType = errors.New("netcdf: unsupported element type")

	// ErrInvalidShape is returned when an unlimited dimension is not the
	// first dimension of a variable, when more than one unlimited
	// dimension is declared, or a non-first dimension is given length 0.
	ErrInvalidShape = errors.New("netcdf: invalid shape")

	// ErrNumrecsUnset is returned by Header.Filesize when record
	// variables exist but the caller has not supplied a record count.
	ErrNumrecsUnset = errors.New("netcdf: numrecs is not set")

	// ErrNotWritable is returned when a write is attempted on a File
	// memory-mapped read-only by OpenMmap, or past the end of a memory
	// map. Mutating an immutable Header panics instead.
	ErrNotWritable = errors.New("netcdf: not writable")

	// ErrIoError wraps an underlying storage or mapping failure; prefer
	// to propagate the underlying error directly with %w instead of this
	// sentinel where a more specific *os.PathError etc. is available.
	ErrIoError = errors.New("netcdf: i/o error")
)

// badMagic etc. retain their unexported names for the low level decoder
// calls already wired in read.go, each wrapping one exported sentinel above
// so callers can match it with errors.Is: ErrNotNetCDF for the magic and
// version checks, ErrMalformedHeader for the tag and length checks, and
// ErrUnsupportedType for an attribute's type.
var (
	badMagic         = wrapf(ErrNotNetCDF, "invalid magic")
	badVersion       = wrapf(ErrNotNetCDF, "unsupported version")
	badTag           = wrapf(ErrMalformedHeader, "invalid tag")
	badLength        = wrapf(ErrMalformedHeader, "invalid data length")
	badAttributeType = wrapf(ErrUnsupportedType, "invalid attribute storage type")
)

// wrapf builds a static sentinel that both prints a descriptive message and
// satisfies errors.Is(err, kind), without needing every call site to
// fmt.Errorf separately.
func wrapf(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return "netcdf: " + e.msg }
func (e *kindError) Unwrap() error { return e.kind }
