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

// This file contains StreamWriter, a pull-model replacement for the
// coroutine pipeline of nc_streamer/nc_generator/byteorderer: rather than a
// target sink driving generation by repeated .send()/.next() calls, the
// caller drives a small state machine forward by calling Feed with
// already-encoded big-endian bytes for the next variable value(s), and the
// state machine hands back the ByteRuns that should be appended to the
// output in order, inserting padding exactly where the Python pipeline did.
//
// A StreamWriter never seeks backward: it is meant for a destination that
// can only be appended to, such as a socket or a pipe, which is why the
// numrecs field of its header is always written as STREAMING (-1), same as
// Create does.
package netcdf

import "fmt"

// A ByteRun is a contiguous span of bytes to append to a stream at the
// current write position; runs are always meant to be written in the order
// they are returned.
type ByteRun struct {
	Data []byte
}

// streamPhase tracks which region of the file StreamWriter is currently
// emitting data for.
type streamPhase int

const (
	phaseHeader streamPhase = iota
	phaseNonRecord
	phaseRecord
	phaseDone
)

// StreamWriter drives the append-only variable data stream for a Header
// that has already been Define()-d. Construct one with NewStreamWriter,
// call Feed repeatedly with the raw encoded bytes of successive variable
// values in canonical order (non-record variables first, in declaration
// order, then one value per record variable per record, cycling for as
// many records as the source produces), and call Finish once input is
// exhausted.
type StreamWriter struct {
	h     *Header
	phase streamPhase

	order []*variable // non-record variables, in declaration order
	idx   int         // index into order for the variable currently being filled

	got int64 // bytes received so far for the variable at order[idx]

	recVars   []*variable
	recCursor int // which record var within the current record slab is being filled
}

// NewStreamWriter constructs a StreamWriter for h, which must already be
// Define()-d. The returned ByteRun is the encoded header and must be the
// first thing written to the stream.
func NewStreamWriter(h *Header) (*StreamWriter, ByteRun, error) {
	if h.isMutable() {
		panic("NewStreamWriter called on a header that has not been Define-d")
	}

	var nonrec, rec []*variable
	for i := range h.vars {
		v := &h.vars[i]
		if v.isRecordVariable() {
			rec = append(rec, v)
		} else {
			nonrec = append(nonrec, v)
		}
	}

	s := &StreamWriter{h: h, phase: phaseNonRecord, order: nonrec, recVars: rec}
	if len(s.order) == 0 {
		if len(s.recVars) == 0 {
			s.phase = phaseDone
		} else {
			s.phase = phaseRecord
		}
	}

	var buf bytesBuffer
	if err := h.WriteHeader(&buf); err != nil {
		return nil, ByteRun{}, err
	}
	return s, ByteRun{Data: buf.Bytes()}, nil
}

// current returns the variable currently accepting data, or nil if the
// writer has moved past the last variable (for a header with no variables
// at all, once every non-record variable is filled in a header without
// record variables, or after Finish).
func (s *StreamWriter) current() *variable {
	if s.phase == phaseRecord {
		if len(s.recVars) == 0 {
			return nil
		}
		return s.recVars[s.recCursor]
	}
	if s.idx >= len(s.order) {
		return nil
	}
	return s.order[s.idx]
}

// dataLen is the unpadded byte length of one instance of the current
// variable's value (its full shape for a non-record variable, one record's
// worth for a record variable).
func dataLen(v *variable) int64 {
	if v.isRecordVariable() {
		return v.strides[0]
	}
	return v.strides[0]
}

// advance moves past the just-completed variable, cycling through record
// variables or falling off the end of the non-record list into the record
// phase.
func (s *StreamWriter) advance() {
	s.got = 0
	switch s.phase {
	case phaseNonRecord:
		s.idx++
		if s.idx >= len(s.order) {
			if len(s.recVars) == 0 {
				s.phase = phaseDone
			} else {
				s.phase = phaseRecord
				s.recCursor = 0
			}
		}
	case phaseRecord:
		s.recCursor++
		if s.recCursor >= len(s.recVars) {
			s.recCursor = 0 // next record, same variable order
		}
	}
}

// Feed accepts the big-endian encoded bytes of (part of) the next
// variable's value. chunk may be shorter than the variable's remaining
// data, in which case it is forwarded as-is and the caller must Feed the
// rest in a subsequent call; chunk must never overshoot into the next
// variable's data. Feed returns the ByteRun to append to the stream,
// padding with zero bytes whenever chunk completes a variable's data and
// the padded storage size is larger than the raw data size.
func (s *StreamWriter) Feed(chunk []byte) (ByteRun, error) {
	v := s.current()
	if v == nil {
		return ByteRun{}, fmt.Errorf("netcdf: Feed called after all variables are filled")
	}

	want := dataLen(v)
	if s.got+int64(len(chunk)) > want {
		return ByteRun{}, fmt.Errorf("netcdf: Feed: variable %q received more data than its declared size", v.name)
	}

	s.got += int64(len(chunk))
	out := chunk

	if s.got == want {
		// a lone record variable's records are stored unpadded (see
		// fixRecordStrides)
		padded := pad4(want)
		if v.isRecordVariable() && len(s.recVars) == 1 {
			padded = want
		}
		if pad := padded - want; pad > 0 {
			out = append(append([]byte(nil), chunk...), make([]byte, pad)...)
		}
		s.advance()
	}

	return ByteRun{Data: out}, nil
}

// Finish signals that no more record data will be fed. It is only valid to
// call Finish while in the record phase (or, for a header with no record
// variables, once every non-record variable is filled) with recCursor == 0, i.e. after a whole number of
// complete records; an incomplete final record is an error, matching the
// Python pipeline's behaviour of simply stopping, which this state machine
// makes an explicit, checked condition instead.
func (s *StreamWriter) Finish() error {
	switch s.phase {
	case phaseDone:
		return nil
	case phaseRecord:
		if s.recCursor != 0 || s.got != 0 {
			return fmt.Errorf("netcdf: Finish called mid-record")
		}
		s.phase = phaseDone
		return nil
	default:
		return fmt.Errorf("netcdf: Finish called before all non-record variables were filled")
	}
}

// bytesBuffer is the minimal io.Writer StreamWriter needs to capture the
// encoded header; kept local to avoid importing bytes.Buffer's much larger
// surface for a single use.
type bytesBuffer struct{ buf []byte }

func (b *bytesBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *bytesBuffer) Bytes() []byte { return b.buf }
