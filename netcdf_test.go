package netcdf

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimpleHeader(t *testing.T) *Header {
	t.Helper()
	h, err := NewHeader([]string{"x", "y"}, []int{3, 2})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("v", []string{"x", "y"}, []int32{}))
	h.AddAttribute("", "title", "a test file")
	h.AddAttribute("v", "units", "m")
	h.Define()
	return h
}

func TestRoundTripEagerWriter(t *testing.T) {
	h := buildSimpleHeader(t)

	var buf bytes.Buffer
	require.NoError(t, h.WriteHeader(&buf))

	storage := newMemStorage(int(h.dataStart()) + 3*2*4)
	copy(storage.data, buf.Bytes())

	f, err := Open(storage)
	require.NoError(t, err)

	w := f.Writer("v", nil, nil)
	n, err := w.Write([]int32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	r := f.Reader("v", nil, nil)
	got := r.Zero(6).([]int32)
	n, err = r.Read(got)
	// A Read that fills got returns a nil error; the check below also
	// accepts io.EOF, which f.ReadAllInto likewise treats as success.
	if err != nil {
		require.ErrorIs(t, err, io.EOF)
	}
	assert.Equal(t, 6, n)
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, got)
}

func TestNewHeaderRejectsNonFirstUnlimitedDimension(t *testing.T) {
	_, err := NewHeader([]string{"x", "time"}, []int{3, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestNewHeaderRejectsMultipleUnlimitedDimensions(t *testing.T) {
	_, err := NewHeader([]string{"time", "t2"}, []int{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestAddVariableRejectsNonOutermostRecordDimension(t *testing.T) {
	h, err := NewHeader([]string{"time", "x"}, []int{0, 3})
	require.NoError(t, err)
	err = h.AddVariable("bad", []string{"x", "time"}, []int32{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestCanonicalOrderNonRecordBeforeRecord(t *testing.T) {
	h, err := NewHeader([]string{"time", "x"}, []int{0, 3})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("rec1", []string{"time", "x"}, []int32{}))
	require.NoError(t, h.AddVariable("fixed", []string{"x"}, []float32{}))
	require.NoError(t, h.AddVariable("rec2", []string{"time"}, []int16{}))
	h.Define()

	fixed := h.varByName("fixed")
	rec1 := h.varByName("rec1")
	rec2 := h.varByName("rec2")

	assert.Less(t, fixed.begin, rec1.begin)
	assert.Less(t, fixed.begin, rec2.begin)
}

func TestRecordVariablePaddingRule(t *testing.T) {
	// exactly one record variable: its vsize is used unpadded as recsize.
	h, err := NewHeader([]string{"time"}, []int{0})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("v", []string{"time"}, []uint8{}))
	h.Define()

	_, recsize := h.slabs()
	vv := h.varByName("v")
	assert.Equal(t, vv.strides[0], recsize)
}

func TestFilesizeZeroRecordsIsBeginOfFirstRecordVariable(t *testing.T) {
	h, err := NewHeader([]string{"time", "x"}, []int{0, 4})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("fixed", []string{"x"}, []float32{}))
	require.NoError(t, h.AddVariable("rec", []string{"time"}, []int32{}))
	h.Define()

	size, err := h.Filesize(0)
	require.NoError(t, err)
	rec := h.varByName("rec")
	assert.Equal(t, rec.begin, size)
}

func TestFilesizeUnsetNumrecsWithRecordVariables(t *testing.T) {
	h, err := NewHeader([]string{"time"}, []int{0})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("rec", []string{"time"}, []int32{}))
	h.Define()

	_, err = h.Filesize(-1)
	assert.True(t, errors.Is(err, ErrNumrecsUnset))
}

// memStorage is a trivial in-memory ReaderWriterAt for tests.
type memStorage struct{ data []byte }

func newMemStorage(n int) *memStorage { return &memStorage{data: make([]byte, n)} }

func (m *memStorage) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *memStorage) WriteAt(p []byte, off int64) (int, error) {
	n := copy(m.data[off:], p)
	return n, nil
}
