package netcdf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStreamingMatchesEagerWriter builds the same logical file two ways —
// once via Create + Writer (random-access) and once via StreamWriter's
// pull-model Feed/Finish (append-only) — and asserts the resulting bytes
// are byte-for-byte identical.
func TestStreamingMatchesEagerWriter(t *testing.T) {
	newHeader := func(t *testing.T) *Header {
		h, err := NewHeader([]string{"time", "x"}, []int{0, 3})
		require.NoError(t, err)
		require.NoError(t, h.AddVariable("fixed", []string{"x"}, []int32{}))
		require.NoError(t, h.AddVariable("rec", []string{"time", "x"}, []float32{}))
		h.Define()
		return h
	}

	const numrecs = 2

	// --- eager path ---
	hEager := newHeader(t)
	size, err := hEager.Filesize(numrecs)
	require.NoError(t, err)
	storage := newMemStorage(int(size))

	f, err := Create(storage, hEager)
	require.NoError(t, err)

	wf := f.Writer("fixed", nil, nil)
	_, err = wf.Write([]int32{10, 20, 30})
	require.NoError(t, err)

	wr := f.Writer("rec", nil, nil)
	_, err = wr.Write([]float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	// --- streaming path ---
	hStream := newHeader(t)
	sw, headerRun, err := NewStreamWriter(hStream)
	require.NoError(t, err)

	var out bytes.Buffer
	out.Write(headerRun.Data)

	feedValue := func(v interface{}) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
		run, err := sw.Feed(buf.Bytes())
		require.NoError(t, err)
		out.Write(run.Data)
	}

	feedValue(int32(10))
	feedValue(int32(20))
	feedValue(int32(30))

	records := [][]float32{{1, 2, 3}, {4, 5, 6}}
	for _, rec := range records {
		for _, v := range rec {
			feedValue(v)
		}
	}
	require.NoError(t, sw.Finish())

	require.Equal(t, int(size), out.Len())
	require.Equal(t, storage.data, out.Bytes())
}
