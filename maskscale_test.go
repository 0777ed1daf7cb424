package netcdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskAndScaleRoundTrip(t *testing.T) {
	h, err := NewHeader([]string{"x"}, []int{4})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("v", []string{"x"}, []int16{}))
	h.AddAttribute("v", "scale_factor", []float32{0.5})
	h.AddAttribute("v", "add_offset", []float32{10})
	h.AddAttribute("v", "missing_value", []int16{-999})
	h.Define()

	raw := []int16{0, 10, -999, 20}

	values, mask, err := h.MaskAndScale("v", raw)
	require.NoError(t, err)
	require.Len(t, mask, 4)

	assert.False(t, mask[0])
	assert.InDelta(t, 10.0, values[0], 1e-9) // 0*0.5+10
	assert.False(t, mask[1])
	assert.InDelta(t, 15.0, values[1], 1e-9) // 10*0.5+10
	assert.True(t, mask[2])
	assert.False(t, mask[3])
	assert.InDelta(t, 20.0, values[3], 1e-9) // 20*0.5+10

	back, err := h.InverseMaskAndScale("v", values, mask)
	require.NoError(t, err)
	got := back.([]int16)
	assert.Equal(t, int16(0), got[0])
	assert.Equal(t, int16(10), got[1])
	assert.Equal(t, int16(-999), got[2]) // restored from missing_value
	assert.Equal(t, int16(20), got[3])
}

func TestMaskAndScaleNoAttributesIsIdentity(t *testing.T) {
	h, err := NewHeader([]string{"x"}, []int{3})
	require.NoError(t, err)
	require.NoError(t, h.AddVariable("v", []string{"x"}, []float32{}))
	h.Define()

	values, mask, err := h.MaskAndScale("v", []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, mask)
	assert.Equal(t, []float64{1, 2, 3}, values)
}
