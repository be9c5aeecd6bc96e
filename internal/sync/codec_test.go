package sync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codecs(t *testing.T) []FrameCodec {
	t.Helper()
	z, err := NewZstdCodec()
	require.NoError(t, err)
	return []FrameCodec{NewPassthroughCodec(), z}
}

func TestFrameCodec_RoundTrip(t *testing.T) {
	big := make([]int32, 4096)
	for i := range big {
		big[i] = int32(i%7) - 3
	}
	frames := []Frame{
		{Kind: FrameFull, Values: big},
		{Kind: FrameRange, Offset: 123, Values: []int32{-1, 0, 0x00FFFFFF, -2147483647}},
		{Kind: FrameRange, Offset: 9, Values: []int32{}},
	}

	for _, c := range codecs(t) {
		for _, f := range frames {
			payload, err := c.Encode(f)
			require.NoError(t, err, c.Name())

			got, err := c.Decode(payload)
			require.NoError(t, err, c.Name())
			assert.Equal(t, f.Kind, got.Kind)
			assert.Equal(t, f.Offset, got.Offset)
			assert.Equal(t, len(f.Values), len(got.Values))
			if len(f.Values) > 0 {
				assert.Equal(t, f.Values, got.Values, c.Name())
			}
		}
	}
}

func TestFrameCodec_ZstdCompressesRepetitiveFrames(t *testing.T) {
	z, err := NewZstdCodec()
	require.NoError(t, err)

	f := Frame{Kind: FrameFull, Values: make([]int32, 1<<14)}
	raw, err := NewPassthroughCodec().Encode(f)
	require.NoError(t, err)
	packed, err := z.Encode(f)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(raw)/10, "однородный буфер должен хорошо сжиматься")
}

func TestFrameCodec_RejectsCorrupt(t *testing.T) {
	c := NewPassthroughCodec()

	_, err := c.Decode([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrCorruptFrame))

	payload, err := c.Encode(Frame{Kind: FrameRange, Offset: 1, Values: []int32{1, 2}})
	require.NoError(t, err)
	_, err = c.Decode(payload[:len(payload)-1])
	assert.True(t, errors.Is(err, ErrCorruptFrame))

	payload[0] = 0x7f
	_, err = c.Decode(payload)
	assert.True(t, errors.Is(err, ErrCorruptFrame))

	z, err := NewZstdCodec()
	require.NoError(t, err)
	_, err = z.Decode([]byte("not zstd at all"))
	assert.True(t, errors.Is(err, ErrCorruptFrame))

	_, err = c.Encode(Frame{Kind: 0})
	assert.Error(t, err)
	_, err = c.Encode(Frame{Kind: FrameRange, Offset: -1})
	assert.Error(t, err)
}

func TestNewCodec(t *testing.T) {
	c, err := NewCodec(false)
	require.NoError(t, err)
	assert.Equal(t, "passthrough", c.Name())

	c, err = NewCodec(true)
	require.NoError(t, err)
	assert.Equal(t, "zstd", c.Name())
	assert.Equal(t, "range", FrameRange.String())
}
