package upload

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vsync "github.com/annel0/voxelfield/internal/sync"
)

func TestMirror_Uploads(t *testing.T) {
	m := NewMirror()
	m.FullUpload([]int32{1, 2, 3, 4, 5})
	m.RangeUpload(1, 2, []int32{-7, -8})
	m.RangeUpload(4, 5, []int32{9, 9, 9, 9, 9}) // за границей буфера, игнорируется

	assert.Equal(t, []int32{1, -7, -8, 4, 5}, m.Cells())
	assert.Equal(t, 1, m.FullUploads())
	assert.Equal(t, 1, m.RangeUploads())
	assert.Equal(t, 7, m.UploadedValues())
	assert.True(t, m.Equal([]int32{1, -7, -8, 4, 5}))
	assert.False(t, m.Equal([]int32{1, -7, -8, 4}))
}

func TestMirror_FullUploadCopies(t *testing.T) {
	buf := []int32{1, 2}
	m := NewMirror()
	m.FullUpload(buf)
	buf[0] = 100
	assert.Equal(t, int32(1), m.Cells()[0], "копия не должна разделять память с источником")
}

func TestFanout(t *testing.T) {
	a, b := NewMirror(), NewMirror()
	f := Fanout{a, b, Discard{}}
	f.FullUpload([]int32{0, 0, 0})
	f.RangeUpload(2, 1, []int32{5})

	assert.Equal(t, []int32{0, 0, 5}, a.Cells())
	assert.Equal(t, a.Cells(), b.Cells())
}

func TestStream_RoundTrip(t *testing.T) {
	zstdCodec, err := vsync.NewZstdCodec()
	require.NoError(t, err)

	for _, codec := range []vsync.FrameCodec{vsync.NewPassthroughCodec(), zstdCodec} {
		var buf bytes.Buffer
		st := NewStreamTarget(&buf, codec)
		want := NewMirror()
		target := Fanout{st, want}

		base := make([]int32, 256)
		for i := range base {
			base[i] = -1
		}
		target.FullUpload(base)
		target.RangeUpload(10, 3, []int32{7, 8, 9})
		target.RangeUpload(255, 1, []int32{42})
		require.NoError(t, st.Flush())
		assert.Equal(t, 3, st.Frames())
		assert.Equal(t, int64(buf.Len()), st.Bytes())

		got := NewMirror()
		stats, err := ReadStream(&buf, codec, got)
		require.NoError(t, err, codec.Name())
		assert.Equal(t, 3, stats.Frames)
		assert.Equal(t, 1, stats.FullFrames)
		assert.Equal(t, 2, stats.RangeFrames)
		assert.Equal(t, 260, stats.Values)
		assert.True(t, got.Equal(want.Cells()), "воспроизведённый поток должен совпасть с копией (%s)", codec.Name())
	}
}

func TestStream_TruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTarget(&buf, nil)
	st.FullUpload([]int32{1, 2, 3})
	require.NoError(t, st.Flush())

	data := buf.Bytes()[:buf.Len()-2]
	_, err := ReadStream(bytes.NewReader(data), nil, NewMirror())
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStream_RemembersFirstError(t *testing.T) {
	st := NewStreamTarget(failingWriter{}, nil)
	st.FullUpload(make([]int32, 8))
	err := st.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	st.RangeUpload(0, 1, []int32{1})
	assert.Equal(t, err, st.Err(), "ошибка должна сохраняться")
}
