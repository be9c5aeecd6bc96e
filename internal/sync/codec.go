package sync

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// FrameKind определяет тип кадра загрузки
type FrameKind uint8

const (
	FrameFull  FrameKind = 1 // весь буфер
	FrameRange FrameKind = 2 // непрерывный поддиапазон
)

func (k FrameKind) String() string {
	switch k {
	case FrameFull:
		return "full"
	case FrameRange:
		return "range"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame описывает одну загрузку: весь буфер или диапазон с Offset.
type Frame struct {
	Kind   FrameKind
	Offset int
	Values []int32
}

// frameHeaderSize: kind(1) + offset(4) + count(4)
const frameHeaderSize = 9

var ErrCorruptFrame = errors.New("corrupt frame")

// FrameCodec кодирует/декодирует кадры загрузки.
type FrameCodec interface {
	Encode(f Frame) ([]byte, error)
	Decode(payload []byte) (Frame, error)
	Name() string
}

type passthroughCodec struct{}

// NewPassthroughCodec возвращает кодек без сжатия
func NewPassthroughCodec() FrameCodec { return passthroughCodec{} }

func (passthroughCodec) Name() string { return "passthrough" }

func (passthroughCodec) Encode(f Frame) ([]byte, error) {
	if f.Kind != FrameFull && f.Kind != FrameRange {
		return nil, fmt.Errorf("encode frame: unknown kind %d", f.Kind)
	}
	if f.Offset < 0 {
		return nil, fmt.Errorf("encode frame: negative offset %d", f.Offset)
	}
	// формат: [kind u8][offset u32][count u32][values i32...], little-endian
	buf := make([]byte, frameHeaderSize+4*len(f.Values))
	buf[0] = byte(f.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(f.Offset))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(f.Values)))
	for i, v := range f.Values {
		binary.LittleEndian.PutUint32(buf[frameHeaderSize+4*i:], uint32(v))
	}
	return buf, nil
}

func (passthroughCodec) Decode(payload []byte) (Frame, error) {
	if len(payload) < frameHeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes header", ErrCorruptFrame, len(payload))
	}
	kind := FrameKind(payload[0])
	if kind != FrameFull && kind != FrameRange {
		return Frame{}, fmt.Errorf("%w: unknown kind %d", ErrCorruptFrame, payload[0])
	}
	offset := binary.LittleEndian.Uint32(payload[1:5])
	count := int(binary.LittleEndian.Uint32(payload[5:9]))
	if len(payload)-frameHeaderSize != 4*count {
		return Frame{}, fmt.Errorf("%w: want %d values, have %d bytes", ErrCorruptFrame, count, len(payload)-frameHeaderSize)
	}

	values := make([]int32, count)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(payload[frameHeaderSize+4*i:]))
	}
	return Frame{Kind: kind, Offset: int(offset), Values: values}, nil
}

// zstdCodec сжимает сериализованный кадр через zstd.
// EncodeAll/DecodeAll безопасны для одновременного использования.
type zstdCodec struct {
	raw passthroughCodec
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCodec создаёт кодек со сжатием zstd
func NewZstdCodec() (FrameCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Name() string { return "zstd" }

func (c *zstdCodec) Encode(f Frame) ([]byte, error) {
	raw, err := c.raw.Encode(f)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func (c *zstdCodec) Decode(payload []byte) (Frame, error) {
	raw, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: zstd: %v", ErrCorruptFrame, err)
	}
	return c.raw.Decode(raw)
}

// NewCodec возвращает zstd-кодек при compress, иначе кодек без сжатия
func NewCodec(compress bool) (FrameCodec, error) {
	if compress {
		return NewZstdCodec()
	}
	return NewPassthroughCodec(), nil
}
