package upload

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/annel0/voxelfield/internal/logging"
	vsync "github.com/annel0/voxelfield/internal/sync"
)

// maxFrameBytes ограничивает размер кадра при чтении повреждённого потока
const maxFrameBytes = 1 << 30

// StreamTarget пишет загрузки в поток кадрами: [len u32][payload], где payload
// закодирован FrameCodec. Первая ошибка записи запоминается, дальнейшие загрузки пропускаются.
type StreamTarget struct {
	w      *bufio.Writer
	codec  vsync.FrameCodec
	err    error
	frames int
	bytes  int64
}

// NewStreamTarget создаёт получателя, пишущего в w
func NewStreamTarget(w io.Writer, codec vsync.FrameCodec) *StreamTarget {
	if codec == nil {
		codec = vsync.NewPassthroughCodec()
	}
	return &StreamTarget{w: bufio.NewWriter(w), codec: codec}
}

func (s *StreamTarget) FullUpload(buf []int32) {
	s.write(vsync.Frame{Kind: vsync.FrameFull, Values: buf})
}

func (s *StreamTarget) RangeUpload(offset, length int, data []int32) {
	if len(data) > length {
		data = data[:length]
	}
	s.write(vsync.Frame{Kind: vsync.FrameRange, Offset: offset, Values: data})
}

func (s *StreamTarget) write(f vsync.Frame) {
	if s.err != nil {
		return
	}
	payload, err := s.codec.Encode(f)
	if err != nil {
		s.fail(fmt.Errorf("encode %s frame: %w", f.Kind, err))
		return
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := s.w.Write(hdr[:]); err != nil {
		s.fail(fmt.Errorf("write frame header: %w", err))
		return
	}
	if _, err := s.w.Write(payload); err != nil {
		s.fail(fmt.Errorf("write frame: %w", err))
		return
	}
	s.frames++
	s.bytes += int64(len(hdr) + len(payload))
}

func (s *StreamTarget) fail(err error) {
	s.err = err
	logging.GetSyncLogger().Error("❌ Поток загрузок остановлен: %v", err)
}

// Flush сбрасывает буфер в поток
func (s *StreamTarget) Flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		s.fail(fmt.Errorf("flush stream: %w", err))
	}
	return s.err
}

// Err возвращает первую ошибку записи
func (s *StreamTarget) Err() error { return s.err }

// Frames возвращает число записанных кадров
func (s *StreamTarget) Frames() int { return s.frames }

// Bytes возвращает число записанных байт
func (s *StreamTarget) Bytes() int64 { return s.bytes }

// StreamStats содержит сводку по прочитанному потоку
type StreamStats struct {
	Frames      int
	FullFrames  int
	RangeFrames int
	Values      int
	Bytes       int64
}

// ReadStream читает кадры из r и применяет их к target до конца потока.
// Обрыв на границе кадра считается нормальным завершением.
func ReadStream(r io.Reader, codec vsync.FrameCodec, target Target) (StreamStats, error) {
	if codec == nil {
		codec = vsync.NewPassthroughCodec()
	}
	br := bufio.NewReader(r)
	var stats StreamStats
	var hdr [4]byte
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("read frame header %d: %w", stats.Frames, err)
		}
		n := binary.LittleEndian.Uint32(hdr[:])
		if n > maxFrameBytes {
			return stats, fmt.Errorf("frame %d: %w: %d bytes", stats.Frames, vsync.ErrCorruptFrame, n)
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(br, payload); err != nil {
			return stats, fmt.Errorf("read frame %d: %w", stats.Frames, err)
		}
		f, err := codec.Decode(payload)
		if err != nil {
			return stats, fmt.Errorf("decode frame %d: %w", stats.Frames, err)
		}

		switch f.Kind {
		case vsync.FrameFull:
			target.FullUpload(f.Values)
			stats.FullFrames++
		case vsync.FrameRange:
			target.RangeUpload(f.Offset, len(f.Values), f.Values)
			stats.RangeFrames++
		}
		stats.Frames++
		stats.Values += len(f.Values)
		stats.Bytes += int64(len(hdr)) + int64(n)
	}
}
