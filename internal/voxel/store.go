package voxel

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/annel0/voxelfield/internal/vec"
)

// Store владеет плоским массивом W×H×W вокселей.
// Индекс вокселя: x + W*y + W*H*z.
type Store struct {
	width  int
	height int
	cells  []int32
	dirty  *DirtySet
}

// NewStore создаёт хранилище, заполненное Unknown.
// Неположительные размеры дают пустое хранилище.
func NewStore(width, height int) *Store {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]int32, width*height*width)
	for i := range cells {
		cells[i] = Unknown
	}
	return &Store{
		width:  width,
		height: height,
		cells:  cells,
		dirty:  NewDirtySet(),
	}
}

// Width возвращает размер по X и Z
func (s *Store) Width() int { return s.width }

// Height возвращает размер по Y
func (s *Store) Height() int { return s.height }

// Len возвращает количество вокселей
func (s *Store) Len() int { return len(s.cells) }

// Bounds возвращает размеры мира как вектор (W, H, W)
func (s *Store) Bounds() vec.Vec3 {
	return vec.Vec3{X: s.width, Y: s.height, Z: s.width}
}

// Index переводит координаты в линейный индекс; ok == false вне границ.
func (s *Store) Index(x, y, z int) (int, bool) {
	if x < 0 || y < 0 || z < 0 || x >= s.width || y >= s.height || z >= s.width {
		return -1, false
	}
	return x + s.width*y + s.width*s.height*z, true
}

// Coord выполняет обратное к Index преобразование
func (s *Store) Coord(idx int) (x, y, z int) {
	plane := s.width * s.height
	z = idx / plane
	rem := idx - z*plane
	y = rem / s.width
	x = rem - y*s.width
	return x, y, z
}

// Get возвращает значение вокселя; вне границ возвращает Unknown.
func (s *Store) Get(x, y, z int) int32 {
	idx, ok := s.Index(x, y, z)
	if !ok {
		return Unknown
	}
	return s.cells[idx]
}

// At возвращает значение по линейному индексу (индекс должен быть валиден)
func (s *Store) At(idx int) int32 {
	return s.cells[idx]
}

// SetSolid записывает твёрдый воксель с цветом color&ColorMask и помечает его грязным.
// Вне границ ничего не делает.
func (s *Store) SetSolid(x, y, z int, color int32) {
	idx, ok := s.Index(x, y, z)
	if !ok {
		return
	}
	s.cells[idx] = color & ColorMask
	s.dirty.Add(idx)
}

// Clear делает воксель пустым (Unknown) и помечает его грязным. Вне границ ничего не делает.
func (s *Store) Clear(x, y, z int) {
	idx, ok := s.Index(x, y, z)
	if !ok {
		return
	}
	s.cells[idx] = Unknown
	s.dirty.Add(idx)
}

// Put пишет сырое значение по индексу без пометки грязным.
// Используется движком поля расстояний.
func (s *Store) Put(idx int, v int32) {
	s.cells[idx] = v
}

// Cells возвращает backing buffer для полной загрузки. Не копия.
func (s *Store) Cells() []int32 {
	return s.cells
}

// Dirty возвращает множество грязных индексов
func (s *Store) Dirty() *DirtySet {
	return s.dirty
}

// SolidCount считает твёрдые воксели полным проходом
func (s *Store) SolidCount() int {
	n := 0
	for _, v := range s.cells {
		if v >= 0 {
			n++
		}
	}
	return n
}

// SizeBytes возвращает размер буфера в байтах
func (s *Store) SizeBytes() uint64 {
	return uint64(len(s.cells)) * 4
}

// Checksum возвращает xxhash64 от содержимого буфера (little-endian)
func (s *Store) Checksum() uint64 {
	return ChecksumCells(s.cells)
}

// ChecksumCells считает xxhash64 от произвольного буфера вокселей
func ChecksumCells(cells []int32) uint64 {
	h := xxhash.New()
	var chunk [4096]byte
	n := 0
	for _, v := range cells {
		binary.LittleEndian.PutUint32(chunk[n:], uint32(v))
		n += 4
		if n == len(chunk) {
			_, _ = h.Write(chunk[:])
			n = 0
		}
	}
	if n > 0 {
		_, _ = h.Write(chunk[:n])
	}
	return h.Sum64()
}
