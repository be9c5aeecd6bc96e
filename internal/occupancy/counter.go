// Package occupancy считает твёрдые воксели в каждом чанке для отсечения пустых чанков.
package occupancy

import (
	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/metrics"
	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/voxel"
)

const DefaultChunkSize = 16

// Counter хранит число твёрдых вокселей для каждого куба со стороной size.
// Не потокобезопасен, как и хранилище.
type Counter struct {
	size       int
	bounds     vec.Vec3 // размеры мира
	chunks     vec.Vec3 // число чанков по осям
	counts     []int32
	underflows int

	metrics *metrics.Recorder
	logger  *logging.Logger
}

// NewCounter создаёт счётчики для мира с размерами bounds
func NewCounter(bounds vec.Vec3, size int, m *metrics.Recorder) *Counter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := vec.Vec3{
		X: ceilDiv(bounds.X, size),
		Y: ceilDiv(bounds.Y, size),
		Z: ceilDiv(bounds.Z, size),
	}
	return &Counter{
		size:    size,
		bounds:  bounds,
		chunks:  chunks,
		counts:  make([]int32, chunks.X*chunks.Y*chunks.Z),
		metrics: m,
		logger:  logging.GetWorldLogger(),
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// ChunkSize возвращает сторону чанка
func (c *Counter) ChunkSize() int { return c.size }

// Chunks возвращает число чанков по осям
func (c *Counter) Chunks() vec.Vec3 { return c.chunks }

func (c *Counter) chunkIndex(cc vec.Vec3) (int, bool) {
	if !cc.Within(c.chunks) {
		return -1, false
	}
	return cc.X + c.chunks.X*cc.Y + c.chunks.X*c.chunks.Y*cc.Z, true
}

func (c *Counter) voxelChunk(x, y, z int) (int, bool) {
	p := vec.Vec3{X: x, Y: y, Z: z}
	if !p.Within(c.bounds) {
		return -1, false
	}
	return c.chunkIndex(p.ToChunkCoords(c.size))
}

// Increment учитывает переход пусто→твёрдо в вокселе (x,y,z)
func (c *Counter) Increment(x, y, z int) {
	if i, ok := c.voxelChunk(x, y, z); ok {
		c.counts[i]++
	}
}

// Decrement учитывает переход твёрдо→пусто. Уход ниже нуля означает
// рассогласование выше по стеку: счётчик остаётся нулём, событие логируется и считается.
func (c *Counter) Decrement(x, y, z int) {
	i, ok := c.voxelChunk(x, y, z)
	if !ok {
		return
	}
	if c.counts[i] == 0 {
		c.underflows++
		c.metrics.AddUnderflow()
		c.logger.Warn("⚠️ Счётчик чанка %v ушёл бы ниже нуля на вокселе (%d,%d,%d)",
			vec.Vec3{X: x, Y: y, Z: z}.ToChunkCoords(c.size), x, y, z)
		return
	}
	c.counts[i]--
}

// Apply учитывает смену состояния вокселя; без перехода ничего не меняется.
func (c *Counter) Apply(x, y, z int, wasSolid, isSolid bool) {
	switch {
	case !wasSolid && isSolid:
		c.Increment(x, y, z)
	case wasSolid && !isSolid:
		c.Decrement(x, y, z)
	}
}

// Count возвращает число твёрдых вокселей в чанке, вне сетки 0.
func (c *Counter) Count(cx, cy, cz int) int {
	i, ok := c.chunkIndex(vec.Vec3{X: cx, Y: cy, Z: cz})
	if !ok {
		return 0
	}
	return int(c.counts[i])
}

// Empty сообщает, что в чанке нет твёрдых вокселей
func (c *Counter) Empty(cx, cy, cz int) bool {
	return c.Count(cx, cy, cz) == 0
}

// EmptyChunks возвращает число пустых чанков
func (c *Counter) EmptyChunks() int {
	n := 0
	for _, v := range c.counts {
		if v == 0 {
			n++
		}
	}
	return n
}

// Underflows возвращает число отклонённых уменьшений
func (c *Counter) Underflows() int { return c.underflows }

// Rebuild пересчитывает все счётчики по хранилищу
func (c *Counter) Rebuild(store *voxel.Store) {
	for i := range c.counts {
		c.counts[i] = 0
	}
	for i, v := range store.Cells() {
		if v < 0 {
			continue
		}
		x, y, z := store.Coord(i)
		c.Increment(x, y, z)
	}
}
