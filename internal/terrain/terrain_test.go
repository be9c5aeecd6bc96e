package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/voxel"
)

// storeMutator применяет изменения прямо к хранилищу
type storeMutator struct {
	store    *voxel.Store
	places   int
	destroys int
}

func newStoreMutator(w, h int) *storeMutator {
	return &storeMutator{store: voxel.NewStore(w, h)}
}

func (m *storeMutator) PlaceVoxel(x, y, z int, color int32) {
	m.places++
	m.store.SetSolid(x, y, z, color)
}

func (m *storeMutator) DestroyVoxel(x, y, z int) {
	m.destroys++
	m.store.Clear(x, y, z)
}

func (m *storeMutator) Bounds() vec.Vec3 { return m.store.Bounds() }

func TestGenerator_FlatLayers(t *testing.T) {
	m := newStoreMutator(20, 48)
	g := NewGenerator(1)
	g.Trees = false

	stats := g.Generate(m)
	assert.Equal(t, 20*20*(DefaultGrassLevel+1), stats.Placed)
	assert.Zero(t, stats.Trees)

	r, gr, b := voxel.UnpackRGB(m.store.Get(0, 0, 0))
	assert.Equal(t, [3]uint8{90, 90, 90}, [3]uint8{r, gr, b}, "низ — камень")

	r, gr, b = voxel.UnpackRGB(m.store.Get(1, DefaultStoneLevel+1, 0))
	assert.Equal(t, [3]uint8{120 + 5*((1+26)%3), 100 + 5*((1+26)%3), 0}, [3]uint8{r, gr, b}, "над камнем — земля")

	r, gr, b = voxel.UnpackRGB(m.store.Get(0, DefaultGrassLevel, 0))
	assert.Equal(t, [3]uint8{10, 130, 10}, [3]uint8{r, gr, b}, "сверху — трава")

	assert.Equal(t, voxel.Unknown, m.store.Get(0, DefaultGrassLevel+1, 0), "над травой воздух")
}

func TestGenerator_Trees(t *testing.T) {
	m := newStoreMutator(64, 64)
	g := NewGenerator(1)

	stats := g.Generate(m)
	// x ∈ {30}, z ∈ {25, 50} внутри отступа 10
	assert.Equal(t, 2, stats.Trees)

	// ствол над травой у дерева (30, 25): сдвиг 25%7 = 4
	assert.True(t, voxel.IsSolid(m.store.Get(30+1+4, DefaultGrassLevel+3, 25)))
	// центр кроны
	assert.True(t, voxel.IsSolid(m.store.Get(30+4, DefaultGrassLevel+bushLift, 25)))
	// в стороне от деревьев над землёй пусто
	assert.Equal(t, voxel.Unknown, m.store.Get(5, DefaultGrassLevel+5, 5))
}

func TestGenerator_HeightmapDeterministic(t *testing.T) {
	a, b := newStoreMutator(24, 64), newStoreMutator(24, 64)
	for _, m := range []*storeMutator{a, b} {
		g := NewGenerator(77)
		g.Trees = false
		g.Amplitude = 6
		g.NoiseScale = 0.1
		g.Generate(m)
	}
	assert.Equal(t, a.store.Checksum(), b.store.Checksum(), "один сид — один ландшафт")

	g := NewGenerator(77)
	g.Amplitude = 6
	for x := 0; x < 24; x++ {
		off := g.heightOffset(x, 3)
		assert.LessOrEqual(t, off, 6)
		assert.GreaterOrEqual(t, off, -6)
	}
}

func TestRemoveSphere(t *testing.T) {
	m := newStoreMutator(16, 16)
	for i := 0; i < m.store.Len(); i++ {
		m.store.Put(i, voxel.PackRGB(1, 1, 1))
	}

	center := vec.Vec3{X: 8, Y: 8, Z: 8}
	removed := RemoveSphere(m, center, 3)
	assert.Equal(t, removed, m.destroys)

	for i := 0; i < m.store.Len(); i++ {
		x, y, z := m.store.Coord(i)
		d := vec.Vec3{X: x - 8, Y: y - 8, Z: z - 8}
		inside := d.X >= -3 && d.X < 3 && d.Y >= -3 && d.Y < 3 && d.Z >= -3 && d.Z < 3 &&
			d.X*d.X+d.Y*d.Y+d.Z*d.Z < 9
		assert.Equal(t, inside, voxel.IsEmpty(m.store.At(i)), "воксель (%d,%d,%d)", x, y, z)
	}
}

func TestRemoveSphere_ClippedToBounds(t *testing.T) {
	m := newStoreMutator(4, 4)
	removed := RemoveSphere(m, vec.Vec3{X: 0, Y: 0, Z: 0}, 3)
	assert.Equal(t, m.destroys, removed)
	assert.Less(t, removed, 8*8*8)
	require.Greater(t, removed, 0)
}

func TestPlaceSphereAndTrunk(t *testing.T) {
	m := newStoreMutator(16, 16)
	n := PlaceSphere(m, vec.Vec3{X: 8, Y: 8, Z: 8}, 2, BushColor)
	assert.Equal(t, n, m.places)
	_, g, _ := voxel.UnpackRGB(m.store.Get(8, 8, 8))
	assert.Equal(t, uint8(BushColor.G), g)

	m = newStoreMutator(16, 16)
	n = PlaceTrunk(m, vec.Vec3{X: 8, Y: 0, Z: 8}, 6, TrunkColor)
	assert.Equal(t, 2*2*6, n, "сечение ствола 2x2")
	assert.True(t, voxel.IsSolid(m.store.Get(7, 5, 7)))
	assert.False(t, voxel.IsSolid(m.store.Get(9, 0, 8)))
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise(5)
	for i := 0; i < 100; i++ {
		v := n.At(float64(i)*0.37, float64(i)*0.11)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
