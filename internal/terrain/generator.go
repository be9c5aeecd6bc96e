// Package terrain генерирует стартовый ландшафт и реализует игровые действия
// над миром только через интерфейс Mutator.
package terrain

import (
	"math"

	"github.com/annel0/voxelfield/internal/logging"
	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/voxel"
)

// Уровни слоёв по умолчанию для мира высотой 96
const (
	DefaultStoneLevel = 25
	DefaultDirtLevel  = 33
	DefaultGrassLevel = 36
)

// Параметры сетки деревьев
const (
	treeSpacingX = 30
	treeSpacingZ = 25
	treeMargin   = 10
	trunkLength  = 6
	bushRadius   = 6
	bushLift     = 10
)

// Generator генерирует слоистый ландшафт с деревьями
type Generator struct {
	Seed       int64   // Сид для шума высот
	NoiseScale float64 // Масштаб шума высот
	Amplitude  float64 // Амплитуда смещения слоёв, 0 даёт ровные слои
	StoneLevel int
	DirtLevel  int
	GrassLevel int
	Trees      bool

	noise  *Noise
	logger *logging.Logger
}

// Stats содержит итог генерации
type Stats struct {
	Placed int
	Trees  int
}

// NewGenerator создаёт генератор с уровнями по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:       seed,
		NoiseScale: 0.02,
		StoneLevel: DefaultStoneLevel,
		DirtLevel:  DefaultDirtLevel,
		GrassLevel: DefaultGrassLevel,
		Trees:      true,
		noise:      NewNoise(seed),
		logger:     logging.GetTerrainLogger(),
	}
}

// heightOffset возвращает смещение слоёв в колонке (x, z)
func (g *Generator) heightOffset(x, z int) int {
	if g.Amplitude == 0 {
		return 0
	}
	if g.noise == nil {
		g.noise = NewNoise(g.Seed)
	}
	n := g.noise.At(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
	return int(math.Round((n - 0.5) * 2 * g.Amplitude))
}

// ColumnColor возвращает цвет вокселя на высоте y колонки со смещением offset; ok == false означает воздух.
func (g *Generator) ColumnColor(x, y, z, offset int) (int32, bool) {
	// варьируем оттенок соседних вокселей
	cv := 5 * ((x + y + z) % 3)
	switch {
	case y <= g.StoneLevel+offset:
		return voxel.PackRGB(90+cv, 90+cv, 90+cv), true
	case y <= g.DirtLevel+offset:
		return voxel.PackRGB(120+cv, 100+cv, 0), true
	case y <= g.GrassLevel+offset:
		return voxel.PackRGB(10, 130+cv, 10), true
	}
	return 0, false
}

// Generate заполняет мир слоями и сажает деревья
func (g *Generator) Generate(m Mutator) Stats {
	bounds := m.Bounds()
	var stats Stats

	for z := 0; z < bounds.Z; z++ {
		for x := 0; x < bounds.X; x++ {
			offset := g.heightOffset(x, z)
			for y := 0; y < bounds.Y; y++ {
				color, solid := g.ColumnColor(x, y, z, offset)
				if !solid {
					break
				}
				m.PlaceVoxel(x, y, z, color)
				stats.Placed++
			}
		}
	}

	if g.Trees {
		for z := treeMargin; z < bounds.Z-treeMargin; z++ {
			for x := treeMargin; x < bounds.X-treeMargin; x++ {
				if x%treeSpacingX != 0 || z%treeSpacingZ != 0 {
					continue
				}
				ground := g.GrassLevel + g.heightOffset(x, z)
				shift := z % 7
				stats.Placed += PlaceTrunk(m, vec.Vec3{X: x + 1 + shift, Y: ground, Z: z}, trunkLength, TrunkColor)
				stats.Placed += PlaceSphere(m, vec.Vec3{X: x + shift, Y: ground + bushLift, Z: z}, bushRadius, BushColor)
				stats.Trees++
			}
		}
	}

	if g.logger != nil {
		g.logger.Info("🌱 Ландшафт сгенерирован: %d вокселей, %d деревьев", stats.Placed, stats.Trees)
	}
	return stats
}
