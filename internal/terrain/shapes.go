package terrain

import (
	"github.com/annel0/voxelfield/internal/vec"
	"github.com/annel0/voxelfield/internal/voxel"
)

// Mutator описывает узкий интерфейс мира, через который работает генерация и игровые действия
type Mutator interface {
	PlaceVoxel(x, y, z int, color int32)
	DestroyVoxel(x, y, z int)
	Bounds() vec.Vec3
}

// RGB задаёт цвет с каналами 0..255
type RGB struct {
	R, G, B int
}

var (
	TrunkColor = RGB{R: 128, G: 100, B: 15}
	BushColor  = RGB{R: 15, G: 128, B: 15}
)

// PlaceSphere заполняет шар x²+y²+z² < r² вокруг center; зелёный канал варьируется.
// Возвращает число поставленных вокселей.
func PlaceSphere(m Mutator, center vec.Vec3, radius int, color RGB) int {
	bounds := m.Bounds()
	placed := 0
	forSphere(center, radius, func(p, d vec.Vec3) {
		if !p.Within(bounds) {
			return
		}
		g := color.G - ((d.X+d.Y+d.Z)%3)*20
		m.PlaceVoxel(p.X, p.Y, p.Z, voxel.PackRGB(color.R, g, color.B))
		placed++
	})
	return placed
}

// RemoveSphere удаляет шар x²+y²+z² < r² вокруг center, обрезанный границами мира.
// Возвращает число затронутых координат.
func RemoveSphere(m Mutator, center vec.Vec3, radius int) int {
	bounds := m.Bounds()
	removed := 0
	forSphere(center, radius, func(p, _ vec.Vec3) {
		if !p.Within(bounds) {
			return
		}
		m.DestroyVoxel(p.X, p.Y, p.Z)
		removed++
	})
	return removed
}

// PlaceTrunk ставит ствол высотой length с основанием в base.
// Сечение имеет форму квадрата с полустороной length/4, оттенок коричневого чередуется.
func PlaceTrunk(m Mutator, base vec.Vec3, length int, color RGB) int {
	bounds := m.Bounds()
	half := length >> 2
	placed := 0
	for dz := -half; dz < half; dz++ {
		for dy := 0; dy < length; dy++ {
			for dx := -half; dx < half; dx++ {
				p := base.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				if !p.Within(bounds) {
					continue
				}
				shade := ((dx + dz) % 2) * 10
				m.PlaceVoxel(p.X, p.Y, p.Z, voxel.PackRGB(color.R-shade, color.G-shade, color.B))
				placed++
			}
		}
	}
	return placed
}

// forSphere обходит смещения d в [-r, r) с |d|² < r²; p = center + d.
func forSphere(center vec.Vec3, radius int, fn func(p, d vec.Vec3)) {
	r2 := radius * radius
	for dz := -radius; dz < radius; dz++ {
		for dy := -radius; dy < radius; dy++ {
			for dx := -radius; dx < radius; dx++ {
				if dx*dx+dy*dy+dz*dz >= r2 {
					continue
				}
				d := vec.Vec3{X: dx, Y: dy, Z: dz}
				fn(center.Add(d), d)
			}
		}
	}
}
