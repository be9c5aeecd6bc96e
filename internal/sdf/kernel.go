package sdf

import (
	"math"
	"sort"
	"sync"
)

// Offset хранит смещение до соседней ячейки и консервативное расстояние до неё.
type Offset struct {
	DX, DY, DZ int
	Dist       float32 // расстояние от ближайшего угла исходной ячейки до ячейки-соседа
}

// Kernel хранит отсортированный по Dist список смещений внутри шара радиуса R.
// Только для чтения после построения; разделяется всеми вычислениями.
type Kernel struct {
	radius  int
	offsets []Offset
	maxDist float32
}

var kernelCache = struct {
	sync.Mutex
	byRadius map[int]*Kernel
}{byRadius: make(map[int]*Kernel)}

// KernelFor возвращает ядро для радиуса, строя его один раз на процесс.
// Радиус меньше 1 приводится к 1.
func KernelFor(radius int) *Kernel {
	if radius < 1 {
		radius = 1
	}
	kernelCache.Lock()
	defer kernelCache.Unlock()

	if k, ok := kernelCache.byRadius[radius]; ok {
		return k
	}
	k := buildKernel(radius)
	kernelCache.byRadius[radius] = k
	return k
}

func buildKernel(radius int) *Kernel {
	r2 := radius * radius
	offsets := make([]Offset, 0, 4*r2*radius+1)
	for dz := -radius; dz <= radius; dz++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				offsets = append(offsets, Offset{
					DX: dx, DY: dy, DZ: dz,
					Dist: conservativeDistance(dx, dy, dz),
				})
			}
		}
	}

	sort.Slice(offsets, func(i, j int) bool {
		a, b := offsets[i], offsets[j]
		if a.Dist != b.Dist {
			return a.Dist < b.Dist
		}
		la := a.DX*a.DX + a.DY*a.DY + a.DZ*a.DZ
		lb := b.DX*b.DX + b.DY*b.DY + b.DZ*b.DZ
		if la != lb {
			return la < lb
		}
		if a.DZ != b.DZ {
			return a.DZ < b.DZ
		}
		if a.DY != b.DY {
			return a.DY < b.DY
		}
		return a.DX < b.DX
	})

	var maxDist float32
	if n := len(offsets); n > 0 {
		maxDist = offsets[n-1].Dist
	}
	return &Kernel{radius: radius, offsets: offsets, maxDist: maxDist}
}

// conservativeDistance возвращает расстояние между ближайшими точками двух единичных ячеек.
// Никогда не превышает истинного расстояния от любой точки исходной ячейки.
func conservativeDistance(dx, dy, dz int) float32 {
	gx := gap(dx)
	gy := gap(dy)
	gz := gap(dz)
	return float32(math.Sqrt(float64(gx*gx + gy*gy + gz*gz)))
}

func gap(d int) int {
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return 0
	}
	return d - 1
}

// Radius возвращает радиус ядра
func (k *Kernel) Radius() int { return k.radius }

// Len возвращает количество смещений
func (k *Kernel) Len() int { return len(k.offsets) }

// Offsets возвращает смещения ядра. Срез нельзя изменять.
func (k *Kernel) Offsets() []Offset { return k.offsets }

// MaxDist возвращает наибольшее консервативное расстояние в ядре
func (k *Kernel) MaxDist() float32 { return k.maxDist }
