package sdf

import "github.com/annel0/voxelfield/internal/voxel"

// solidReader отвечает, твёрд ли воксель (вне границ false).
type solidReader interface {
	solidAt(x, y, z int) bool
}

// storeReader читает знак значения прямо из хранилища (однопоточный ремонт).
type storeReader struct {
	store *voxel.Store
}

func (r storeReader) solidAt(x, y, z int) bool {
	return r.store.Get(x, y, z) >= 0
}

// solidMask хранит битовый снимок твёрдости, сделанный до старта воркеров.
// Воркеры читают только его, а пишут только в свой срез хранилища.
type solidMask struct {
	width, height int
	bits          []uint64
}

func newSolidMask(store *voxel.Store) *solidMask {
	cells := store.Cells()
	m := &solidMask{
		width:  store.Width(),
		height: store.Height(),
		bits:   make([]uint64, (len(cells)+63)/64),
	}
	for i, v := range cells {
		if v >= 0 {
			m.bits[i>>6] |= 1 << (uint(i) & 63)
		}
	}
	return m
}

func (m *solidMask) solidAt(x, y, z int) bool {
	if x < 0 || y < 0 || z < 0 || x >= m.width || y >= m.height || z >= m.width {
		return false
	}
	i := x + m.width*y + m.width*m.height*z
	return m.bits[i>>6]&(1<<(uint(i)&63)) != 0
}
