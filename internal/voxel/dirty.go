package voxel

// DirtySet хранит множество линейных индексов, ожидающих пересчёта расстояний.
// Дубликаты отбрасываются, порядок первого добавления сохраняется.
// Не потокобезопасен: один производитель и один потребитель за тик.
type DirtySet struct {
	seen  map[int]struct{}
	order []int
}

// NewDirtySet создаёт пустое множество
func NewDirtySet() *DirtySet {
	return &DirtySet{seen: make(map[int]struct{})}
}

// Add добавляет индекс; возвращает false, если он уже был в множестве
func (d *DirtySet) Add(idx int) bool {
	if _, ok := d.seen[idx]; ok {
		return false
	}
	d.seen[idx] = struct{}{}
	d.order = append(d.order, idx)
	return true
}

// Contains проверяет наличие индекса
func (d *DirtySet) Contains(idx int) bool {
	_, ok := d.seen[idx]
	return ok
}

// Len возвращает количество индексов
func (d *DirtySet) Len() int {
	return len(d.order)
}

// Drain возвращает накопленные индексы и очищает множество
func (d *DirtySet) Drain() []int {
	out := d.order
	d.order = nil
	if len(out) > 0 {
		d.seen = make(map[int]struct{}, len(out))
	}
	return out
}

// Reset очищает множество без возврата содержимого
func (d *DirtySet) Reset() {
	d.Drain()
}
