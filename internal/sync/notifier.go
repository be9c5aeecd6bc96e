// Package sync превращает разрозненные изменённые воксели в минимальный набор
// непрерывных диапазонов для загрузки рендереру и кодирует эти диапазоны в кадры.
package sync

import (
	"sort"

	"github.com/annel0/voxelfield/internal/voxel"
)

// Span задаёт непрерывный диапазон линейных индексов [Start, Start+Length).
type Span struct {
	Start  int
	Length int
}

// End возвращает индекс сразу за диапазоном
func (s Span) End() int { return s.Start + s.Length }

// Indexer переводит координаты в линейный индекс
type Indexer interface {
	Index(x, y, z int) (int, bool)
}

// Notifier накапливает изменённые индексы за тик и выдаёт их диапазонами.
// Один производитель и один потребитель; блокировок нет.
type Notifier struct {
	indexer Indexer
	pending *voxel.DirtySet
}

// NewNotifier создаёт уведомитель поверх индексатора
func NewNotifier(indexer Indexer) *Notifier {
	return &Notifier{
		indexer: indexer,
		pending: voxel.NewDirtySet(),
	}
}

// Touch отмечает координату; вне границ ничего не делает
func (n *Notifier) Touch(x, y, z int) {
	if idx, ok := n.indexer.Index(x, y, z); ok {
		n.pending.Add(idx)
	}
}

// TouchIndex отмечает линейный индекс
func (n *Notifier) TouchIndex(idx int) {
	if idx < 0 {
		return
	}
	n.pending.Add(idx)
}

// Pending возвращает число отмеченных уникальных индексов
func (n *Notifier) Pending() int { return n.pending.Len() }

// Flush выдаёт диапазоны по накопленным индексам и очищает уведомитель.
func (n *Notifier) Flush() []Span {
	return Merge(n.pending.Drain())
}

// Merge сортирует индексы, удаляет повторы и склеивает соседние в диапазоны.
// Каждый индекс попадает ровно в один диапазон; диапазонов не больше, чем уникальных индексов.
func Merge(indices []int) []Span {
	if len(indices) == 0 {
		return nil
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	spans := make([]Span, 0, 4)
	cur := Span{Start: sorted[0], Length: 1}
	for _, idx := range sorted[1:] {
		switch {
		case idx < cur.End():
			// повтор
		case idx == cur.End():
			cur.Length++
		default:
			spans = append(spans, cur)
			cur = Span{Start: idx, Length: 1}
		}
	}
	return append(spans, cur)
}

// Covered возвращает суммарную длину диапазонов
func Covered(spans []Span) int {
	total := 0
	for _, s := range spans {
		total += s.Length
	}
	return total
}
