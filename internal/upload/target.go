// Package upload описывает контракт синхронизации с рендерером и его реализации.
package upload

// Target принимает загрузки буфера вокселей.
// Ошибок контракт не предусматривает; при необходимости реализация хранит их сама.
type Target interface {
	// FullUpload заменяет весь буфер
	FullUpload(buf []int32)
	// RangeUpload заменяет length значений начиная с offset; len(data) == length
	RangeUpload(offset, length int, data []int32)
}

// Mirror хранит копию буфера рендерера в памяти. Используется для проверок и в демо.
type Mirror struct {
	cells  []int32
	full   int
	ranges int
	values int
}

// NewMirror создаёт пустую копию
func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) FullUpload(buf []int32) {
	m.cells = append(m.cells[:0], buf...)
	m.full++
	m.values += len(buf)
}

func (m *Mirror) RangeUpload(offset, length int, data []int32) {
	if offset < 0 || length < 0 || offset+length > len(m.cells) || len(data) < length {
		return
	}
	copy(m.cells[offset:offset+length], data[:length])
	m.ranges++
	m.values += length
}

// Cells возвращает текущее содержимое копии
func (m *Mirror) Cells() []int32 { return m.cells }

// FullUploads возвращает число полных загрузок
func (m *Mirror) FullUploads() int { return m.full }

// RangeUploads возвращает число загрузок диапазонов
func (m *Mirror) RangeUploads() int { return m.ranges }

// UploadedValues возвращает суммарное число переданных значений
func (m *Mirror) UploadedValues() int { return m.values }

// Equal сравнивает копию с буфером
func (m *Mirror) Equal(buf []int32) bool {
	if len(m.cells) != len(buf) {
		return false
	}
	for i, v := range buf {
		if m.cells[i] != v {
			return false
		}
	}
	return true
}

// Fanout рассылает каждую загрузку нескольким получателям по порядку.
type Fanout []Target

func (f Fanout) FullUpload(buf []int32) {
	for _, t := range f {
		t.FullUpload(buf)
	}
}

func (f Fanout) RangeUpload(offset, length int, data []int32) {
	for _, t := range f {
		t.RangeUpload(offset, length, data)
	}
}

// Discard игнорирует все загрузки
type Discard struct{}

func (Discard) FullUpload([]int32) {}
func (Discard) RangeUpload(int, int, []int32) {}
