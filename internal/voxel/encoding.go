// Package voxel хранит плотный массив вокселей мира и кодирование их значений.
//
// Значение вокселя хранится в int32. Неотрицательное значение означает твёрдый воксель,
// младшие 24 бита содержат цвет R<<16 | G<<8 | B. Отрицательное значение означает
// пустой воксель: -1 значит, что расстояние ещё не вычислено, а любое другое
// отрицательное значение содержит биты float32, равного -d, где d — приближённое
// расстояние до ближайшего твёрдого вокселя.
package voxel

import "math"

// Unknown обозначает пустой воксель без вычисленного расстояния.
const Unknown int32 = -1

// ColorMask выделяет 24 бита упакованного цвета.
const ColorMask int32 = 0xFFFFFF

// MinDistance задаёт наименьшее кодируемое расстояние. Касающийся сосед
// декодируется именно в него, а не в -0.
const MinDistance float32 = math.SmallestNonzeroFloat32

// IsSolid сообщает, является ли значение твёрдым вокселем
func IsSolid(v int32) bool {
	return v >= 0
}

// IsEmpty сообщает, является ли значение пустым вокселем
func IsEmpty(v int32) bool {
	return v < 0
}

// PackRGB упаковывает каналы в цвет; каналы ограничиваются диапазоном [0,255].
func PackRGB(r, g, b int) int32 {
	return int32(clampChannel(r)<<16 | clampChannel(g)<<8 | clampChannel(b))
}

// UnpackRGB возвращает каналы цвета твёрдого вокселя
func UnpackRGB(v int32) (r, g, b uint8) {
	c := v & ColorMask
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func clampChannel(c int) int {
	if c < 0 {
		return 0
	}
	if c > 255 {
		return 255
	}
	return c
}

// EncodeDistance кодирует расстояние d в значение пустого вокселя.
// d ограничивается снизу MinDistance, поэтому результат всегда отрицателен
// и никогда не совпадает с Unknown.
func EncodeDistance(d float32) int32 {
	if !(d >= MinDistance) { // NaN тоже сюда
		d = MinDistance
	}
	if math.IsInf(float64(d), 1) {
		d = math.MaxFloat32
	}
	return int32(math.Float32bits(-d))
}

// DecodeDistance возвращает расстояние пустого вокселя.
// ok == false для твёрдых вокселей и для Unknown.
func DecodeDistance(v int32) (d float32, ok bool) {
	if v >= 0 || v == Unknown {
		return 0, false
	}
	return -math.Float32frombits(uint32(v)), true
}
