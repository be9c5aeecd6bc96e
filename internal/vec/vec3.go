package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// DistanceSq возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceSq(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Within проверяет, что вектор лежит в [0,bounds) по каждой оси
func (v Vec3) Within(bounds Vec3) bool {
	return v.X >= 0 && v.Y >= 0 && v.Z >= 0 &&
		v.X < bounds.X && v.Y < bounds.Y && v.Z < bounds.Z
}

// ToChunkCoords возвращает координаты чанка со стороной size (size > 0, v неотрицателен)
func (v Vec3) ToChunkCoords(size int) Vec3 {
	return Vec3{X: v.X / size, Y: v.Y / size, Z: v.Z / size}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale умножает вектор на скаляр
func (v Vec3Float) Scale(k float64) Vec3Float {
	return Vec3Float{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Floor округляет координаты вниз до целых
func (v Vec3Float) Floor() Vec3 {
	return Vec3{X: floorInt(v.X), Y: floorInt(v.Y), Z: floorInt(v.Z)}
}

func floorInt(f float64) int {
	i := int(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return i
}
