package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Within(t *testing.T) {
	bounds := Vec3{X: 8, Y: 4, Z: 8}

	assert.True(t, Vec3{X: 0, Y: 0, Z: 0}.Within(bounds))
	assert.True(t, Vec3{X: 7, Y: 3, Z: 7}.Within(bounds))
	assert.False(t, Vec3{X: 8, Y: 0, Z: 0}.Within(bounds), "X на границе вне диапазона")
	assert.False(t, Vec3{X: 0, Y: -1, Z: 0}.Within(bounds), "отрицательная координата вне диапазона")
}

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}

	assert.Equal(t, Vec3{X: 5, Y: 8, Z: 6}, a.Add(b))
	assert.Equal(t, Vec3{X: -3, Y: -4, Z: 0}, a.Sub(b))
	assert.Equal(t, 25, a.DistanceSq(b))
	assert.True(t, a.Equals(Vec3{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, Vec3{X: 0, Y: 1, Z: 2}, Vec3{X: 7, Y: 9, Z: 16}.ToChunkCoords(8))
}

func TestVec3Float_Floor(t *testing.T) {
	v := Vec3Float{X: 1.5, Y: -0.5, Z: -2}
	assert.Equal(t, Vec3{X: 1, Y: -1, Z: -2}, v.Floor())
	assert.Equal(t, Vec3Float{X: 3, Y: -1, Z: -4}, v.Scale(2))
}
