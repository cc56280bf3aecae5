package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec4(t *testing.T, want, got mgl32.Vec4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "%v", got)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 1, 3))
	assert.Equal(t, 3, Clamp(5, 1, 3))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 1, 3))
}

func TestModel2D(t *testing.T) {
	model := Model2D(mgl32.Vec2{10, 20}, nil, nil)
	assert.Equal(t, mgl32.Translate3D(10, 20, 0), model)

	angle := float32(mgl32.DegToRad(90))
	scale := mgl32.Vec2{2, 3}
	model = Model2D(mgl32.Vec2{10, 20}, &angle, &scale)
	p := model.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	// (1,0) scaled to (2,0), rotated to (0,2), translated to (10,22).
	assertVec4(t, mgl32.Vec4{10, 22, 0, 1}, p)
}

func TestModel3D(t *testing.T) {
	rotation := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	scale := mgl32.Vec3{2, 2, 2}
	model := Model3D(mgl32.Vec3{0, 0, -5}, &rotation, &scale)
	p := model.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assertVec4(t, mgl32.Vec4{0, 0, -7, 1}, p)
}

func TestProjection2DMapsPixels(t *testing.T) {
	projection := Projection2D(800, 600, 1)
	p := projection.Mul4x1(mgl32.Vec4{400, 300, 0, 1})
	assertVec4(t, mgl32.Vec4{1, 1, 0, 1}, p)

	zoomed := Projection2D(800, 600, 2).Mul4x1(mgl32.Vec4{200, 150, 0, 1})
	assertVec4(t, mgl32.Vec4{1, 1, 0, 1}, zoomed)
}

func TestView3DInvertsCameraTransform(t *testing.T) {
	position := mgl32.Vec3{1, 2, 3}
	rotation := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1})
	world := Model3D(position, &rotation, nil)
	identity := View3D(position, rotation).Mul4(world)
	ident := mgl32.Ident4()
	for i := range ident {
		assert.InDelta(t, ident[i], identity[i], 1e-4, "%v", identity)
	}
}
