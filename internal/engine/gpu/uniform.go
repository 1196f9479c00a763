package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform is a kernel parameter value. The set of implementations is closed:
// Int, Float, Bool, Vec2, Vec3 and Vec4.
type Uniform interface {
	isUniform()
}

type (
	Int   int32
	Float float32
	Bool  bool
	Vec2  mgl32.Vec2
	Vec3  mgl32.Vec3
	Vec4  mgl32.Vec4
)

func (Int) isUniform()   {}
func (Float) isUniform() {}
func (Bool) isUniform()  {}
func (Vec2) isUniform()  {}
func (Vec3) isUniform()  {}
func (Vec4) isUniform()  {}

// FormatUniform renders a uniform value for logs.
func FormatUniform(u Uniform) string {
	switch v := u.(type) {
	case Int:
		return fmt.Sprintf("%d", int32(v))
	case Float:
		return fmt.Sprintf("%g", float32(v))
	case Bool:
		return fmt.Sprintf("%t", bool(v))
	case Vec2:
		return fmt.Sprintf("(%g, %g)", v[0], v[1])
	case Vec3:
		return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
	case Vec4:
		return fmt.Sprintf("(%g, %g, %g, %g)", v[0], v[1], v[2], v[3])
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", u)
}
