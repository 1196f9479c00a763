// Package camera provides the fly camera used to explore the terrain.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Movement is the set of movement keys held during a frame.
type Movement uint8

const (
	MoveForward Movement = 1 << iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	// MoveFast multiplies the speed by FastMultiplier.
	MoveFast
)

// Has reports whether every flag in o is set.
func (m Movement) Has(o Movement) bool {
	return o != 0 && m&o == o
}

// MaxPitch bounds the pitch symmetrically, in degrees.
const MaxPitch = 89

// FlyCamera is a free camera steered by yaw and pitch. It remembers its
// planar (XZ) position from the previous Update so the clipmap can tell how
// far the viewer moved.
type FlyCamera struct {
	Position mgl32.Vec3
	Yaw      float32 // degrees, -90 looks down -Z
	Pitch    float32 // degrees, clamped to ±MaxPitch

	// Speed is in world units per second.
	Speed          float32
	FastMultiplier float32
	Sensitivity    float32 // degrees per mouse pixel

	FOV    float32 // vertical, degrees
	Near   float32
	Far    float32
	Aspect float32

	// MaxDelta caps the frame time fed to Update so a stall does not
	// teleport the camera.
	MaxDelta float32

	prevPlanar mgl32.Vec2
}

// NewFlyCamera creates a camera at pos looking down -Z.
func NewFlyCamera(pos mgl32.Vec3) *FlyCamera {
	return &FlyCamera{
		Position:       pos,
		Yaw:            -90,
		Speed:          40,
		FastMultiplier: 4,
		Sensitivity:    0.1,
		FOV:            60,
		Near:           0.1,
		Far:            4000,
		Aspect:         16.0 / 9.0,
		MaxDelta:       0.1,
		prevPlanar:     mgl32.Vec2{pos[0], pos[2]},
	}
}

// Front returns the unit view direction.
func (c *FlyCamera) Front() mgl32.Vec3 {
	yaw := mgl32.DegToRad(c.Yaw)
	pitch := mgl32.DegToRad(c.Pitch)
	return mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
}

// Right returns the unit vector to the right of the view direction, parallel
// to the ground.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// HandleMouse turns the camera by a mouse delta in pixels. Moving the mouse
// up looks up.
func (c *FlyCamera) HandleMouse(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	c.Pitch = math.Clamp(c.Pitch, -MaxPitch, MaxPitch)
	c.Yaw = math.FloorMod(c.Yaw+180, 360) - 180
}

// Update records the current planar position as the previous one, then
// moves the camera. Call it exactly once per frame.
func (c *FlyCamera) Update(m Movement, dt float32) {
	c.prevPlanar = c.PlanarPosition()
	dt = math.Clamp(dt, 0, c.MaxDelta)

	v := c.Speed * dt
	if m.Has(MoveFast) {
		v *= c.FastMultiplier
	}
	front, right, up := c.Front(), c.Right(), mgl32.Vec3{0, 1, 0}
	var dir mgl32.Vec3
	if m.Has(MoveForward) {
		dir = dir.Add(front)
	}
	if m.Has(MoveBackward) {
		dir = dir.Sub(front)
	}
	if m.Has(MoveRight) {
		dir = dir.Add(right)
	}
	if m.Has(MoveLeft) {
		dir = dir.Sub(right)
	}
	if m.Has(MoveUp) {
		dir = dir.Add(up)
	}
	if m.Has(MoveDown) {
		dir = dir.Sub(up)
	}
	if dir.Len() > 0 {
		c.Position = c.Position.Add(dir.Normalize().Mul(v))
	}
}

// Teleport moves the camera without leaving a trail: the previous planar
// position is reset as well.
func (c *FlyCamera) Teleport(pos mgl32.Vec3) {
	c.Position = pos
	c.prevPlanar = c.PlanarPosition()
}

// PlanarPosition returns the camera position projected onto the XZ plane.
func (c *FlyCamera) PlanarPosition() mgl32.Vec2 {
	return mgl32.Vec2{c.Position[0], c.Position[2]}
}

// PreviousPlanarPosition returns the planar position before the last Update.
func (c *FlyCamera) PreviousPlanarPosition() mgl32.Vec2 { return c.prevPlanar }

// ViewMatrix returns the world to view transform.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *FlyCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *FlyCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Frustum returns the world space view frustum.
func (c *FlyCamera) Frustum() math.Frustum {
	return math.ExtractFrustum(c.ViewProjection())
}
