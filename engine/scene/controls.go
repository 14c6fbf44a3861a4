package scene

import (
	m "math"

	"github.com/spaghettifunk/showroom/engine/math"
)

// OrbitControls keeps the camera orbiting its target within distance and
// polar angle limits.
type OrbitControls struct {
	camera        *Camera
	MaxPolarAngle float32
	MinDistance   float32
	MaxDistance   float32
	EnablePan     bool
}

func NewOrbitControls(camera *Camera) *OrbitControls {
	return &OrbitControls{
		camera:        camera,
		MaxPolarAngle: math.DegToRad(80),
		MinDistance:   2,
		MaxDistance:   40,
		EnablePan:     false,
	}
}

// Pan moves the target and camera together. It is a no-op while panning is disabled.
func (c *OrbitControls) Pan(offset math.Vec3) {
	if !c.EnablePan {
		return
	}
	c.camera.Target = c.camera.Target.Add(offset)
	c.camera.Position = c.camera.Position.Add(offset)
}

// Update clamps the camera position against the limits, keeping its azimuth.
func (c *OrbitControls) Update() {
	offset := c.camera.Position.Sub(c.camera.Target)
	radius := math.Clamp(c.camera.Position.Distance(c.camera.Target), c.MinDistance, c.MaxDistance)
	polar := math.Clamp(offset.PolarAngle(), 0, c.MaxPolarAngle)
	azimuth := float32(m.Atan2(float64(offset.X), float64(offset.Z)))

	sinPolar := float32(m.Sin(float64(polar)))
	offset = math.NewVec3(
		radius*sinPolar*float32(m.Sin(float64(azimuth))),
		radius*float32(m.Cos(float64(polar))),
		radius*sinPolar*float32(m.Cos(float64(azimuth))),
	)
	c.camera.Position = c.camera.Target.Add(offset)
}
