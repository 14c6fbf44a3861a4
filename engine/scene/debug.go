package scene

import (
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/math"
)

// Slider bounds for the ground projection panel.
const (
	HeightMin  float32 = 10
	HeightMax  float32 = 50
	HeightStep float32 = 5
	RadiusMin  float32 = 10
	RadiusMax  float32 = 1000
	ScaleMin   float32 = 100
	ScaleMax   float32 = 500
)

// Debug exposes the ground projection tunables with the same bounds as the
// viewer's slider panel.
type Debug struct {
	env      *GroundProjectedEnv
	onChange func(*GroundProjectedEnv)
}

func NewDebug(env *GroundProjectedEnv) *Debug {
	return &Debug{env: env}
}

// OnChange registers fn to run after every applied change.
func (d *Debug) OnChange(fn func(*GroundProjectedEnv)) {
	d.onChange = fn
}

// SetHeight snaps h to steps of 5 inside [10, 50].
func (d *Debug) SetHeight(h float32) float32 {
	d.env.Height = math.Clamp(math.Snap(h, HeightMin, HeightStep), HeightMin, HeightMax)
	d.changed("height", d.env.Height)
	return d.env.Height
}

func (d *Debug) SetRadius(r float32) float32 {
	d.env.Radius = math.Clamp(r, RadiusMin, RadiusMax)
	d.changed("radius", d.env.Radius)
	return d.env.Radius
}

func (d *Debug) SetScale(s float32) float32 {
	d.env.Scale = math.Clamp(s, ScaleMin, ScaleMax)
	d.changed("scale", d.env.Scale)
	return d.env.Scale
}

func (d *Debug) changed(field string, v float32) {
	core.LogDebug("GroundProjectedEnv %s = %.2f", field, v)
	if d.onChange != nil {
		d.onChange(d.env)
	}
}
