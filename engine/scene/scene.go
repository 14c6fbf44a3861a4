// Package scene composes the car showroom from loaded assets.
package scene

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/spaghettifunk/showroom/engine/resources"
)

var (
	ErrMissingItem = errors.New("scene item not loaded")
	ErrItemType    = errors.New("scene item has the wrong type")
	ErrViewport    = errors.New("viewport size must be positive")
)

type ToneMapping int

const (
	ToneMappingNone ToneMapping = iota
	ToneMappingACESFilmic
)

type ShadowMapType int

const (
	ShadowMapBasic ShadowMapType = iota
	ShadowMapPCF
	ShadowMapPCFSoft
)

/**
 * @brief A sphere projecting the environment map onto the ground.
 */
type GroundProjectedEnv struct {
	Texture *resources.Texture
	Height  float32
	Radius  float32
	/** @brief Uniform scale of the projection sphere. */
	Scale float32
}

/**
 * @brief An invisible plane that only renders received shadows.
 */
type ShadowPlane struct {
	Width         float32
	Height        float32
	Opacity       float32
	Rotation      math.Euler
	RenderOrder   int
	ReceiveShadow bool
}

type DirectionalLight struct {
	Color      math.Color
	Intensity  float32
	Position   math.Vec3
	CastShadow bool
	/** @brief Shadow map width and height in texels. */
	ShadowMapSize [2]int
	ShadowNear    float32
	ShadowFar     float32
}

/**
 * @brief Shadow flags applied to one glTF node.
 */
type NodeShadow struct {
	Node          int
	Name          string
	CastShadow    bool
	ReceiveShadow bool
}

/**
 * @brief The placed model with per-node shadow flags and the materials it uses.
 */
type ModelInstance struct {
	Name     string
	Model    *resources.Model
	Position math.Vec3
	Nodes    []NodeShadow
	// Materials maps node names to the material of their first primitive.
	Materials map[string]*gltf.Material
}

type Camera struct {
	FOV      float32
	Aspect   float32
	Near     float32
	Far      float32
	Position math.Vec3
	Target   math.Vec3
}

type RendererSettings struct {
	ToneMapping            ToneMapping
	Exposure               float32
	ShadowsEnabled         bool
	ShadowType             ShadowMapType
	PhysicallyCorrectLight bool
	OutputEncoding         resources.TextureEncoding
}

// Scene is everything the renderer needs to draw one frame of the showroom.
type Scene struct {
	Environment *resources.Texture
	Ground      *GroundProjectedEnv
	Plane       ShadowPlane
	Light       DirectionalLight
	Model       *ModelInstance
	Camera      Camera
	Controls    *OrbitControls
	Renderer    RendererSettings
}

// Compose builds the scene from resolved items. It expects readiness to have
// fired, so every named asset is present.
func Compose(items map[string]*resources.Resource, p Params) (*Scene, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrViewport, p.Width, p.Height)
	}

	env, err := lookup[*resources.Texture](items, p.Environment)
	if err != nil {
		return nil, err
	}
	model, err := lookup[*resources.Model](items, p.Model)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Environment: env,
		Ground: &GroundProjectedEnv{
			Texture: env,
			Height:  p.GroundHeight,
			Radius:  p.GroundRadius,
			Scale:   p.GroundScale,
		},
		Plane: ShadowPlane{
			Width:         100,
			Height:        100,
			Opacity:       0.3,
			Rotation:      math.Euler{X: -math.K_HALF_PI},
			RenderOrder:   2,
			ReceiveShadow: true,
		},
		Light: DirectionalLight{
			Color:         0xeeeeee,
			Intensity:     0,
			Position:      math.NewVec3(0, 20, 0),
			CastShadow:    true,
			ShadowMapSize: [2]int{512, 512},
			ShadowNear:    0.5,
			ShadowFar:     500,
		},
		Model: placeModel(p.Model, model, math.NewVec3(0, 0, -0.5)),
		Camera: Camera{
			FOV:      45,
			Aspect:   p.Aspect(),
			Near:     0.1,
			Far:      2000,
			Position: math.NewVec3(0, 2, 5),
			Target:   math.NewVec3Zero(),
		},
		Renderer: RendererSettings{
			ToneMapping:            ToneMappingACESFilmic,
			Exposure:               1.2,
			ShadowsEnabled:         true,
			ShadowType:             ShadowMapPCFSoft,
			PhysicallyCorrectLight: true,
			OutputEncoding:         resources.TextureEncodingSRGB,
		},
	}
	s.Controls = NewOrbitControls(&s.Camera)

	core.LogInfo("Scene composed: environment=%s model=%s nodes=%d materials=%d max polar=%.0fdeg",
		p.Environment, p.Model, len(s.Model.Nodes), len(s.Model.Materials), math.RadToDeg(s.Controls.MaxPolarAngle))
	return s, nil
}

// Resize updates the camera aspect for a new viewport.
func (s *Scene) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrViewport, width, height)
	}
	s.Camera.Aspect = float32(width) / float32(height)
	return nil
}

func lookup[T any](items map[string]*resources.Resource, name string) (T, error) {
	var zero T
	res, ok := items[name]
	if !ok || res == nil {
		return zero, fmt.Errorf("%w: %q", ErrMissingItem, name)
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %T", ErrItemType, name, res.Data, zero)
	}
	return v, nil
}

func placeModel(name string, model *resources.Model, position math.Vec3) *ModelInstance {
	inst := &ModelInstance{
		Name:      name,
		Model:     model,
		Position:  position,
		Materials: make(map[string]*gltf.Material),
	}
	doc := model.Document
	if doc == nil {
		return inst
	}

	visit := func(idx int) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return
		}
		node := doc.Nodes[idx]
		if node.Mesh == nil {
			return
		}
		inst.Nodes = append(inst.Nodes, NodeShadow{
			Node:          idx,
			Name:          node.Name,
			CastShadow:    true,
			ReceiveShadow: true,
		})
		if mat := primaryMaterial(doc, *node.Mesh); mat != nil {
			inst.Materials[node.Name] = mat
		}
	}
	for _, idx := range sceneNodes(doc, model.Scene) {
		visit(idx)
	}
	return inst
}

// sceneNodes walks the node hierarchy of one scene depth first. Documents
// without scenes fall back to every node in index order.
func sceneNodes(doc *gltf.Document, scene int) []int {
	if scene < 0 || scene >= len(doc.Scenes) {
		all := make([]int, len(doc.Nodes))
		for i := range all {
			all[i] = i
		}
		return all
	}

	var out []int
	seen := make(map[int]bool, len(doc.Nodes))
	var walk func(int)
	walk = func(idx int) {
		if seen[idx] || idx < 0 || idx >= len(doc.Nodes) {
			return
		}
		seen[idx] = true
		out = append(out, idx)
		for _, c := range doc.Nodes[idx].Children {
			walk(c)
		}
	}
	for _, root := range doc.Scenes[scene].Nodes {
		walk(root)
	}
	return out
}

func primaryMaterial(doc *gltf.Document, mesh int) *gltf.Material {
	if mesh < 0 || mesh >= len(doc.Meshes) {
		return nil
	}
	for _, prim := range doc.Meshes[mesh].Primitives {
		if prim.Material != nil && *prim.Material < len(doc.Materials) {
			return doc.Materials[*prim.Material]
		}
	}
	return nil
}
