package scene

import (
	"errors"
	m "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/showroom/engine/math"
	"github.com/spaghettifunk/showroom/engine/resources"
)

func testItems() map[string]*resources.Resource {
	doc := &gltf.Document{
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Nodes: []*gltf.Node{
			{Name: "body", Mesh: gltf.Index(0), Children: []int{2, 1}},
			{Name: "wheel", Mesh: gltf.Index(1)},
			{Name: "pivot"},
			{Name: "orphan", Mesh: gltf.Index(0)},
		},
		Meshes: []*gltf.Mesh{
			{Primitives: []*gltf.Primitive{{Material: gltf.Index(0)}}},
			{Primitives: []*gltf.Primitive{{}}},
		},
		Materials: []*gltf.Material{{Name: "paint"}},
	}
	env := resources.NewTexture("blouberg_sunrise")
	return map[string]*resources.Resource{
		"blouberg_sunrise":  {Name: "blouberg_sunrise", Data: env},
		"PorschePanameras4": {Name: "PorschePanameras4", Data: &resources.Model{Document: doc}},
	}
}

func TestCompose(t *testing.T) {
	s, err := Compose(testItems(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	if s.Environment == nil || s.Ground.Texture != s.Environment {
		t.Fatal("environment not shared with ground projection")
	}
	if s.Ground.Height != 10 || s.Ground.Radius != 50 || s.Ground.Scale != 100 {
		t.Fatalf("ground = %+v", s.Ground)
	}
	if s.Plane.Width != 100 || s.Plane.Opacity != 0.3 || s.Plane.RenderOrder != 2 || !s.Plane.ReceiveShadow {
		t.Fatalf("plane = %+v", s.Plane)
	}
	if s.Plane.Rotation.X != -math.K_HALF_PI {
		t.Fatalf("plane rotation = %+v", s.Plane.Rotation)
	}
	l := s.Light
	if l.Color != 0xeeeeee || l.Intensity != 0 || !l.CastShadow || l.ShadowMapSize != [2]int{512, 512} || l.ShadowNear != 0.5 || l.ShadowFar != 500 {
		t.Fatalf("light = %+v", l)
	}
	if s.Model.Position != math.NewVec3(0, 0, -0.5) {
		t.Fatalf("model position = %+v", s.Model.Position)
	}
	if s.Camera.FOV != 45 || s.Camera.Position != math.NewVec3(0, 2, 5) {
		t.Fatalf("camera = %+v", s.Camera)
	}
	if want := float32(1280) / 720; s.Camera.Aspect != want {
		t.Fatalf("aspect = %v, want %v", s.Camera.Aspect, want)
	}
	if s.Controls.MaxPolarAngle != math.DegToRad(80) || s.Controls.MinDistance != 2 || s.Controls.MaxDistance != 40 || s.Controls.EnablePan {
		t.Fatalf("controls = %+v", s.Controls)
	}
	r := s.Renderer
	if r.ToneMapping != ToneMappingACESFilmic || r.Exposure != 1.2 || r.ShadowType != ShadowMapPCFSoft || r.OutputEncoding != resources.TextureEncodingSRGB {
		t.Fatalf("renderer = %+v", r)
	}
}

func TestComposeTraversesSceneNodes(t *testing.T) {
	s, err := Compose(testItems(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, n := range s.Model.Nodes {
		if !n.CastShadow || !n.ReceiveShadow {
			t.Fatalf("node %q without shadows", n.Name)
		}
		names = append(names, n.Name)
	}
	if len(names) != 2 || names[0] != "body" || names[1] != "wheel" {
		t.Fatalf("mesh nodes = %v", names)
	}
	if mat := s.Model.Materials["body"]; mat == nil || mat.Name != "paint" {
		t.Fatalf("materials = %v", s.Model.Materials)
	}
	if _, ok := s.Model.Materials["wheel"]; ok {
		t.Fatal("primitive without material recorded")
	}
}

func TestComposeErrors(t *testing.T) {
	items := testItems()
	delete(items, "PorschePanameras4")
	if _, err := Compose(items, DefaultParams()); !errors.Is(err, ErrMissingItem) {
		t.Fatalf("err = %v, want ErrMissingItem", err)
	}

	items = testItems()
	items["blouberg_sunrise"].Data = &resources.Model{}
	if _, err := Compose(items, DefaultParams()); !errors.Is(err, ErrItemType) {
		t.Fatalf("err = %v, want ErrItemType", err)
	}

	p := DefaultParams()
	p.Height = 0
	if _, err := Compose(testItems(), p); !errors.Is(err, ErrViewport) {
		t.Fatalf("err = %v, want ErrViewport", err)
	}
}

func TestOrbitControlsUpdate(t *testing.T) {
	s, err := Compose(testItems(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	s.Controls.Update()
	if d := s.Camera.Position.Distance(math.NewVec3(0, 2, 5)); d > 1e-4 {
		t.Fatalf("start position moved: %+v", s.Camera.Position)
	}

	s.Camera.Position = math.NewVec3(0, 0.5, 0.5)
	s.Controls.Update()
	if d := s.Camera.Position.Length(); float32(m.Abs(float64(d-2))) > 1e-4 {
		t.Fatalf("min distance not applied: %v", d)
	}

	s.Camera.Position = math.NewVec3(0, 100, 0.001)
	s.Controls.Update()
	if d := s.Camera.Position.Length(); float32(m.Abs(float64(d-40))) > 1e-3 {
		t.Fatalf("max distance not applied: %v", d)
	}

	s.Camera.Position = math.NewVec3(0, -5, 1)
	s.Controls.Update()
	if a := s.Camera.Position.PolarAngle(); a > math.DegToRad(80)+1e-4 {
		t.Fatalf("polar angle %v above limit", math.RadToDeg(a))
	}

	s.Controls.Pan(math.NewVec3(1, 0, 0))
	if s.Camera.Target != math.NewVec3Zero() {
		t.Fatal("pan moved target while disabled")
	}
}

func TestDebugClamps(t *testing.T) {
	env := &GroundProjectedEnv{Height: 10, Radius: 50, Scale: 100}
	d := NewDebug(env)
	var calls int
	d.OnChange(func(*GroundProjectedEnv) { calls++ })

	tests := []struct {
		name string
		set  func(float32) float32
		in   float32
		want float32
	}{
		{"height snaps", d.SetHeight, 23, 25},
		{"height low", d.SetHeight, 2, 10},
		{"height high", d.SetHeight, 80, 50},
		{"radius in range", d.SetRadius, 420, 420},
		{"radius low", d.SetRadius, 1, 10},
		{"radius high", d.SetRadius, 5000, 1000},
		{"scale low", d.SetScale, 0, 100},
		{"scale high", d.SetScale, 900, 500},
	}
	for _, tc := range tests {
		if got := tc.set(tc.in); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if env.Height != 50 || env.Radius != 1000 || env.Scale != 500 {
		t.Fatalf("env = %+v", env)
	}
	if calls != len(tests) {
		t.Fatalf("OnChange called %d times", calls)
	}
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	body := "[scene]\nground_height = 20\nwidth = 800\nheight = 600\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.GroundHeight != 20 || p.GroundRadius != 50 || p.Environment != "blouberg_sunrise" {
		t.Fatalf("params = %+v", p)
	}
	if p.Aspect() != float32(800)/600 {
		t.Fatalf("aspect = %v", p.Aspect())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("scene:\n  width: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadParams(bad); !errors.Is(err, ErrViewport) {
		t.Fatalf("err = %v, want ErrViewport", err)
	}
}
