package testbed

import (
	"sync"
	"time"

	"github.com/spaghettifunk/showroom/engine"
	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/config"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
	"github.com/spaghettifunk/showroom/engine/scene"
)

// Viewer is the car showroom game: it composes the scene once the assets are
// ready and keeps the camera and video textures moving.
type Viewer struct {
	*engine.Game
}

type viewerState struct {
	mu        sync.Mutex
	params    scene.Params
	scene     *scene.Scene
	debug     *scene.Debug
	players   map[string]*resources.Player
	videoTime map[string]time.Duration
	elapsed   time.Duration
}

func NewViewer(cfg *config.Config, params scene.Params) *Viewer {
	v := &Viewer{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartWidth:  params.Width,
				StartHeight: params.Height,
				Name:        "Showroom",
				Config:      cfg,
			},
			State: &viewerState{
				params:    params,
				players:   make(map[string]*resources.Player),
				videoTime: make(map[string]time.Duration),
			},
		},
	}

	v.FnBoot = v.Boot
	v.FnInitialize = v.Initialize
	v.FnUpdate = v.Update
	v.FnReload = v.Reload
	v.FnProgress = v.Progress
	v.FnOnResize = v.OnResize
	v.FnShutdown = v.Shutdown

	return v
}

func (v *Viewer) state() *viewerState {
	return v.State.(*viewerState)
}

func (v *Viewer) Boot() error {
	core.LogInfo("booting viewer...")
	return nil
}

func (v *Viewer) Progress(p assets.Progress) {
	core.LogDebug("loading %d/%d (%s)", p.Loaded, p.Total, p.Name)
}

func (v *Viewer) Initialize(items map[string]*resources.Resource) error {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.compose(items)
}

// Reload recomposes the scene from fresh items, keeping the panel values.
func (v *Viewer) Reload(items map[string]*resources.Resource) error {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.scene != nil {
		st.params.GroundHeight = st.scene.Ground.Height
		st.params.GroundRadius = st.scene.Ground.Radius
		st.params.GroundScale = st.scene.Ground.Scale
	}
	for _, p := range st.players {
		p.Pause()
	}
	return st.compose(items)
}

func (st *viewerState) compose(items map[string]*resources.Resource) error {
	s, err := scene.Compose(items, st.params)
	if err != nil {
		return err
	}
	st.scene = s
	st.debug = scene.NewDebug(s.Ground)

	st.players = make(map[string]*resources.Player)
	st.videoTime = make(map[string]time.Duration)
	for name, item := range items {
		if vt, ok := item.Data.(*resources.VideoTexture); ok && vt.Player != nil {
			st.players[name] = vt.Player
		}
	}
	return nil
}

func (v *Viewer) Update(deltaTime time.Duration) error {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()

	st.elapsed += deltaTime
	if st.scene != nil {
		st.scene.Controls.Update()
	}
	for name, p := range st.players {
		st.videoTime[name] = p.CurrentTime()
	}
	return nil
}

func (v *Viewer) OnResize(width, height int) error {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()

	st.params.Width, st.params.Height = width, height
	if st.scene == nil {
		return nil
	}
	return st.scene.Resize(width, height)
}

func (v *Viewer) Shutdown() error {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, p := range st.players {
		p.Pause()
	}
	core.LogInfo("viewer ran for %s", st.elapsed.Round(time.Millisecond))
	return nil
}

// Scene returns the composed scene, nil before Initialize.
func (v *Viewer) Scene() *scene.Scene {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.scene
}

func (v *Viewer) Debug() *scene.Debug {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.debug
}

// VideoTime returns the playback position sampled by the last Update.
func (v *Viewer) VideoTime(name string) (time.Duration, bool) {
	st := v.state()
	st.mu.Lock()
	defer st.mu.Unlock()
	d, ok := st.videoTime[name]
	return d, ok
}
