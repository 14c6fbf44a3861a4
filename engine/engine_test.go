package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/config"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
)

type stubLoader struct {
	mu   sync.Mutex
	fail error
}

func (l *stubLoader) Load(ctx context.Context, name, path string) (*resources.Resource, error) {
	l.mu.Lock()
	err := l.fail
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if name == "car" {
		return &resources.Resource{Name: name, FullPath: path, Data: &resources.Model{}}, nil
	}
	return &resources.Resource{Name: name, FullPath: path, Data: resources.NewTexture(name)}, nil
}

func (l *stubLoader) LoadCube(ctx context.Context, name string, faces []string) (*resources.Resource, error) {
	return l.Load(ctx, name, faces[0])
}

func stubLoaders(l *stubLoader) *assets.Loaders {
	return &assets.Loaders{Model: l, Texture: l, Cube: l, EXR: l, HDR: l, Video: l}
}

func writeManifest(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"env.hdr", "car.glb"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("v1"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	manifest := filepath.Join(dir, "manifest.toml")
	body := `
[[assets]]
name = "env"
type = "HDR"
path = "env.hdr"

[[assets]]
name = "car"
type = "glbModel"
path = "car.glb"
`
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, manifest
}

type recorder struct {
	mu      sync.Mutex
	items   map[string]*resources.Resource
	updates int
	reloads int
	size    [2]int
	ticked  chan struct{}
	rel     chan struct{}
}

func newTestGame(t *testing.T, cfg *config.Config, l *stubLoader) (*Game, *recorder) {
	rec := &recorder{ticked: make(chan struct{}, 1), rel: make(chan struct{}, 1)}
	g := &Game{
		ApplicationConfig: &ApplicationConfig{
			Name:        "test",
			StartWidth:  640,
			StartHeight: 480,
			Config:      cfg,
			Loaders:     stubLoaders(l),
		},
		FnInitialize: func(items map[string]*resources.Resource) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.items = items
			return nil
		},
		FnUpdate: func(time.Duration) error {
			rec.mu.Lock()
			rec.updates++
			n := rec.updates
			rec.mu.Unlock()
			if n >= 3 {
				select {
				case rec.ticked <- struct{}{}:
				default:
				}
			}
			return nil
		},
		FnReload: func(items map[string]*resources.Resource) error {
			rec.mu.Lock()
			rec.reloads++
			rec.mu.Unlock()
			select {
			case rec.rel <- struct{}{}:
			default:
			}
			return nil
		},
		FnOnResize: func(w, h int) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.size = [2]int{w, h}
			return nil
		},
	}
	return g, rec
}

func testConfig(dir, manifest string) *config.Config {
	return &config.Config{
		AssetDir: dir,
		Manifest: manifest,
		LogLevel: "error",
		Workers:  2,
		TickRate: time.Millisecond,
	}
}

func TestEngineLifecycle(t *testing.T) {
	dir, manifest := writeManifest(t)
	g, rec := newTestGame(t, testConfig(dir, manifest), &stubLoader{})

	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); !errors.Is(err, core.ErrEngineStage) {
		t.Fatalf("second Initialize err = %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run() }()

	select {
	case <-rec.ticked:
	case <-time.After(5 * time.Second):
		t.Fatal("update never ticked")
	}
	if e.Stage() != EngineStageRunning {
		t.Fatalf("stage = %s", e.Stage())
	}
	items, err := e.Items()
	if err != nil || len(items) != 2 {
		t.Fatalf("Items = %v, %v", items, err)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run = %v", err)
	}
	if e.Stage() != EngineStageShuttingDown {
		t.Fatalf("stage after shutdown = %s", e.Stage())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, ok := rec.items["car"]; !ok || len(rec.items) != 2 {
		t.Fatalf("initialize items = %v", rec.items)
	}
	if rec.size != [2]int{640, 480} {
		t.Fatalf("resize = %v", rec.size)
	}
}

func TestEngineRunRequiresInitialize(t *testing.T) {
	dir, manifest := writeManifest(t)
	g, _ := newTestGame(t, testConfig(dir, manifest), &stubLoader{})
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); !errors.Is(err, core.ErrEngineStage) {
		t.Fatalf("Run err = %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestEngineLoadFailure(t *testing.T) {
	dir, manifest := writeManifest(t)
	boom := errors.New("boom")
	g, rec := newTestGame(t, testConfig(dir, manifest), &stubLoader{fail: boom})
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	err = e.Run()
	if !errors.Is(err, assets.ErrIncomplete) || !errors.Is(err, boom) {
		t.Fatalf("Run err = %v", err)
	}
	if rec.items != nil {
		t.Fatal("game initialized without assets")
	}
	if _, err := e.Items(); !errors.Is(err, core.ErrNotReady) {
		t.Fatalf("Items err = %v", err)
	}
	_ = e.Shutdown()
}

func TestEngineReloadsOnChange(t *testing.T) {
	dir, manifest := writeManifest(t)
	cfg := testConfig(dir, manifest)
	cfg.Watch = true
	g, rec := newTestGame(t, cfg, &stubLoader{})
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	first := e.Resources().ID()

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run() }()
	select {
	case <-rec.ticked:
	case <-time.After(5 * time.Second):
		t.Fatal("update never ticked")
	}

	if err := os.WriteFile(filepath.Join(dir, "env.hdr"), []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rec.rel:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after change")
	}
	deadline := time.Now().Add(5 * time.Second)
	for e.Resources().ID() == first {
		if time.Now().After(deadline) {
			t.Fatal("resources not replaced")
		}
		time.Sleep(time.Millisecond)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run = %v", err)
	}
}

func TestNewRejectsIncompleteGame(t *testing.T) {
	if _, err := New(&Game{ApplicationConfig: &ApplicationConfig{}}); err == nil {
		t.Fatal("game without hooks accepted")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("nil game accepted")
	}
}

func TestEngineInitializeRetriesAfterFailure(t *testing.T) {
	dir, manifest := writeManifest(t)
	missing := filepath.Join(dir, "missing.toml")
	cfg := testConfig(dir, missing)
	g, rec := newTestGame(t, cfg, &stubLoader{})
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Initialize(); err == nil {
		t.Fatal("Initialize succeeded without a manifest")
	}
	if e.Stage() != EngineStageUninitialized {
		t.Fatalf("stage after failed Initialize = %s", e.Stage())
	}
	if e.Resources() != nil {
		t.Fatal("resources kept after failed Initialize")
	}

	cfg.Manifest = manifest
	if err := e.Initialize(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.Stage() != EngineStageLoading {
		t.Fatalf("stage after retry = %s", e.Stage())
	}

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run() }()
	select {
	case <-rec.ticked:
	case <-time.After(5 * time.Second):
		t.Fatal("update never ticked")
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run = %v", err)
	}
}
