package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
	"github.com/spaghettifunk/showroom/engine/systems"
)

var (
	ErrIncomplete        = errors.New("not every asset loaded")
	ErrUnexpectedPayload = errors.New("loader returned an unexpected payload")
)

// Progress is reported after every resolved asset.
type Progress struct {
	Name   string
	Loaded int
	Total  int
}

// LoadError describes an asset that failed to load.
type LoadError struct {
	Name string
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %q from %s: %s", e.Kind, e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type options struct {
	loaders  *Loaders
	workers  int
	timeout  time.Duration
	progress []func(Progress)
	ready    []func()
}

type Option func(*options)

// WithLoaders replaces the default file based loaders.
func WithLoaders(l *Loaders) Option {
	return func(o *options) {
		o.loaders = l
	}
}

// WithWorkers bounds the number of concurrent loads.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTimeout cancels the loads still pending after d. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithProgress registers fn before the first load is dispatched.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = append(o.progress, fn)
	}
}

// WithReady registers fn before the first load is dispatched.
func WithReady(fn func()) Option {
	return func(o *options) {
		o.ready = append(o.ready, fn)
	}
}

// Resources loads every asset of a manifest and signals readiness once all of
// them resolved. After readiness it is read-only.
type Resources struct {
	id       uuid.UUID
	manifest Manifest
	loaders  *Loaders
	ready    *core.Signal
	settled  chan struct{}

	mu       sync.RWMutex
	items    map[string]*resources.Resource
	loaded   int
	failures []*LoadError
	stats    []core.LoadStat
	progress []func(Progress)
}

// New validates the manifest and dispatches every entry in manifest order.
// An empty manifest is ready before New returns.
func New(ctx context.Context, manifest Manifest, opts ...Option) (*Resources, error) {
	o := &options{workers: 4}
	for _, opt := range opts {
		opt(o)
	}
	if o.loaders == nil {
		o.loaders = DefaultLoaders()
	}
	if err := o.loaders.validate(); err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	r := &Resources{
		id:       uuid.New(),
		manifest: append(Manifest(nil), manifest...),
		loaders:  o.loaders,
		ready:    core.NewSignal(),
		settled:  make(chan struct{}),
		items:    make(map[string]*resources.Resource, len(manifest)),
		progress: o.progress,
	}
	for _, fn := range o.ready {
		r.ready.Subscribe(fn)
	}

	if len(r.manifest) == 0 {
		core.LogInfo("resources %s: empty manifest, ready", r.id)
		r.ready.Fire()
		close(r.settled)
		return r, nil
	}

	if err := r.dispatch(ctx, o); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resources) dispatch(ctx context.Context, o *options) error {
	var cancel context.CancelFunc
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	workers := o.workers
	if workers > len(r.manifest) {
		workers = len(r.manifest)
	}
	// The queue holds the whole manifest so dispatch never blocks.
	js, err := systems.NewJobSystem(ctx, workers, len(r.manifest))
	if err != nil {
		cancel()
		return err
	}

	core.LogInfo("resources %s: loading %d assets with %d workers", r.id, len(r.manifest), workers)

	var wg sync.WaitGroup
	wg.Add(len(r.manifest))
	for _, d := range r.manifest {
		d := d
		clock := core.NewClock()
		err := js.Submit(systems.JobTask{
			Run: func(ctx context.Context) (interface{}, error) {
				clock.Start()
				return r.load(ctx, d)
			},
			OnComplete: func(result interface{}) {
				defer wg.Done()
				clock.Update()
				r.handleResolved(d, result.(*resources.Resource), clock.Elapsed())
			},
			OnFailure: func(err error) {
				defer wg.Done()
				clock.Update()
				r.handleFailed(d, err, clock.Elapsed())
			},
		})
		if err != nil {
			// Unreachable while the pool is owned here; keep the count honest.
			wg.Done()
			r.handleFailed(d, err, 0)
		}
	}

	go func() {
		wg.Wait()
		_ = js.Shutdown()
		cancel()
		close(r.settled)
		if !r.ready.Fired() {
			loaded, total := r.Progress()
			core.LogWarn("resources %s: settled with %d of %d assets, never ready", r.id, loaded, total)
		}
	}()
	return nil
}

// load runs the loader matching d.Kind and applies the per-kind transform.
func (r *Resources) load(ctx context.Context, d Descriptor) (*resources.Resource, error) {
	var (
		res *resources.Resource
		err error
	)
	switch d.Kind {
	case KindModel:
		res, err = r.loaders.Model.Load(ctx, d.Name, d.Path)
	case KindTexture:
		res, err = r.loaders.Texture.Load(ctx, d.Name, d.Path)
	case KindCubeTexture:
		res, err = r.loaders.Cube.LoadCube(ctx, d.Name, d.Paths)
	case KindEXR:
		res, err = r.loaders.EXR.Load(ctx, d.Name, d.Path)
		if err == nil {
			err = normalizeEnvironment(res)
		}
	case KindHDR:
		res, err = r.loaders.HDR.Load(ctx, d.Name, d.Path)
		if err == nil {
			err = normalizeEnvironment(res)
		}
	case KindVideo:
		res, err = r.loaders.Video.Load(ctx, d.Name, d.Path)
		if err == nil {
			err = normalizeVideo(res)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(d.Kind))
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: nil resource", ErrUnexpectedPayload)
	}
	if res.Name == "" {
		res.Name = d.Name
	}
	return res, nil
}

// normalizeEnvironment prepares a high dynamic range texture for use as an
// equirectangular environment map.
func normalizeEnvironment(res *resources.Resource) error {
	tex, ok := res.Data.(*resources.Texture)
	if !ok || tex == nil {
		return fmt.Errorf("%w: %T, want *resources.Texture", ErrUnexpectedPayload, res.Data)
	}
	tex.GenerateMipmaps = false
	tex.MinFilter = resources.TextureFilterLinear
	tex.MagFilter = resources.TextureFilterLinear
	tex.Mapping = resources.TextureMappingEquirectangularReflection
	return nil
}

func normalizeVideo(res *resources.Resource) error {
	vt, ok := res.Data.(*resources.VideoTexture)
	if !ok || vt == nil || vt.Texture == nil {
		return fmt.Errorf("%w: %T, want *resources.VideoTexture", ErrUnexpectedPayload, res.Data)
	}
	vt.Texture.GenerateMipmaps = false
	vt.Texture.MinFilter = resources.TextureFilterNearest
	vt.Texture.MagFilter = resources.TextureFilterNearest
	return nil
}

func (r *Resources) handleResolved(d Descriptor, res *resources.Resource, took time.Duration) {
	r.mu.Lock()
	r.items[d.Name] = res
	r.loaded++
	p := Progress{Name: d.Name, Loaded: r.loaded, Total: len(r.manifest)}
	r.stats = append(r.stats, core.LoadStat{Name: d.Name, Duration: took})
	listeners := append([]func(Progress){}, r.progress...)
	r.mu.Unlock()

	core.LogInfo("Asset loaded: %s (%d/%d) in %s", d.Name, p.Loaded, p.Total, took)
	for _, fn := range listeners {
		fn(p)
	}

	if p.Loaded == p.Total {
		core.LogInfo("resources %s: ready", r.id)
		r.ready.Fire()
	}
}

func (r *Resources) handleFailed(d Descriptor, err error, took time.Duration) {
	path := d.Path
	if d.Kind == KindCubeTexture && len(d.Paths) > 0 {
		path = d.Paths[0]
	}
	le := &LoadError{Name: d.Name, Kind: d.Kind, Path: path, Err: err}

	r.mu.Lock()
	r.failures = append(r.failures, le)
	r.stats = append(r.stats, core.LoadStat{Name: d.Name, Duration: took, Failed: true})
	r.mu.Unlock()

	core.LogError(le.Error())
}

func (r *Resources) ID() uuid.UUID {
	return r.id
}

func (r *Resources) Manifest() Manifest {
	return append(Manifest(nil), r.manifest...)
}

// OnReady runs fn once every asset resolved. If that already happened fn
// runs immediately.
func (r *Resources) OnReady(fn func()) {
	r.ready.Subscribe(fn)
}

// OnProgress registers fn for resolutions that happen after the call.
func (r *Resources) OnProgress(fn func(Progress)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.progress = append(r.progress, fn)
	r.mu.Unlock()
}

// Ready is closed once every asset resolved.
func (r *Resources) Ready() <-chan struct{} {
	return r.ready.Done()
}

func (r *Resources) IsReady() bool {
	return r.ready.Fired()
}

// Settled is closed once every dispatched load finished, successfully or not.
func (r *Resources) Settled() <-chan struct{} {
	return r.settled
}

// Wait blocks until readiness. If every load finished without reaching it,
// Wait returns ErrIncomplete joined with each LoadError.
func (r *Resources) Wait(ctx context.Context) error {
	select {
	case <-r.ready.Done():
		return nil
	case <-r.settled:
		if r.ready.Fired() {
			return nil
		}
		loaded, total := r.Progress()
		errs := []error{fmt.Errorf("%w: %d of %d", ErrIncomplete, loaded, total)}
		for _, f := range r.Failures() {
			errs = append(errs, f)
		}
		return errors.Join(errs...)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Item returns the resolved resource for name.
func (r *Resources) Item(name string) (*resources.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[name]
	return res, ok
}

// Items returns a snapshot of the resolved item mapping.
func (r *Resources) Items() map[string]*resources.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*resources.Resource, len(r.items))
	for k, v := range r.items {
		out[k] = v
	}
	return out
}

// Progress returns the number of resolved assets and the manifest size.
func (r *Resources) Progress() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded, len(r.manifest)
}

func (r *Resources) Failures() []*LoadError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*LoadError(nil), r.failures...)
}

// Stats returns the load duration of every settled asset in completion order.
func (r *Resources) Stats() []core.LoadStat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.LoadStat(nil), r.stats...)
}
