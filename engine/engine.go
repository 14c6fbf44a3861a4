package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/showroom/engine/assets"
	"github.com/spaghettifunk/showroom/engine/config"
	"github.com/spaghettifunk/showroom/engine/containers"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/resources"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine dispatched the manifest and waits for every asset
	EngineStageLoading
	// Every asset resolved and the game is initializing
	EngineStageReady
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

var stageNames = [...]string{
	"uninitialized",
	"booting",
	"loading",
	"ready",
	"running",
	"shutting down",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

const (
	// maxQueuedChanges bounds the file changes remembered between two reloads.
	maxQueuedChanges = 32
	metricsInterval  = 5 * time.Second
)

type Engine struct {
	mu           sync.Mutex
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	manifest     assets.Manifest
	resources    *assets.Resources
	watcher      *assets.Watcher
	changesMu    sync.Mutex
	changes      *containers.RingQueue[assets.Change]
	reloads      chan struct{}
	clock        *core.Clock
	metrics      *core.FrameMetrics
	width        int
	height       int

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	runStarted   bool
	shutdownOnce sync.Once
	shutdownErr  error
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and its application config are required")
	}
	if g.FnInitialize == nil || g.FnUpdate == nil {
		return nil, errors.New("game must provide initialize and update hooks")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
		changes:      containers.NewRingQueue[assets.Change](maxQueuedChanges),
		reloads:      make(chan struct{}, 1),
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

// Initialize reads the configuration, loads the manifest and dispatches
// every asset. It returns without waiting for them. On error the engine is
// back in EngineStageUninitialized and Initialize may be called again.
func (e *Engine) Initialize() (err error) {
	if err := e.transition(EngineStageUninitialized, EngineStageBooting); err != nil {
		return err
	}
	loadCtx, cancelLoad := context.WithCancel(e.ctx)
	defer func() {
		if err != nil {
			cancelLoad()
			e.resetBoot()
		}
	}()
	app := e.gameInstance.ApplicationConfig

	cfg := app.Config
	if cfg == nil {
		var err error
		if cfg, err = config.ParseEnv(); err != nil {
			return err
		}
	} else if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg

	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	core.LogInfo("booting %s...", app.Name)

	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			return err
		}
	}

	m, err := assets.LoadManifest(cfg.Manifest, cfg.AssetDir)
	if err != nil {
		return err
	}
	e.manifest = m

	if err := e.transition(EngineStageBooting, EngineStageLoading); err != nil {
		return err
	}
	r, err := e.load(loadCtx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.resources = r
	e.mu.Unlock()

	if cfg.Watch {
		if err := e.startWatcher(); err != nil {
			return err
		}
	}
	return nil
}

// resetBoot undoes a failed Initialize unless Shutdown already took over.
func (e *Engine) resetBoot() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage == EngineStageShuttingDown {
		return
	}
	e.currentStage = EngineStageUninitialized
	e.config = nil
	e.manifest = nil
	e.resources = nil
}

func (e *Engine) load(ctx context.Context) (*assets.Resources, error) {
	opts := []assets.Option{
		assets.WithWorkers(e.config.Workers),
		assets.WithTimeout(e.config.LoadTimeout),
	}
	if l := e.gameInstance.ApplicationConfig.Loaders; l != nil {
		opts = append(opts, assets.WithLoaders(l))
	}
	if fn := e.gameInstance.FnProgress; fn != nil {
		opts = append(opts, assets.WithProgress(func(p assets.Progress) { fn(p) }))
	}
	return assets.New(ctx, e.manifest, opts...)
}

func (e *Engine) startWatcher() error {
	w, err := assets.NewWatcher(e.manifest, func(c assets.Change) {
		e.changesMu.Lock()
		e.changes.Push(c)
		e.changesMu.Unlock()
		select {
		case e.reloads <- struct{}{}:
		default:
			// a reload is already queued and covers this change
		}
	})
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(e.config.AssetDir)
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.AddRecursive(dir); err != nil {
		_ = w.Close()
		return err
	}
	e.watcher = w
	core.LogInfo("watching %s for asset changes", dir)
	return nil
}

// Run blocks until every asset resolved, hands the items to the game and then
// ticks its update hook until Shutdown.
func (e *Engine) Run() error {
	e.mu.Lock()
	if e.currentStage != EngineStageLoading || e.runStarted {
		stage := e.currentStage
		e.mu.Unlock()
		return fmt.Errorf("%w: run in stage %s", core.ErrEngineStage, stage)
	}
	e.runStarted = true
	e.mu.Unlock()
	defer close(e.done)

	if err := e.resources.Wait(e.ctx); err != nil {
		if e.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("wait for assets: %w", err)
	}
	if err := e.transition(EngineStageLoading, EngineStageReady); err != nil {
		return e.unlessStopping(err)
	}

	if err := e.gameInstance.FnInitialize(e.resources.Items()); err != nil {
		return err
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	if err := e.transition(EngineStageReady, EngineStageRunning); err != nil {
		return e.unlessStopping(err)
	}

	e.clock.Start()
	e.clock.Update()
	lastTime := e.clock.Elapsed()
	lastReport := lastTime

	ticker := time.NewTicker(e.config.TickRate)
	defer ticker.Stop()

	var pending *assets.Resources
	var cancelPending context.CancelFunc = func() {}
	defer func() { cancelPending() }()

	for {
		var pendingSettled <-chan struct{}
		if pending != nil {
			pendingSettled = pending.Settled()
		}

		select {
		case <-e.ctx.Done():
			return nil

		case <-e.reloads:
			core.LogInfo("assets changed (%s), reloading", e.drainChanges())
			cancelPending()
			var ctx context.Context
			ctx, cancelPending = context.WithCancel(e.ctx)
			r, err := e.load(ctx)
			if err != nil {
				core.LogError("reload failed: %s", err)
				continue
			}
			pending = r

		case <-pendingSettled:
			r := pending
			pending = nil
			if !r.IsReady() {
				core.LogWarn("reload %s incomplete, keeping previous assets", r.ID())
				continue
			}
			if err := e.applyReload(r); err != nil {
				return err
			}

		case <-ticker.C:
			e.clock.Update()
			currentTime := e.clock.Elapsed()
			delta := currentTime - lastTime
			lastTime = currentTime

			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down: %s", err)
				return err
			}
			e.metrics.Update(delta)
			if currentTime-lastReport >= metricsInterval {
				lastReport = currentTime
				fps, frameMS := e.metrics.Frame()
				core.LogDebug("%.0f fps, %.2f ms/frame", fps, frameMS)
			}
		}
	}
}

func (e *Engine) drainChanges() string {
	e.changesMu.Lock()
	changes := e.changes.Drain()
	e.changesMu.Unlock()

	names := make([]string, 0, len(changes))
	seen := make(map[string]bool, len(changes))
	for _, c := range changes {
		if !seen[c.Asset.Name] {
			seen[c.Asset.Name] = true
			names = append(names, c.Asset.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (e *Engine) applyReload(r *assets.Resources) error {
	reload := e.gameInstance.FnReload
	if reload == nil {
		reload = Reload(e.gameInstance.FnInitialize)
	}
	if err := reload(r.Items()); err != nil {
		core.LogError("Game reload failed: %s", err)
		return err
	}
	e.mu.Lock()
	e.resources = r
	e.mu.Unlock()
	core.LogInfo("assets reloaded (%s)", r.ID())
	return nil
}

// Shutdown stops the run loop, closes the watcher and calls the game's
// shutdown hook. Later calls return the first result.
func (e *Engine) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		e.currentStage = EngineStageShuttingDown
		started := e.runStarted
		e.mu.Unlock()

		e.cancel()
		if started {
			<-e.done
		}

		var errs []error
		if e.watcher != nil {
			errs = append(errs, e.watcher.Close())
		}
		if e.gameInstance.FnShutdown != nil {
			errs = append(errs, e.gameInstance.FnShutdown())
		}
		e.shutdownErr = errors.Join(errs...)
		fps, frameMS := e.metrics.Frame()
		core.LogInfo("engine shut down (last %.0f fps, %.2f ms/frame)", fps, frameMS)
	})
	return e.shutdownErr
}

// unlessStopping drops stage errors caused by a concurrent Shutdown.
func (e *Engine) unlessStopping(err error) error {
	if e.ctx.Err() != nil {
		return nil
	}
	return err
}

func (e *Engine) transition(from, to Stage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage != from {
		return fmt.Errorf("%w: cannot move to %s from %s", core.ErrEngineStage, to, e.currentStage)
	}
	e.currentStage = to
	return nil
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

// Resources returns the asset set currently in use.
func (e *Engine) Resources() *assets.Resources {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resources
}

// Items returns the items of the current asset set once it is ready.
func (e *Engine) Items() (map[string]*resources.Resource, error) {
	r := e.Resources()
	if r == nil || !r.IsReady() {
		return nil, core.ErrNotReady
	}
	return r.Items(), nil
}

func (e *Engine) Metrics() *core.FrameMetrics {
	return e.metrics
}

// GetFramebufferSize returns the width and height (in this order) of the viewport.
func (e *Engine) GetFramebufferSize() (int, int) {
	return e.width, e.height
}
