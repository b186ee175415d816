package dev

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ControllerConfig configures the reload controller.
type ControllerConfig struct {
	// Compiler builds and runs the project binary.
	Compiler *Compiler

	// Reload broadcasts to connected browsers. May be nil when hot
	// reload is disabled.
	Reload *ReloadServer

	// ChildEnv is passed to the child process on every restart.
	ChildEnv []string

	// Throttle is the minimum interval between full browser reloads.
	// Bursts of rebuilds within the window produce one reload.
	Throttle time.Duration

	// OnBuild is called after every build attempt.
	OnBuild func(BuildResult)

	// Logger receives build and reload events.
	Logger *slog.Logger
}

// Controller owns the rebuild-restart-reload cycle. All state that
// the cycle depends on lives here: the child process (via the
// compiler), the last reload time, and whether the last build failed.
type Controller struct {
	compiler *Compiler
	reload   *ReloadServer
	childEnv []string
	throttle time.Duration
	onBuild  func(BuildResult)
	logger   *slog.Logger

	mu          sync.Mutex
	lastReload  time.Time
	buildBroken bool
}

// NewController creates a reload controller.
func NewController(config ControllerConfig) *Controller {
	if config.Throttle == 0 {
		config.Throttle = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Controller{
		compiler: config.Compiler,
		reload:   config.Reload,
		childEnv: config.ChildEnv,
		throttle: config.Throttle,
		onBuild:  config.OnBuild,
		logger:   config.Logger,
	}
}

// Start performs the initial build and launch.
func (c *Controller) Start(ctx context.Context) error {
	result := c.compiler.Build(ctx)
	if c.onBuild != nil {
		c.onBuild(result)
	}
	if !result.Success {
		c.logger.Error("initial build failed", "output", result.Output)
		c.setBroken(true)
		c.notifyError(result.Output)
		return result.Error
	}

	c.logger.Info("built", "duration", result.Duration.Round(time.Millisecond))
	return c.compiler.Run(ctx, c.childEnv)
}

// HandleChanges reacts to one debounced batch of file changes. Go
// changes rebuild and restart; CSS-only batches refresh stylesheets
// in place; anything else reloads the page.
func (c *Controller) HandleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	var hasGo, hasCSS, hasAsset bool
	var cssFile string
	for _, change := range changes {
		c.logger.Debug("changed", "path", change.Path)
		switch change.Type {
		case ChangeGo:
			hasGo = true
		case ChangeCSS:
			hasCSS = true
			if cssFile == "" {
				cssFile = change.Path
			}
		case ChangeAsset:
			hasAsset = true
		}
	}

	switch {
	case hasGo:
		c.rebuild(ctx)
	case hasCSS && !hasAsset:
		c.logger.Info("css changed", "file", cssFile)
		if c.reload != nil {
			c.reload.NotifyCSS(cssFile)
		}
	default:
		c.notifyReload()
	}
}

// Stop shuts down the child process.
func (c *Controller) Stop() {
	c.compiler.Stop()
}

func (c *Controller) rebuild(ctx context.Context) {
	c.logger.Info("rebuilding")
	result := c.compiler.Build(ctx)
	if c.onBuild != nil {
		c.onBuild(result)
	}

	if !result.Success {
		c.logger.Error("build failed", "output", result.Output)
		c.setBroken(true)
		c.notifyError(result.Output)
		return
	}

	c.logger.Info("built", "duration", result.Duration.Round(time.Millisecond))
	if c.wasBroken() {
		c.setBroken(false)
		if c.reload != nil {
			c.reload.ClearError()
		}
	}

	if err := c.compiler.Run(ctx, c.childEnv); err != nil {
		c.logger.Error("restart failed", "err", err)
		return
	}

	// Give the child a moment to bind its port before browsers refetch.
	time.Sleep(100 * time.Millisecond)
	c.notifyReload()
}

// notifyReload broadcasts a full reload, at most once per throttle
// window.
func (c *Controller) notifyReload() {
	if c.reload == nil {
		return
	}

	c.mu.Lock()
	since := time.Since(c.lastReload)
	if since < c.throttle {
		c.mu.Unlock()
		time.Sleep(c.throttle - since)
		c.mu.Lock()
		if time.Since(c.lastReload) < c.throttle {
			c.mu.Unlock()
			return
		}
	}
	c.lastReload = time.Now()
	c.mu.Unlock()

	c.reload.NotifyReload()
	c.logger.Info("reloaded", "clients", c.reload.ClientCount())
}

func (c *Controller) setBroken(broken bool) {
	c.mu.Lock()
	c.buildBroken = broken
	c.mu.Unlock()
}

func (c *Controller) wasBroken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildBroken
}

func (c *Controller) notifyError(output string) {
	if c.reload != nil {
		c.reload.NotifyError(output)
	}
}
