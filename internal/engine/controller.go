package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tartampluch/life-countdown/internal/config"
)

// Publisher receives the rendered calendar feed of the active countdown.
type Publisher interface {
	Update(data []byte)
}

// Controller owns the active configuration and its tick loop.
// Loading a configuration always stops the previous loop before a new Engine is built,
// so two loops never run at the same time.
type Controller struct {
	Resolver  *Resolver
	Clock     Clock
	Scheduler Scheduler
	Presenter Presenter

	// Publisher is optional. When set, every load publishes an iCalendar feed.
	Publisher Publisher

	// FormatSummary allows the UI to inject localized event summaries into the feed.
	FormatSummary func(cfg Configuration) string

	mu     sync.Mutex
	loop   *Loop
	active Configuration
}

// NewController creates a controller. Call Load to start the first countdown.
func NewController(resolver *Resolver, clock Clock, scheduler Scheduler, presenter Presenter) *Controller {
	return &Controller{
		Resolver:  resolver,
		Clock:     clock,
		Scheduler: scheduler,
		Presenter: presenter,
	}
}

// Load resolves the persisted configuration and (re)starts the countdown.
func (c *Controller) Load(ctx context.Context) (Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

// Submit validates in, persists it, and reloads. A *ValidationError leaves the
// running countdown untouched.
func (c *Controller) Submit(ctx context.Context, in Input) (Configuration, error) {
	cfg, err := c.Resolver.Build(in)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			slog.Info(config.MsgValidationFail,
				config.LogKeyComponent, config.CompResolver,
				config.LogKeyMissing, vErr.Missing,
				config.LogKeyInvalid, vErr.Invalid,
			)
		}
		return Configuration{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	if err := c.Resolver.Save(ctx, cfg); err != nil {
		// Keep a countdown on screen: reload whatever the store still holds.
		if _, loadErr := c.loadLocked(ctx); loadErr != nil {
			return Configuration{}, errors.Join(err, loadErr)
		}
		return Configuration{}, err
	}
	return c.loadLocked(ctx)
}

// Stop halts the tick loop. The active configuration is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Active returns the configuration currently counted down.
func (c *Controller) Active() Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Elapsed returns the elapsed cells of the running engine, or 0 before the first load.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	loop := c.loop
	c.mu.Unlock()

	if loop == nil {
		return 0
	}
	loop.mu.Lock()
	defer loop.mu.Unlock()
	return loop.engine.Elapsed()
}

// loadLocked replaces the running loop with one for the freshly resolved configuration.
// The caller holds c.mu.
func (c *Controller) loadLocked(ctx context.Context) (Configuration, error) {
	// 1. The old loop must be gone before the grid is reset.
	c.stopLocked()

	// 2. Resolve the configuration (stored record or fallback).
	cfg, err := c.Resolver.Resolve(ctx)
	if err != nil {
		return Configuration{}, fmt.Errorf("%s: %w", config.ErrLoadFailed, err)
	}

	slog.Info(config.MsgConfigLoaded,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyType, cfg.Type,
		config.LogKeyTitle, cfg.Title,
		config.LogKeyStart, cfg.StartDate,
		config.LogKeyEnd, cfg.EndDate,
		config.LogKeySquares, cfg.TotalSquares,
	)

	// 3. Empty grid, fresh engine, first tick.
	c.active = cfg
	c.Presenter.Reset(cfg)
	c.loop = NewLoop(NewEngine(cfg), c.Clock, c.Scheduler, c.Presenter)
	c.loop.Start()

	// 4. Calendar feed.
	c.publish(cfg)
	return cfg, nil
}

// stopLocked cancels the pending tick and drops the loop. The caller holds c.mu.
func (c *Controller) stopLocked() {
	if c.loop != nil {
		c.loop.Stop()
		c.loop = nil
	}
}

// publish is best effort: a broken feed must not stop the countdown.
func (c *Controller) publish(cfg Configuration) {
	if c.Publisher == nil {
		return
	}

	summary := fmt.Sprintf(config.FallbackSummary, cfg.Title)
	if c.FormatSummary != nil {
		summary = c.FormatSummary(cfg)
	}

	data, err := BuildCalendar(cfg, c.Clock.Now(), summary)
	if err != nil {
		slog.Error(config.ErrPublishFailed,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyError, err,
		)
		return
	}
	c.Publisher.Update(data)
	slog.Debug(config.MsgFeedPublished,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeySizeBytes, len(data),
	)
}
