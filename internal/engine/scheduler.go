package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
)

// CancelFunc cancels a scheduled tick. Calling it after the tick ran is a no-op.
type CancelFunc func()

// Scheduler arranges for fn to run once, at the next frame.
type Scheduler interface {
	ScheduleNextTick(fn func()) CancelFunc
}

// TimerScheduler schedules ticks on a fixed interval using time.AfterFunc.
type TimerScheduler struct {
	Interval time.Duration
}

// NewTimerScheduler returns a scheduler firing every interval (config.FrameInterval if zero).
func NewTimerScheduler(interval time.Duration) TimerScheduler {
	if interval <= 0 {
		interval = config.FrameInterval
	}
	return TimerScheduler{Interval: interval}
}

// ScheduleNextTick implements Scheduler.
func (s TimerScheduler) ScheduleNextTick(fn func()) CancelFunc {
	t := time.AfterFunc(s.Interval, fn)
	return func() { t.Stop() }
}

// Presenter receives the output of the engine.
// Render is called with the loop lock held and must not call back into the Loop or Controller.
type Presenter interface {
	// Reset rebuilds an empty grid for a newly loaded configuration.
	Reset(cfg Configuration)
	// Render applies one frame. Only frame.Filled needs painting.
	Render(frame Frame)
}

// Loop ticks an Engine until it completes or is stopped. Each tick schedules
// the next one only after it has finished, so at most one tick is pending.
type Loop struct {
	mu        sync.Mutex
	engine    *Engine
	clock     Clock
	scheduler Scheduler
	presenter Presenter
	cancel    CancelFunc
	stopped   bool
}

// NewLoop wires an engine to its clock, scheduler and presenter. It does not start ticking.
func NewLoop(e *Engine, clock Clock, scheduler Scheduler, presenter Presenter) *Loop {
	return &Loop{
		engine:    e,
		clock:     clock,
		scheduler: scheduler,
		presenter: presenter,
	}
}

// Start runs the first tick immediately, then keeps ticking through the scheduler.
func (l *Loop) Start() {
	slog.Debug(config.MsgLoopStart,
		config.LogKeyComponent, config.CompLoop,
		config.LogKeySquares, l.engine.Configuration().TotalSquares,
	)
	l.tick()
}

// Stop cancels the pending tick and waits for an in-flight one to return.
// After Stop returns the presenter receives no further frames from this loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	slog.Debug(config.MsgLoopStop,
		config.LogKeyComponent, config.CompLoop,
		config.LogKeyElapsed, l.engine.Elapsed(),
	)
}

// Engine returns the engine driven by the loop.
func (l *Loop) Engine() *Engine {
	return l.engine
}

// tick runs one frame and, unless the countdown completed, schedules the next one.
func (l *Loop) tick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A tick that fires after Stop is stale.
	l.cancel = nil
	if l.stopped {
		return
	}

	frame := l.engine.Tick(l.clock.Now())
	l.presenter.Render(frame)

	// Complete is terminal: nothing more to schedule.
	if frame.Complete {
		return
	}
	l.cancel = l.scheduler.ScheduleNextTick(l.tick)
}
