package engine_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/life-countdown/internal/engine"
)

func TestLoop_TicksUntilComplete(t *testing.T) {
	clock := &MockClock{CurrentTime: date(2024, 7, 1)}
	sched := &manualScheduler{}
	pres := &recordingPresenter{}

	loop := engine.NewLoop(engine.NewEngine(yearWindow()), clock, sched, pres)
	loop.Start()

	// The first tick runs synchronously so the grid is painted immediately.
	require.Len(t, pres.Frames(), 1)
	assert.Equal(t, 5, pres.LastFrame().Elapsed)
	assert.True(t, sched.Pending(), "next tick is queued only after the first completes")

	clock.Set(date(2024, 12, 31))
	require.True(t, sched.Fire())
	assert.Equal(t, engine.CellRange{From: 5, To: 11}, pres.LastFrame().Filled)

	clock.Set(date(2025, 1, 1))
	require.True(t, sched.Fire())
	assert.True(t, pres.LastFrame().Complete)
	assert.False(t, sched.Pending(), "a complete countdown stops scheduling")
	assert.Zero(t, sched.overlaps)
}

func TestLoop_StopCancelsPendingTick(t *testing.T) {
	clock := &MockClock{CurrentTime: date(2024, 7, 1)}
	sched := &manualScheduler{}
	pres := &recordingPresenter{}

	loop := engine.NewLoop(engine.NewEngine(yearWindow()), clock, sched, pres)
	loop.Start()
	loop.Stop()

	assert.False(t, sched.Pending())
	assert.False(t, sched.Fire())
	assert.Len(t, pres.Frames(), 1)

	// Stop is idempotent.
	loop.Stop()
}

func TestLoop_StaleTickAfterStopIsIgnored(t *testing.T) {
	clock := &MockClock{CurrentTime: date(2024, 7, 1)}
	sched := &manualScheduler{}
	pres := &recordingPresenter{}

	loop := engine.NewLoop(engine.NewEngine(yearWindow()), clock, sched, pres)
	loop.Start()

	// Grab the pending callback as if the timer had already fired when Stop ran.
	sched.mu.Lock()
	stale := sched.next
	sched.mu.Unlock()
	require.NotNil(t, stale)

	loop.Stop()
	stale()

	assert.Len(t, pres.Frames(), 1, "a stopped loop never renders again")
}

// countingPresenter counts frames; used with the real timer scheduler.
type countingPresenter struct {
	frames atomic.Int32
	resets atomic.Int32
}

func (p *countingPresenter) Reset(engine.Configuration) { p.resets.Add(1) }
func (p *countingPresenter) Render(engine.Frame)        { p.frames.Add(1) }

func TestTimerScheduler_DrivesLoop(t *testing.T) {
	pres := &countingPresenter{}
	clock := &MockClock{CurrentTime: date(2024, 7, 1)}

	loop := engine.NewLoop(engine.NewEngine(yearWindow()), clock, engine.NewTimerScheduler(time.Millisecond), pres)
	loop.Start()

	assert.Eventually(t, func() bool { return pres.frames.Load() >= 5 }, time.Second, time.Millisecond)

	loop.Stop()
	stopped := pres.frames.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, pres.frames.Load(), "no frames after Stop returns")
}

func TestNewTimerScheduler_DefaultInterval(t *testing.T) {
	s := engine.NewTimerScheduler(0)
	assert.Equal(t, time.Second/60, s.Interval)
}
