package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

type controllerFixture struct {
	ctrl  *engine.Controller
	clock *MockClock
	store *memStore
	sched *manualScheduler
	pres  *recordingPresenter
	pub   *capturePublisher
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		clock: &MockClock{CurrentTime: date(2024, 7, 1)},
		store: newMemStore(),
		sched: &manualScheduler{},
		pres:  &recordingPresenter{},
		pub:   &capturePublisher{},
	}
	f.ctrl = engine.NewController(engine.NewResolver(f.store, f.clock), f.clock, f.sched, f.pres)
	f.ctrl.Publisher = f.pub
	return f
}

func TestController_LoadFallback(t *testing.T) {
	f := newControllerFixture()

	cfg, err := f.ctrl.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "YEAR END", cfg.Title)
	assert.Equal(t, cfg, f.ctrl.Active())
	assert.Equal(t, []string{"reset", "render"}, f.pres.events, "grid is rebuilt before the first frame")
	assert.Equal(t, 5, f.ctrl.Elapsed())

	require.Len(t, f.pub.feeds, 1)
	assert.Contains(t, string(f.pub.feeds[0]), "BEGIN:VEVENT")
}

func TestController_ReloadResetsElapsed(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture()

	_, err := f.ctrl.Load(ctx)
	require.NoError(t, err)
	f.clock.Set(date(2024, 12, 31))
	require.True(t, f.sched.Fire())
	require.Equal(t, 11, f.ctrl.Elapsed())

	cfg, err := f.ctrl.Submit(ctx, engine.Input{
		Type:      engine.Event,
		Title:     "Q1",
		StartDate: "2024-11-01",
		EndDate:   "2025-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.TotalSquares)

	frames := f.pres.Frames()
	first := frames[len(frames)-1]
	assert.Equal(t, "Q1", first.Title)
	assert.Equal(t, 0, first.Filled.From, "a new configuration starts counting from zero")
	assert.Equal(t, 1, first.Elapsed) // 60 of 181 days, 6 squares
	assert.Len(t, f.pres.resets, 2)
	assert.Zero(t, f.sched.overlaps, "old loop is cancelled before the new one starts")
	assert.Equal(t, 1, f.store.sets)
}

func TestController_ValidationKeepsRunningCountdown(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture()

	before, err := f.ctrl.Load(ctx)
	require.NoError(t, err)
	eventsBefore := len(f.pres.events)

	_, err = f.ctrl.Submit(ctx, engine.Input{Type: engine.Event, StartDate: "2024-01-01", EndDate: "2025-01-01"})

	var vErr *engine.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []engine.Field{engine.FieldTitle}, vErr.Missing)
	assert.Equal(t, before, f.ctrl.Active())
	assert.Len(t, f.pres.events, eventsBefore, "no reset, no render")
	assert.True(t, f.sched.Pending(), "the running loop was not cancelled")
	assert.Zero(t, f.store.sets)
}

func TestController_SaveFailureReloadsStoredCountdown(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture()
	_, err := f.ctrl.Load(ctx)
	require.NoError(t, err)

	f.store.setErr = errors.New("quota exceeded")
	_, err = f.ctrl.Submit(ctx, engine.Input{Type: engine.Lifespan, DateOfBirth: "1990-05-17"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrStoreWrite)

	assert.Equal(t, "YEAR END", f.ctrl.Active().Title)
	assert.True(t, f.sched.Pending(), "a countdown keeps ticking after a failed save")
	assert.Zero(t, f.sched.overlaps)
}

func TestController_Stop(t *testing.T) {
	f := newControllerFixture()
	_, err := f.ctrl.Load(context.Background())
	require.NoError(t, err)

	f.ctrl.Stop()
	assert.False(t, f.sched.Pending())
	assert.False(t, f.sched.Fire())
}

func TestController_SummaryFormatter(t *testing.T) {
	f := newControllerFixture()
	f.ctrl.FormatSummary = func(cfg engine.Configuration) string { return "Custom " + cfg.Title }

	_, err := f.ctrl.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, f.pub.feeds, 1)
	assert.Contains(t, string(f.pub.feeds[0]), "SUMMARY:Custom YEAR END")
}

func TestController_CompletedCountdown(t *testing.T) {
	f := newControllerFixture()
	f.clock.Set(date(2030, 1, 1))
	f.store.data[config.PrefSettings] = `{"type":"event","title":"Past","startDate":` + millis(date(2024, 1, 1)) + `,"endDate":` + millis(date(2025, 1, 1)) + `,"totalSquares":12}`

	_, err := f.ctrl.Load(context.Background())
	require.NoError(t, err)

	last := f.pres.LastFrame()
	assert.True(t, last.Complete)
	assert.Equal(t, "Past", last.Title)
	assert.False(t, f.sched.Pending())
}

func TestController_ZeroSquareCountdownStopsTicking(t *testing.T) {
	f := newControllerFixture()
	f.store.data[config.PrefSettings] = `{"type":"event","title":"Sprint","startDate":` + millis(date(2024, 7, 1)) + `,"endDate":` + millis(date(2024, 7, 20)) + `,"totalSquares":0}`

	_, err := f.ctrl.Load(context.Background())
	require.NoError(t, err)

	last := f.pres.LastFrame()
	assert.True(t, last.Complete)
	assert.Equal(t, "Sprint", last.Title)
	assert.Zero(t, f.ctrl.Elapsed())
	assert.False(t, f.sched.Pending(), "no tick is scheduled after the countdown completes")
}
