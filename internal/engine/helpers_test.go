package engine_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tartampluch/life-countdown/internal/engine"
)

// -----------------------------------------------------------------------------
// Mocks & Fakes
// -----------------------------------------------------------------------------

// MockClock controls time for deterministic testing. It is safe to advance
// while a loop samples it.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CurrentTime = t
}

// MockFetcher simulates the network layer using `testify/mock`.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, src engine.Source) ([]byte, error) {
	args := m.Called(ctx, src)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// memStore is an in-memory engine.Store.
type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	sets   int
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = value
	return nil
}

// manualScheduler holds the pending tick until the test fires it.
type manualScheduler struct {
	mu        sync.Mutex
	next      func()
	gen       int
	scheduled int
	overlaps  int // ticks scheduled while another was still pending
}

func (s *manualScheduler) ScheduleNextTick(fn func()) engine.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next != nil {
		s.overlaps++
	}
	s.gen++
	gen := s.gen
	s.next = fn
	s.scheduled++
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			s.next = nil
		}
	}
}

// Fire runs the pending tick, reporting whether there was one.
func (s *manualScheduler) Fire() bool {
	s.mu.Lock()
	fn := s.next
	s.next = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (s *manualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next != nil
}

// recordingPresenter captures everything the loop emits, in order.
type recordingPresenter struct {
	mu     sync.Mutex
	resets []engine.Configuration
	frames []engine.Frame
	events []string
}

func (p *recordingPresenter) Reset(cfg engine.Configuration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, cfg)
	p.events = append(p.events, "reset")
}

func (p *recordingPresenter) Render(frame engine.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, frame)
	p.events = append(p.events, "render")
}

func (p *recordingPresenter) Frames() []engine.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Frame(nil), p.frames...)
}

func (p *recordingPresenter) LastFrame() engine.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return engine.Frame{}
	}
	return p.frames[len(p.frames)-1]
}

// capturePublisher records published feeds.
type capturePublisher struct {
	mu    sync.Mutex
	feeds [][]byte
}

func (c *capturePublisher) Update(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds = append(c.feeds, data)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// yearWindow is the 2024 event countdown used across tests: 12 squares over a leap year.
func yearWindow() engine.Configuration {
	return engine.Configuration{
		Type:         engine.Event,
		Title:        "2024",
		StartDate:    date(2024, 1, 1),
		EndDate:      date(2025, 1, 1),
		TotalSquares: 12,
	}
}
