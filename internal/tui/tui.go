// Package tui renders the countdown in a terminal with bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

const (
	glyphFilled = "■"
	glyphEmpty  = "□"

	// Terminal cells are roughly twice as tall as wide; each square takes two columns.
	cellWidth    = 2
	chromeHeight = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D32")).
			Padding(0, 1)

	unitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D32F2F"))
)

// Translate resolves a message ID, returning the ID itself when unknown.
type Translate func(key string, data map[string]any) string

type resetMsg struct{ cfg engine.Configuration }

type frameMsg struct{ frame engine.Frame }

type errMsg struct{ err error }

// Presenter forwards engine output to a bubbletea program. It implements engine.Presenter.
type Presenter struct {
	send func(tea.Msg)
}

// NewPresenter returns a presenter that delivers messages with send (usually tea.Program.Send).
func NewPresenter(send func(tea.Msg)) *Presenter {
	return &Presenter{send: send}
}

// Reset implements engine.Presenter.
func (p *Presenter) Reset(cfg engine.Configuration) { p.send(resetMsg{cfg: cfg}) }

// Render implements engine.Presenter.
func (p *Presenter) Render(frame engine.Frame) { p.send(frameMsg{frame: frame}) }

// Model is the bubbletea model of the countdown screen.
type Model struct {
	ctx       context.Context
	load      func(ctx context.Context) error
	translate Translate

	typ       engine.Type
	title     string
	total     int
	elapsed   int
	remaining engine.Remaining
	complete  bool
	loaded    bool

	width  int
	height int
	err    error
}

// NewModel creates the model. load starts the countdown once the program runs;
// it must not be called before, since the presenter blocks until the program reads messages.
func NewModel(ctx context.Context, load func(ctx context.Context) error, translate Translate) Model {
	return Model{ctx: ctx, load: load, translate: translate}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.load == nil {
		return nil
	}
	return func() tea.Msg {
		if err := m.load(m.ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case resetMsg:
		m.typ = msg.cfg.Type
		m.title = msg.cfg.Title
		m.total = msg.cfg.Squares()
		m.elapsed = 0
		m.remaining = engine.Remaining{}
		m.complete = false
		m.loaded = true

	case frameMsg:
		f := msg.frame
		m.complete = f.Complete
		m.elapsed = f.Elapsed
		m.remaining = f.Remaining
		m.total = f.TotalSquares

	case errMsg:
		m.err = msg.err
		slog.Error(config.ErrTerminalFailed,
			config.LogKeyComponent, config.CompTUI,
			config.LogKeyError, msg.err,
		)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.err != nil {
		return errStyle.Render(m.err.Error()) + "\n"
	}
	if !m.loaded {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.heading()))
	b.WriteString("\n\n")

	if !m.complete {
		b.WriteString(m.units())
		b.WriteString("\n\n")
		b.WriteString(m.grid())
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

func (m Model) heading() string {
	switch {
	case m.complete && m.title != "":
		return m.msgOr(config.TKeyCompleted, fmt.Sprintf(config.FormatCompleted, m.title), map[string]any{"Title": m.title})
	case m.complete:
		return m.msgOr(config.TKeyCompletedPlain, config.FallbackCompleted, nil)
	case m.typ == engine.Lifespan:
		return m.msgOr(config.TKeyTitleLifespan, config.FallbackLifespanTitle, nil)
	}
	return m.title
}

func (m Model) units() string {
	values := []struct {
		n    int
		key  string
		name string
	}{
		{m.remaining.Years, config.TKeyUnitYears, "Years"},
		{m.remaining.Months, config.TKeyUnitMonths, "Months"},
		{m.remaining.Days, config.TKeyUnitDays, "Days"},
		{m.remaining.Hours, config.TKeyUnitHours, "Hours"},
		{m.remaining.Minutes, config.TKeyUnitMinutes, "Minutes"},
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, unitStyle.Render(fmt.Sprintf(config.FormatUnit, v.n))+" "+m.msgOr(v.key, v.name, nil))
	}
	return strings.Join(parts, "  ")
}

// grid lays the squares out for the terminal's aspect ratio, filling rows left to right.
func (m Model) grid() string {
	if m.total <= 0 {
		return ""
	}

	aspect := 1.0
	if m.width > 0 && m.height > chromeHeight {
		aspect = float64(m.width/cellWidth) / float64(m.height-chromeHeight)
	}
	layout := engine.Layout(m.total, aspect)

	var b strings.Builder
	for row := 0; row < layout.Rows; row++ {
		for col := 0; col < layout.Columns; col++ {
			i := row*layout.Columns + col
			if i >= m.total {
				break
			}
			if i < m.elapsed {
				b.WriteString(filledStyle.Render(glyphFilled))
			} else {
				b.WriteString(emptyStyle.Render(glyphEmpty))
			}
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) msgOr(key, fallback string, data map[string]any) string {
	if m.translate == nil {
		return fallback
	}
	if msg := m.translate(key, data); msg != key {
		return msg
	}
	return fallback
}

// Run shows the countdown resolved from resolver until the user quits or ctx is cancelled.
// pub, when not nil, receives the calendar feed like the windowed app.
func Run(ctx context.Context, resolver *engine.Resolver, clock engine.Clock, pub engine.Publisher, translate Translate) error {
	var ctrl *engine.Controller
	load := func(ctx context.Context) error {
		_, err := ctrl.Load(ctx)
		return err
	}

	p := tea.NewProgram(NewModel(ctx, load, translate), tea.WithAltScreen(), tea.WithContext(ctx))

	ctrl = engine.NewController(resolver, clock, engine.NewTimerScheduler(config.TerminalFrameInterval), NewPresenter(p.Send))
	if pub != nil {
		ctrl.Publisher = pub
	}
	defer ctrl.Stop()

	slog.Info(config.MsgTerminalStart,
		config.LogKeyComponent, config.CompTUI,
		config.LogKeyInterval, config.TerminalFrameInterval,
	)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("%s: %w", config.ErrTerminalFailed, err)
	}
	return nil
}
