package engine

import (
	"log/slog"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
)

// CellRange is a half-open range [From, To) of grid cell indices.
type CellRange struct {
	From int
	To   int
}

// Len returns the number of cells in the range.
func (c CellRange) Len() int {
	if c.To <= c.From {
		return 0
	}
	return c.To - c.From
}

// Frame is the output of one tick. Filled holds only the cells that became
// elapsed during this tick; presenters never need to revisit earlier cells.
type Frame struct {
	Type      Type
	Title     string
	Remaining Remaining
	Elapsed   int
	Filled    CellRange
	Complete  bool

	// TotalSquares is the grid size to render. It drops to 0 once the countdown completes.
	TotalSquares int
}

// Engine drives one configuration. It owns the elapsed-cell counter, so a fresh
// Engine is built for every configuration load and the counter restarts at zero.
//
// Engine is not safe for concurrent use; Loop serializes access.
type Engine struct {
	cfg      Configuration
	elapsed  int
	complete bool
}

// NewEngine creates an engine for cfg with no elapsed cells.
func NewEngine(cfg Configuration) *Engine {
	return &Engine{cfg: cfg}
}

// Configuration returns the configuration the engine counts down.
func (e *Engine) Configuration() Configuration {
	return e.cfg
}

// Elapsed returns the number of cells filled so far.
func (e *Engine) Elapsed() int {
	return e.elapsed
}

// Complete reports whether the countdown has reached its end date or has an empty grid.
func (e *Engine) Complete() bool {
	return e.complete
}

// Tick recomputes the remaining time and the elapsed cells at now.
// Once the end date is reached, or when the grid has no squares at all, the
// engine is terminal and every later tick returns the same complete frame.
func (e *Engine) Tick(now time.Time) Frame {
	if e.complete {
		return e.completeFrame()
	}

	// 1. Terminal check: past the end date, or nothing to fill.
	total := e.cfg.Squares()
	remaining := e.cfg.EndDate.Sub(now)
	if remaining <= 0 || total == 0 {
		e.complete = true
		slog.Info(config.MsgCompleted,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyType, e.cfg.Type,
			config.LogKeyTitle, e.cfg.Title,
		)
		return e.completeFrame()
	}

	// 2. Progress: only the cells that elapsed since the last tick are reported.
	next := ElapsedCells(now, e.cfg.StartDate, e.cfg.EndDate, total)
	if next < e.elapsed {
		// Cells never un-fill, even if the clock steps backwards.
		next = e.elapsed
	}
	filled := CellRange{From: e.elapsed, To: next}
	e.elapsed = next

	return Frame{
		Type:         e.cfg.Type,
		Title:        e.cfg.Title,
		Remaining:    Decompose(remaining),
		Elapsed:      next,
		Filled:       filled,
		TotalSquares: total,
	}
}

// completeFrame is the terminal frame: no remaining time and an empty grid.
func (e *Engine) completeFrame() Frame {
	return Frame{
		Type:     e.cfg.Type,
		Title:    e.cfg.Title,
		Elapsed:  e.elapsed,
		Complete: true,
	}
}
