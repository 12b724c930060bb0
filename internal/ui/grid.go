package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

const unitCount = 5

var unitKeys = [unitCount]string{
	config.TKeyUnitYears,
	config.TKeyUnitMonths,
	config.TKeyUnitDays,
	config.TKeyUnitHours,
	config.TKeyUnitMinutes,
}

var (
	colorEmpty  = rgba(config.ColorSquareEmpty)
	colorFilled = rgba(config.ColorSquareFilled)
)

func rgba(hex uint32) color.NRGBA {
	return color.NRGBA{R: uint8(hex >> 24), G: uint8(hex >> 16), B: uint8(hex >> 8), A: uint8(hex)}
}

// squareLayout places its objects on the grid engine.Layout picks for the
// container's aspect ratio, filling rows left to right.
type squareLayout struct{}

func (squareLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	n := len(objects)
	if n == 0 || size.Width <= 0 || size.Height <= 0 {
		return
	}

	g := engine.Layout(n, float64(size.Width)/float64(size.Height))
	pad := float32(config.SquarePadding)
	cellW := max((size.Width-pad*float32(g.Columns-1))/float32(g.Columns), 0)
	cellH := max((size.Height-pad*float32(g.Rows-1))/float32(g.Rows), 0)

	for i, o := range objects {
		col, row := i%g.Columns, i/g.Columns
		o.Move(fyne.NewPos(float32(col)*(cellW+pad), float32(row)*(cellH+pad)))
		o.Resize(fyne.NewSize(cellW, cellH))
	}
}

func (squareLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(0, 0)
}

// GridPresenter renders engine frames as a title, a remaining-time row and a
// grid of squares. It implements engine.Presenter.
//
// Reset and Render may be called from any goroutine; the widget updates are
// queued with fyne.Do, which keeps them in call order.
type GridPresenter struct {
	tr func() *Translator

	Title   *widget.Label
	Values  [unitCount]*widget.Label
	Names   [unitCount]*widget.Label
	Grid    *fyne.Container
	Content fyne.CanvasObject

	unitsRow *fyne.Container
	squares  []*canvas.Rectangle
	complete bool
}

// NewGridPresenter builds the widgets. tr is consulted on every title change
// so a language switch applies on the next reset.
func NewGridPresenter(tr func() *Translator) *GridPresenter {
	p := &GridPresenter{
		tr:    tr,
		Title: widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		Grid:  container.New(squareLayout{}),
	}

	cells := make([]fyne.CanvasObject, 0, unitCount)
	for i := range unitCount {
		p.Values[i] = widget.NewLabelWithStyle(fmt.Sprintf(config.FormatUnit, 0), fyne.TextAlignCenter, fyne.TextStyle{Monospace: true})
		p.Names[i] = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
		cells = append(cells, container.NewVBox(p.Values[i], p.Names[i]))
	}
	p.unitsRow = container.NewGridWithColumns(unitCount, cells...)
	p.Content = container.NewBorder(container.NewVBox(p.Title, p.unitsRow), nil, nil, nil, p.Grid)
	p.applyUnitNames()
	return p
}

// Reset implements engine.Presenter.
func (p *GridPresenter) Reset(cfg engine.Configuration) {
	fyne.Do(func() { p.reset(cfg) })
}

// Render implements engine.Presenter.
func (p *GridPresenter) Render(frame engine.Frame) {
	fyne.Do(func() { p.render(frame) })
}

func (p *GridPresenter) reset(cfg engine.Configuration) {
	total := cfg.Squares()
	p.complete = false
	p.squares = make([]*canvas.Rectangle, total)
	objects := make([]fyne.CanvasObject, total)
	for i := range p.squares {
		r := canvas.NewRectangle(colorEmpty)
		p.squares[i] = r
		objects[i] = r
	}
	p.Grid.Objects = objects
	p.Grid.Refresh()

	p.applyUnitNames()
	for _, v := range p.Values {
		v.SetText(fmt.Sprintf(config.FormatUnit, 0))
	}
	p.unitsRow.Show()
	p.Title.SetText(p.titleFor(cfg.Type, cfg.Title, false))
}

func (p *GridPresenter) render(frame engine.Frame) {
	if frame.Complete {
		if p.complete {
			return
		}
		p.complete = true
		p.squares = nil
		p.Grid.Objects = nil
		p.Grid.Refresh()
		p.unitsRow.Hide()
		p.Title.SetText(p.titleFor(frame.Type, frame.Title, true))
		return
	}

	// Only the cells that elapsed during this tick are repainted.
	for i := frame.Filled.From; i < frame.Filled.To && i < len(p.squares); i++ {
		if i < 0 {
			continue
		}
		p.squares[i].FillColor = colorFilled
		p.squares[i].Refresh()
	}

	values := [unitCount]int{
		frame.Remaining.Years,
		frame.Remaining.Months,
		frame.Remaining.Days,
		frame.Remaining.Hours,
		frame.Remaining.Minutes,
	}
	for i, v := range values {
		text := fmt.Sprintf(config.FormatUnit, v)
		if p.Values[i].Text != text {
			p.Values[i].SetText(text)
		}
	}
}

func (p *GridPresenter) applyUnitNames() {
	tr := p.translator()
	for i, key := range unitKeys {
		p.Names[i].SetText(tr.Msg(key))
	}
}

// titleFor mirrors the headline rules: lifespan countdowns have a fixed
// heading and a completed countdown announces itself.
func (p *GridPresenter) titleFor(typ engine.Type, title string, complete bool) string {
	tr := p.translator()
	switch {
	case complete && title != "":
		return tr.MsgOr(config.TKeyCompleted, fmt.Sprintf(config.FormatCompleted, title), map[string]any{"Title": title})
	case complete:
		return tr.MsgOr(config.TKeyCompletedPlain, config.FallbackCompleted, nil)
	case typ == engine.Lifespan:
		return tr.MsgOr(config.TKeyTitleLifespan, config.FallbackLifespanTitle, nil)
	}
	return title
}

func (p *GridPresenter) translator() *Translator {
	if p.tr == nil {
		return &Translator{}
	}
	return p.tr()
}

// filledCount reports how many squares are painted. Used by tests.
func (p *GridPresenter) filledCount() int {
	n := 0
	for _, s := range p.squares {
		if s.FillColor == colorFilled {
			n++
		}
	}
	return n
}
