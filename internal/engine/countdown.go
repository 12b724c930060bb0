package engine

import (
	"math"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
)

// Remaining is an approximate breakdown of the time left.
// Years and months use average lengths (365.25 and 30.44 days), not calendar arithmetic.
type Remaining struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
}

// Duration sums the fields back into a duration. It undershoots the decomposed
// input by less than one minute.
func (r Remaining) Duration() time.Duration {
	return time.Duration(r.Years)*config.AvgYear +
		time.Duration(r.Months)*config.AvgMonth +
		time.Duration(r.Days)*config.Day +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute
}

// Decompose splits d into years, months, days, hours and minutes. Each field is
// the floor of what is left after subtracting the larger units.
func Decompose(d time.Duration) Remaining {
	if d <= 0 {
		return Remaining{}
	}

	var r Remaining
	units := []struct {
		size  time.Duration
		field *int
	}{
		{config.AvgYear, &r.Years},
		{config.AvgMonth, &r.Months},
		{config.Day, &r.Days},
		{time.Hour, &r.Hours},
		{time.Minute, &r.Minutes},
	}
	for _, u := range units {
		n := d / u.size
		*u.field = int(n)
		d -= n * u.size
	}
	return r
}

// ElapsedCells returns how many of total cells have been passed at now,
// clamped to [0, total]. An unset start or an empty window yields 0.
func ElapsedCells(now, start, end time.Time, total int) int {
	if start.IsZero() || total <= 0 {
		return 0
	}
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}

	ratio := float64(now.Sub(start)) / float64(span)
	cells := math.Floor(ratio * float64(total))
	switch {
	case cells <= 0:
		return 0
	case cells >= float64(total):
		return total
	}
	return int(cells)
}

// GridLayout is the row and column count of a rendered grid.
type GridLayout struct {
	Columns int
	Rows    int
}

// Layout picks a column count that approximates the viewport aspect ratio (width / height).
func Layout(total int, aspect float64) GridLayout {
	if total <= 0 {
		return GridLayout{}
	}
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}

	columns := int(math.Ceil(math.Sqrt(float64(total) * aspect)))
	if columns < 1 {
		columns = 1
	}
	if columns > total {
		columns = total
	}
	return GridLayout{
		Columns: columns,
		Rows:    (total + columns - 1) / columns,
	}
}
