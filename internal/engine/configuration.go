package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
)

// Type selects how a countdown is derived.
type Type string

const (
	Lifespan Type = config.TypeLifespan
	Event    Type = config.TypeEvent
)

// Configuration is the resolved countdown: the window it counts through and the number of grid cells.
type Configuration struct {
	Type      Type
	StartDate time.Time // Zero means unset; progress then stays at zero.
	EndDate   time.Time
	Title     string // Empty for lifespan countdowns.

	// TotalSquares is the number of grid cells. Non-positive values render an empty
	// grid and complete the countdown on the first tick.
	TotalSquares int
}

// Squares returns TotalSquares clamped to zero.
func (c Configuration) Squares() int {
	if c.TotalSquares < 0 {
		return 0
	}
	return c.TotalSquares
}

// record is the persisted form: millisecond instants, "dob" for lifespan records,
// and an optional square count.
type record struct {
	Type         string `json:"type"`
	DOB          int64  `json:"dob,omitempty"`
	Title        string `json:"title,omitempty"`
	StartDate    int64  `json:"startDate,omitempty"`
	EndDate      int64  `json:"endDate,omitempty"`
	TotalSquares *int   `json:"totalSquares,omitempty"`
}

// encodeConfiguration serializes cfg into the persisted record format.
func encodeConfiguration(cfg Configuration) (string, error) {
	squares := cfg.TotalSquares
	rec := record{
		Type:         string(cfg.Type),
		TotalSquares: &squares,
	}

	switch cfg.Type {
	case Lifespan:
		rec.DOB = toMillis(cfg.StartDate)
	case Event:
		rec.Title = cfg.Title
		rec.StartDate = toMillis(cfg.StartDate)
		rec.EndDate = toMillis(cfg.EndDate)
	default:
		return "", fmt.Errorf("%s: %q", config.ErrUnknownType, cfg.Type)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrRecordEncode, err)
	}
	return string(data), nil
}

// decodeConfiguration maps a persisted record back to a Configuration.
// Lifespan end dates are always re-derived from the date of birth.
func decodeConfiguration(data string) (Configuration, error) {
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return Configuration{}, fmt.Errorf("%s: %w", config.ErrRecordDecode, err)
	}

	squares := config.DefaultSquares
	if rec.TotalSquares != nil {
		squares = *rec.TotalSquares
	}

	switch Type(rec.Type) {
	case Lifespan:
		start := fromMillis(rec.DOB)
		cfg := Configuration{Type: Lifespan, StartDate: start, TotalSquares: squares}
		if !start.IsZero() {
			cfg.EndDate = start.Add(config.LifespanLength)
		}
		return cfg, nil
	case Event:
		return Configuration{
			Type:         Event,
			Title:        rec.Title,
			StartDate:    fromMillis(rec.StartDate),
			EndDate:      fromMillis(rec.EndDate),
			TotalSquares: squares,
		}, nil
	default:
		return Configuration{}, errors.New(config.ErrUnknownType + ": " + rec.Type)
	}
}

// toMillis encodes unset instants as 0.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// fromMillis treats 0 as unset.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
