package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
)

// Store is the key-value persistence collaborator. Only config.PrefSettings is used by the resolver.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Field names a user input that failed validation.
type Field string

const (
	FieldDateOfBirth Field = config.FieldDateOfBirth
	FieldTitle       Field = config.FieldTitle
	FieldStartDate   Field = config.FieldStartDate
	FieldEndDate     Field = config.FieldEndDate
)

// ValidationError reports which fields blocked a submission.
// It is always recoverable: the active configuration is left untouched.
type ValidationError struct {
	Missing []Field
	Invalid []Field
}

// Error lists the missing fields, then the unparseable ones.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", config.ErrMissingFields, joinFields(e.Missing)))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", config.ErrInvalidDates, joinFields(e.Invalid)))
	}
	return strings.Join(parts, "; ")
}

// Fields returns every field that should be highlighted.
func (e *ValidationError) Fields() []Field {
	out := make([]Field, 0, len(e.Missing)+len(e.Invalid))
	out = append(out, e.Missing...)
	return append(out, e.Invalid...)
}

// joinFields renders field names as a comma-separated list.
func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Input is the raw content of the settings form. Dates use the YYYY-MM-DD layout.
type Input struct {
	Type        Type
	DateOfBirth string
	Title       string
	StartDate   string
	EndDate     string
}

// Resolver derives the active Configuration from user input, the store, or the year-end fallback.
type Resolver struct {
	Store Store
	Clock Clock
}

// NewResolver creates a resolver backed by store.
func NewResolver(store Store, clock Clock) *Resolver {
	return &Resolver{Store: store, Clock: clock}
}

// Resolve returns the persisted configuration, or the year-end fallback when none is usable.
// Only context cancellation is reported as an error; storage problems degrade to the fallback.
func (r *Resolver) Resolve(ctx context.Context) (Configuration, error) {
	log := slog.With(config.LogKeyComponent, config.CompResolver)

	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}

	data, ok, err := r.Store.Get(ctx, config.PrefSettings)
	if err != nil {
		if ctx.Err() != nil {
			return Configuration{}, ctx.Err()
		}
		log.Warn(config.ErrStoreRead, config.LogKeyError, err)
		ok = false
	}

	if ok {
		cfg, err := decodeConfiguration(data)
		if err == nil {
			return cfg, nil
		}
		log.Warn(config.ErrRecordDecode, config.LogKeyError, err)
	}

	log.Info(config.MsgFallbackUsed)
	return YearEnd(r.Clock.Now()), nil
}

// Build validates in and computes the configuration it describes. Nothing is persisted.
//
// Form dates are midnight in the clock's location, not UTC midnight, so a date
// shown in the settings window is the local day the countdown starts or ends.
// Text fields are trimmed before the required-field check.
func (r *Resolver) Build(in Input) (Configuration, error) {
	loc := r.Clock.Now().Location()

	switch in.Type {
	case Lifespan:
		dob := strings.TrimSpace(in.DateOfBirth)
		if dob == "" {
			return Configuration{}, &ValidationError{Missing: []Field{FieldDateOfBirth}}
		}
		start, err := time.ParseInLocation(config.DateFormatInput, dob, loc)
		if err != nil {
			return Configuration{}, &ValidationError{Invalid: []Field{FieldDateOfBirth}}
		}
		return Configuration{
			Type:         Lifespan,
			StartDate:    start,
			EndDate:      start.Add(config.LifespanLength),
			TotalSquares: config.LifespanSquares,
		}, nil

	case Event:
		title := strings.TrimSpace(in.Title)
		startText := strings.TrimSpace(in.StartDate)
		endText := strings.TrimSpace(in.EndDate)

		var missing []Field
		if title == "" {
			missing = append(missing, FieldTitle)
		}
		if startText == "" {
			missing = append(missing, FieldStartDate)
		}
		if endText == "" {
			missing = append(missing, FieldEndDate)
		}
		if len(missing) > 0 {
			return Configuration{}, &ValidationError{Missing: missing}
		}

		var invalid []Field
		start, err := time.ParseInLocation(config.DateFormatInput, startText, loc)
		if err != nil {
			invalid = append(invalid, FieldStartDate)
		}
		end, err := time.ParseInLocation(config.DateFormatInput, endText, loc)
		if err != nil {
			invalid = append(invalid, FieldEndDate)
		}
		if len(invalid) > 0 {
			return Configuration{}, &ValidationError{Invalid: invalid}
		}

		return Configuration{
			Type:         Event,
			Title:        title,
			StartDate:    start,
			EndDate:      end,
			TotalSquares: MonthSpan(start, end),
		}, nil

	default:
		return Configuration{}, fmt.Errorf("%s: %q", config.ErrUnknownType, in.Type)
	}
}

// Save persists cfg as the single active configuration, replacing any previous one.
func (r *Resolver) Save(ctx context.Context, cfg Configuration) error {
	data, err := encodeConfiguration(cfg)
	if err != nil {
		return err
	}
	if err := r.Store.Set(ctx, config.PrefSettings, data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	slog.Info(config.MsgSettingsSaved,
		config.LogKeyComponent, config.CompResolver,
		config.LogKeyType, cfg.Type,
		config.LogKeySquares, cfg.TotalSquares,
	)
	return nil
}

// Submit validates and persists a user submission.
func (r *Resolver) Submit(ctx context.Context, in Input) (Configuration, error) {
	cfg, err := r.Build(in)
	if err != nil {
		return Configuration{}, err
	}
	if err := r.Save(ctx, cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// MonthSpan counts whole calendar months between start and end, ignoring the day of month.
// It is negative when end precedes start.
func MonthSpan(start, end time.Time) int {
	return (end.Year()-start.Year())*config.MonthsPerYear + int(end.Month()) - int(start.Month())
}

// YearEnd is the fallback countdown: January 1st of now's year to January 1st of the next one.
func YearEnd(now time.Time) Configuration {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return Configuration{
		Type:         Event,
		Title:        config.YearEndTitle,
		StartDate:    start,
		EndDate:      start.AddDate(1, 0, 0),
		TotalSquares: config.YearEndSquares,
	}
}

// DefaultInput pre-populates the settings form with the year-end countdown.
func DefaultInput(now time.Time) Input {
	cfg := YearEnd(now)
	return Input{
		Type:      Event,
		Title:     cfg.Title,
		StartDate: cfg.StartDate.Format(config.DateFormatInput),
		EndDate:   cfg.EndDate.Format(config.DateFormatInput),
	}
}

// InputFrom renders cfg back into form values so the settings window shows the active countdown.
func InputFrom(cfg Configuration, now time.Time) Input {
	in := DefaultInput(now)
	in.Type = cfg.Type
	switch cfg.Type {
	case Lifespan:
		if !cfg.StartDate.IsZero() {
			in.DateOfBirth = cfg.StartDate.Format(config.DateFormatInput)
		}
	case Event:
		in.Title = cfg.Title
		if !cfg.StartDate.IsZero() {
			in.StartDate = cfg.StartDate.Format(config.DateFormatInput)
		}
		if !cfg.EndDate.IsZero() {
			in.EndDate = cfg.EndDate.Format(config.DateFormatInput)
		}
	}
	return in
}
