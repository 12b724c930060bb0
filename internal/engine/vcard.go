package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/life-countdown/internal/config"
)

// Contact is a birth date found in a vCard stream.
type Contact struct {
	Name        string
	DateOfBirth time.Time
}

// ImportBirthDate scans a vCard stream for a date of birth usable by a lifespan countdown.
// With an empty name the first card carrying a full BDAY (year included) wins;
// otherwise the card whose FN or N matches name, case-insensitively.
func ImportBirthDate(r io.Reader, name string) (Contact, error) {
	log := slog.With(config.LogKeyComponent, config.CompEngine)
	want := strings.TrimSpace(name)

	decoder := vcard.NewDecoder(r)
	for {
		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			continue
		}

		cardName := contactName(card)
		if want != "" && !strings.EqualFold(strings.TrimSpace(cardName), want) {
			continue
		}

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}
		dob, err := parseBirthDate(bday.Value)
		if err != nil {
			log.Debug(config.MsgSkippedDate, config.LogKeyValue, bday.Value)
			continue
		}

		log.Info(config.MsgBirthImported, config.LogKeyName, cardName)
		return Contact{Name: cardName, DateOfBirth: dob}, nil
	}

	return Contact{}, errors.New(config.ErrNoBirthDate)
}

// ImportBirthDateFromURL downloads a vCard collection and scans it like ImportBirthDate.
func ImportBirthDateFromURL(ctx context.Context, fetcher VCardFetcher, src Source, name string) (Contact, error) {
	if src.URL == "" {
		return Contact{}, errors.New(config.ErrContactsURLEmpty)
	}
	if fetcher == nil {
		return Contact{}, errors.New(config.ErrFetcherMissing)
	}

	data, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return Contact{}, err
	}
	return ImportBirthDate(bytes.NewReader(data), name)
}

// contactName prefers the formatted name (FN) over the structured one (N).
func contactName(card vcard.Card) string {
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		return fn.Value
	}
	if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		return n.Value
	}
	return config.FallbackName
}

// parseBirthDate accepts the vCard date layouts that include a year.
// Truncated dates (--MM-DD) are rejected: a lifespan needs the year.
func parseBirthDate(value string) (time.Time, error) {
	layouts := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}
