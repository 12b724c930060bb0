package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/life-countdown/internal/config"
)

// BuildCalendar renders cfg as an iCalendar feed holding a single all-day event
// that spans the countdown window, with a reminder when it ends.
func BuildCalendar(cfg Configuration, now time.Time, summary string) ([]byte, error) {
	// Without an end date there is nothing to put on a calendar. Serve a minimal
	// valid VCALENDAR so subscribed clients do not flag the feed as broken.
	if cfg.EndDate.IsZero() {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	cal.Children = append(cal.Children, countdownEvent(cfg, now, summary).Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// countdownEvent builds the all-day VEVENT spanning the countdown window,
// with a display alarm when the end date is reached.
func countdownEvent(cfg Configuration, now time.Time, summary string) *ical.Event {
	// 1. Identity and timestamps.
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, configurationUID(cfg))
	event.Props.SetText(config.PropSummary, summary)

	stamp := ical.NewProp(config.PropDTStamp)
	stamp.SetDateTime(now.UTC())
	event.Props.Set(stamp)

	// 2. Date range. A malformed record without a start still gets a one-day event on the end date.
	start := cfg.StartDate
	if start.IsZero() || !start.Before(cfg.EndDate) {
		start = cfg.EndDate
	}
	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDate(start)
	event.Props.Set(dtStart)

	end := cfg.EndDate
	if !dateOnly(start).Before(dateOnly(end)) {
		end = start.AddDate(0, 0, 1)
	}
	dtEnd := ical.NewProp(config.PropDTEnd)
	dtEnd.SetDate(end)
	event.Props.Set(dtEnd)

	// 3. Reminder at the end of the window.
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, summary)
	trigger := ical.NewProp(config.PropTrigger)
	trigger.Value = config.ICalTrigger
	trigger.Params.Set(config.ICalParamRelated, config.ICalRelatedEnd)
	alarm.Props.Set(trigger)
	event.Children = append(event.Children, alarm)

	return event
}

// configurationUID is stable for a given configuration so calendar clients update the event in place.
func configurationUID(cfg Configuration) string {
	input := fmt.Sprintf(config.FormatHashInput, cfg.Type, toMillis(cfg.StartDate), toMillis(cfg.EndDate), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}

// dateOnly keeps the calendar day of t, in its own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
