package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/pfrederiksen/omg-food/internal/event"
	"github.com/teambition/rrule-go"
)

// ICSFeed extracts events from an iCalendar feed. Recurring events are
// expanded into their occurrences inside the acceptance window, minus
// EXDATEs, with RECURRENCE-ID overrides applied.
type ICSFeed struct {
	page Page
	env  Env
}

// override is a VEVENT replacing one occurrence of a recurring event
type override struct {
	uid  string
	id   time.Time
	ev   ical.Event
	used bool
}

// NewICSFeed creates an extractor for an iCalendar feed
func NewICSFeed(page Page, env Env) *ICSFeed {
	return &ICSFeed{page: page, env: env}
}

// Name returns the source name
func (f *ICSFeed) Name() string {
	return f.page.Name
}

// Extract fetches the feed and returns its food events
func (f *ICSFeed) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	body, err := f.page.Fetcher.Fetch(ctx, f.page.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return f.parseFeed(body, affiliation)
}

func (f *ICSFeed) parseFeed(r io.Reader, affiliation string) ([]*event.Event, error) {
	components := make([]ical.Event, 0)
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing iCalendar: %w", err)
		}
		components = append(components, cal.Events()...)
	}

	bases := make([]ical.Event, 0, len(components))
	baseByUID := make(map[string]ical.Event)
	overrides := make([]*override, 0)
	byUID := make(map[string][]*override)

	for i, ev := range components {
		uid := propText(ev, ical.PropUID)
		prop := ev.Props.Get(ical.PropRecurrenceID)
		if prop == nil {
			bases = append(bases, ev)
			if uid != "" {
				baseByUID[uid] = ev
			}
			continue
		}

		id, err := prop.DateTime(f.env.Normalizer.Zone())
		if err != nil || uid == "" {
			f.env.skip(f.Name(), i, &FieldError{Field: "recurrence-id"})
			continue
		}
		ov := &override{uid: uid, id: id, ev: ev}
		overrides = append(overrides, ov)
		byUID[uid] = append(byUID[uid], ov)
	}

	events := make([]*event.Event, 0)
	for i, ev := range bases {
		found, err := f.convert(ev, byUID[propText(ev, ical.PropUID)], affiliation)
		if err != nil {
			f.env.skip(f.Name(), i, err)
		}
		events = append(events, found...)
	}

	// An instance moved into the window from an occurrence outside it
	for i, ov := range overrides {
		if ov.used {
			continue
		}
		base, ok := baseByUID[ov.uid]
		if !ok {
			base = ov.ev
		}
		evt, err := f.instance(ov.ev, base, affiliation)
		if err != nil {
			f.env.skip(f.Name(), i, err)
			continue
		}
		if evt != nil {
			events = append(events, evt)
		}
	}

	return events, nil
}

// convert returns one event per occurrence that passes the food rule.
// Occurrences with an override take the override's fields instead.
func (f *ICSFeed) convert(ev ical.Event, overrides []*override, affiliation string) ([]*event.Event, error) {
	title := propText(ev, ical.PropSummary)
	if title == "" {
		return nil, &FieldError{Field: "summary"}
	}
	if cancelled(ev) {
		return nil, nil
	}

	start, err := ev.DateTimeStart(f.env.Normalizer.Zone())
	if err != nil || start.IsZero() {
		return nil, &FieldError{Field: "dtstart"}
	}

	starts, err := f.occurrences(ev, start)
	if err != nil {
		return nil, err
	}

	location := propText(ev, ical.PropLocation)
	link := propText(ev, ical.PropURL)

	out := make([]*event.Event, 0, len(starts))
	for _, s := range starts {
		if ov := matchOverride(overrides, s); ov != nil {
			ov.used = true
			evt, err := f.instance(ov.ev, ev, affiliation)
			if err != nil {
				return out, err
			}
			if evt != nil {
				out = append(out, evt)
			}
			continue
		}

		if evt := f.build(title, s, location, link, affiliation); evt != nil {
			out = append(out, evt)
		}
	}
	return out, nil
}

// instance converts an override, taking missing fields from its base event.
// Cancelled instances yield nil.
func (f *ICSFeed) instance(ov, base ical.Event, affiliation string) (*event.Event, error) {
	if cancelled(ov) {
		return nil, nil
	}

	start, err := ov.DateTimeStart(f.env.Normalizer.Zone())
	if err != nil || start.IsZero() {
		return nil, &FieldError{Field: "dtstart"}
	}

	title := firstText(ov, base, ical.PropSummary)
	if title == "" {
		return nil, &FieldError{Field: "summary"}
	}

	location := firstText(ov, base, ical.PropLocation)
	link := firstText(ov, base, ical.PropURL)
	return f.build(title, start, location, link, affiliation), nil
}

// build moves start into the configured zone and applies the food rule
func (f *ICSFeed) build(title string, start time.Time, location, link, affiliation string) *event.Event {
	local := start.In(f.env.Normalizer.Zone())
	if !f.env.Rule.IsFoodEvent(title, local) {
		return nil
	}
	return event.NewEvent(title, local, location, link, affiliation)
}

// occurrences expands an RRULE over the acceptance window in the zone of
// DTSTART, dropping EXDATEs. Events without a rule have the single start time.
func (f *ICSFeed) occurrences(ev ical.Event, start time.Time) ([]time.Time, error) {
	prop := ev.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return []time.Time{start}, nil
	}

	rule, err := rrule.StrToRRule(prop.Value)
	if err != nil {
		return nil, fmt.Errorf("parsing RRULE %q: %w", prop.Value, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exceptionDates(ev, f.env.Normalizer.Zone()) {
		set.ExDate(ex.In(start.Location()))
	}

	windowStart := f.env.Rule.WindowStart.In(start.Location())
	windowEnd := f.env.Rule.WindowEnd.In(start.Location())
	return set.Between(windowStart, windowEnd, true), nil
}

// exceptionDates reads every EXDATE value, including comma-separated lists
func exceptionDates(ev ical.Event, zone *time.Location) []time.Time {
	dates := make([]time.Time, 0)
	for _, prop := range ev.Props.Values(ical.PropExceptionDates) {
		for _, value := range strings.Split(prop.Value, ",") {
			single := prop
			single.Value = strings.TrimSpace(value)
			if t, err := single.DateTime(zone); err == nil {
				dates = append(dates, t)
			}
		}
	}
	return dates
}

func matchOverride(overrides []*override, occurrence time.Time) *override {
	for _, ov := range overrides {
		if ov.id.Equal(occurrence) {
			return ov
		}
	}
	return nil
}

func cancelled(ev ical.Event) bool {
	return strings.EqualFold(propText(ev, ical.PropStatus), "CANCELLED")
}

func firstText(primary, fallback ical.Event, name string) string {
	if v := propText(primary, name); v != "" {
		return v
	}
	return propText(fallback, name)
}

func propText(ev ical.Event, name string) string {
	prop := ev.Props.Get(name)
	if prop == nil {
		return ""
	}
	value, err := prop.Text()
	if err != nil {
		value = prop.Value
	}
	return event.CleanText(value)
}
