package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/omg-food/internal/event"
)

// Record is a calendar API event reduced to the fields extraction reads.
// Empty strings mean the API omitted the field.
type Record struct {
	Summary  string
	Location string
	HTMLLink string
	// Start is an RFC 3339 date-time or, for all-day events, a date
	Start string
}

// field returns value or a *FieldError when the API omitted it
func (r Record) field(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", &FieldError{Field: name}
	}
	return value, nil
}

// EventLister lists single (recurrence-expanded) events of a calendar
// between from and to, ordered by start time.
type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Record, error)
}

// CalendarAPI extracts events from an external calendar API
type CalendarAPI struct {
	name       string
	calendarID string
	// offsetSuffix is a fixed UTC offset the calendar appends to every
	// start time ("-04:00"); it is removed before parsing.
	offsetSuffix string
	lister       EventLister
	env          Env
}

// NewCalendarAPI creates an extractor for one calendar
func NewCalendarAPI(name, calendarID, offsetSuffix string, lister EventLister, env Env) *CalendarAPI {
	return &CalendarAPI{
		name:         name,
		calendarID:   calendarID,
		offsetSuffix: offsetSuffix,
		lister:       lister,
		env:          env,
	}
}

// Name returns the source name
func (c *CalendarAPI) Name() string {
	return c.name
}

// Extract lists the calendar over the acceptance window and returns its food events
func (c *CalendarAPI) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	if c.lister == nil {
		return nil, fmt.Errorf("calendar %s: no authenticated client", c.calendarID)
	}

	records, err := c.lister.ListEvents(ctx, c.calendarID, c.env.Rule.WindowStart, c.env.Rule.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("listing calendar %s: %w", c.calendarID, err)
	}

	return c.convert(records, affiliation), nil
}

func (c *CalendarAPI) convert(records []Record, affiliation string) []*event.Event {
	events := make([]*event.Event, 0)

	for i, rec := range records {
		evt, err := c.convertOne(rec, affiliation)
		if err != nil {
			c.env.skip(c.name, i, err)
			continue
		}
		if evt != nil {
			events = append(events, evt)
		}
	}

	return events
}

// convertOne returns nil, nil for records that do not pass the food rule
func (c *CalendarAPI) convertOne(rec Record, affiliation string) (*event.Event, error) {
	title, err := rec.field("title", rec.Summary)
	if err != nil {
		return nil, err
	}
	location, err := rec.field("location", rec.Location)
	if err != nil {
		return nil, err
	}
	link, err := rec.field("link", rec.HTMLLink)
	if err != nil {
		return nil, err
	}
	rawStart, err := rec.field("start", rec.Start)
	if err != nil {
		return nil, err
	}

	start, err := c.env.Normalizer.ParseISO(rawStart, c.offsetSuffix)
	if err != nil {
		return nil, err
	}

	if !c.env.Rule.IsFoodEvent(title, start) {
		return nil, nil
	}

	return event.NewEvent(title, start, location, link, affiliation), nil
}
