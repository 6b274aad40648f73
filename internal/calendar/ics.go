// Package calendar exports food events as an iCalendar file so the report
// can be subscribed to from a calendar application.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pfrederiksen/omg-food/internal/event"
)

const (
	// ProductID identifies omg-food as the generator of exported calendars
	ProductID = "-//omg-food//omg-food//EN"
	// DefaultDuration is used for every exported event; sources only
	// publish start times.
	DefaultDuration = time.Hour
)

// EventUID derives a stable UID from the event's identity, so re-exporting
// the same report does not create duplicates in subscribed calendars.
func EventUID(evt *event.Event) string {
	key := strings.Join([]string{evt.Title, evt.StartTime.UTC().Format(time.RFC3339), evt.Link}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@omg-food"
}

// Build creates a calendar holding one VEVENT per event. stamp becomes the
// DTSTAMP of every event.
func Build(events []*event.Event, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName("omg-food")

	for _, evt := range events {
		if evt == nil {
			continue
		}

		vevent := cal.AddEvent(EventUID(evt))
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetStartAt(evt.StartTime)
		vevent.SetEndAt(evt.StartTime.Add(DefaultDuration))
		vevent.SetSummary(evt.Title)
		vevent.SetStatus(ics.ObjectStatusConfirmed)

		if evt.Location != "" {
			vevent.SetLocation(evt.Location)
		}
		if evt.Link != "" {
			vevent.SetURL(evt.Link)
		}
		if evt.Affiliation != "" {
			vevent.SetDescription(fmt.Sprintf("Hosted by %s", evt.Affiliation))
		}
	}

	return cal
}

// GenerateICS renders events as an iCalendar document
func GenerateICS(events []*event.Event, stamp time.Time) string {
	return Build(events, stamp).Serialize()
}

// Write renders events as an iCalendar document to w
func Write(w io.Writer, events []*event.Event, stamp time.Time) error {
	if err := Build(events, stamp).SerializeTo(w); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}
