package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/omg-food/internal/event"
)

// Time text like "Mar 14 12:30pm", or "Mar 14 12pm" on the hour
var departmentLayouts = []string{"Jan 2 3:04PM", "Jan 2 3PM"}

// DepartmentCalendar extracts events from a departmental calendar page
// (e.g. https://www.cs.cmu.edu/calendar) where each event is an
// a.event__link-wrapper holding a label, a <time>, a title and location fields.
type DepartmentCalendar struct {
	page Page
	env  Env
}

// NewDepartmentCalendar creates an extractor for a departmental calendar
func NewDepartmentCalendar(page Page, env Env) *DepartmentCalendar {
	return &DepartmentCalendar{page: page, env: env}
}

// Name returns the source name
func (d *DepartmentCalendar) Name() string {
	return d.page.Name
}

// Extract fetches the calendar and returns its food events
func (d *DepartmentCalendar) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	doc, err := d.page.document(ctx)
	if err != nil {
		return nil, err
	}
	return d.parseEvents(doc, affiliation), nil
}

func (d *DepartmentCalendar) parseEvents(doc *goquery.Document, affiliation string) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find("a.event__link-wrapper").Each(func(i int, item *goquery.Selection) {
		timeTag := item.Find("time").First()
		if timeTag.Length() == 0 {
			d.env.skip(d.Name(), i, &FieldError{Field: "time"})
			return
		}

		// The month/day and the hour are separate child nodes
		start, err := d.env.Normalizer.Parse(childText(timeTag), departmentLayouts...)
		if err != nil {
			d.env.skip(d.Name(), i, err)
			return
		}

		title := text(item, "h3.event__title")
		if title == "" {
			d.env.skip(d.Name(), i, &FieldError{Field: "title"})
			return
		}

		// The label carries the event type ("Thesis Proposal", "Seminar")
		label := text(item, "div.event__label")
		if label == "" {
			label = title
		}
		if !d.env.Rule.IsFoodEvent(label, start) {
			return
		}

		locations := make([]string, 0)
		item.Find("div.field-item").Each(func(_ int, loc *goquery.Selection) {
			if t := event.CleanText(loc.Text()); t != "" {
				locations = append(locations, t)
			}
		})

		href, _ := item.Attr("href")
		events = append(events, event.NewEvent(title, start, strings.Join(locations, " "), d.page.link(href), affiliation))
	})

	return events
}
