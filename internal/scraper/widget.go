package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/omg-food/internal/event"
)

// Assembled from month, day and a whitespace-free time ("Mar 14 12:30pm")
var widgetLayouts = []string{
	"Jan 2 3:04PM",
	"Jan 2 3PM",
	"January 2 3:04PM",
	"January 2 3PM",
}

// WidgetCalendar extracts events from a third-party time.ly widget page,
// where month, day and time of each .timely-event sit in separate elements.
type WidgetCalendar struct {
	page Page
	env  Env
}

// NewWidgetCalendar creates an extractor for a time.ly widget calendar
func NewWidgetCalendar(page Page, env Env) *WidgetCalendar {
	return &WidgetCalendar{page: page, env: env}
}

// Name returns the source name
func (c *WidgetCalendar) Name() string {
	return c.page.Name
}

// Extract fetches the widget page and returns its food events
func (c *WidgetCalendar) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	doc, err := c.page.document(ctx)
	if err != nil {
		return nil, err
	}
	return c.parseEvents(doc, affiliation), nil
}

func (c *WidgetCalendar) parseEvents(doc *goquery.Document, affiliation string) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find(".timely-event").Each(func(i int, item *goquery.Selection) {
		month := text(item, ".timely-month")
		day := text(item, ".timely-day")
		// "12:30 pm" -> "12:30pm"
		clock := strings.Join(strings.Fields(item.Find(".timely-time").First().Text()), "")

		if field := firstEmpty("month", month, "day", day, "time", clock); field != "" {
			c.env.skip(c.Name(), i, &FieldError{Field: field})
			return
		}

		start, err := c.env.Normalizer.Parse(month+" "+day+" "+clock, widgetLayouts...)
		if err != nil {
			c.env.skip(c.Name(), i, err)
			return
		}

		title := text(item, ".timely-title")
		if title == "" {
			c.env.skip(c.Name(), i, &FieldError{Field: "title"})
			return
		}

		if !c.env.Rule.IsFoodEvent(title, start) {
			return
		}

		location := text(item, ".timely-venue")
		events = append(events, event.NewEvent(title, start, location, c.page.link(itemLink(item)), affiliation))
	})

	return events
}

// firstEmpty takes name/value pairs and returns the name of the first empty value
func firstEmpty(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return pairs[i]
		}
	}
	return ""
}
