package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/omg-food/internal/event"
)

// "March 14 2024 12:30 PM", with an hour-only fallback
var listingLayouts = []string{
	"January 2 2006 3:04 PM",
	"January 2 2006 3 PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3 PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2 2006 3 PM",
}

// NewsListing extracts events from a news/events listing whose date element
// holds "Month DD YYYY H:MM AM/PM - H:MM AM/PM". Items whose date has no
// .hour sub-element are all-day or undated and are skipped.
type NewsListing struct {
	page Page
	env  Env
}

// NewNewsListing creates an extractor for an events listing page
func NewNewsListing(page Page, env Env) *NewsListing {
	return &NewsListing{page: page, env: env}
}

// Name returns the source name
func (n *NewsListing) Name() string {
	return n.page.Name
}

// Extract fetches the listing and returns its food events
func (n *NewsListing) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	doc, err := n.page.document(ctx)
	if err != nil {
		return nil, err
	}
	return n.parseEvents(doc, affiliation), nil
}

func (n *NewsListing) parseEvents(doc *goquery.Document, affiliation string) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find(".event-item").Each(func(i int, item *goquery.Selection) {
		date := item.Find(".event-date").First()
		if date.Find(".hour").Length() == 0 {
			n.env.skip(n.Name(), i, &FieldError{Field: "hour"})
			return
		}

		// Keep the start of "12:30 PM - 1:30 PM"
		start, err := n.env.Normalizer.Parse(startOfRange(event.CleanText(date.Text())), listingLayouts...)
		if err != nil {
			n.env.skip(n.Name(), i, err)
			return
		}

		title := text(item, ".event-title")
		if title == "" {
			n.env.skip(n.Name(), i, &FieldError{Field: "title"})
			return
		}

		if !n.env.Rule.IsFoodEvent(title, start) {
			return
		}

		href, _ := item.Find(".event-title a[href]").First().Attr("href")
		if href == "" {
			href = itemLink(item)
		}

		location := text(item, ".event-location")
		events = append(events, event.NewEvent(title, start, location, n.page.link(href), affiliation))
	})

	return events
}
