package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/omg-food/internal/event"
)

var (
	tableDateLayouts = []string{
		"Monday, January 2, 2006",
		"Mon, Jan 2, 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"1/2/2006",
		"Monday, January 2",
		"January 2",
		"Jan 2",
	}
	tableTimeLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM"}

	// Every date layout followed by every time layout
	tableLayouts = combineLayouts(tableDateLayouts, tableTimeLayouts)
)

func combineLayouts(dates, times []string) []string {
	out := make([]string, 0, len(dates)*len(times))
	for _, d := range dates {
		for _, t := range times {
			out = append(out, d+" "+t)
		}
	}
	return out
}

// SeminarTable extracts events from a tabular listing such as a seminar
// series page. Each row holds date, time and title cells, then an optional
// location cell. The title may or may not be a hyperlink.
type SeminarTable struct {
	page Page
	env  Env
}

// NewSeminarTable creates an extractor for a seminar table page
func NewSeminarTable(page Page, env Env) *SeminarTable {
	return &SeminarTable{page: page, env: env}
}

// Name returns the source name
func (s *SeminarTable) Name() string {
	return s.page.Name
}

// Extract fetches the table page and returns its food events
func (s *SeminarTable) Extract(ctx context.Context, affiliation string) ([]*event.Event, error) {
	doc, err := s.page.document(ctx)
	if err != nil {
		return nil, err
	}
	return s.parseEvents(doc, affiliation), nil
}

func (s *SeminarTable) parseEvents(doc *goquery.Document, affiliation string) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// Header row
			return
		}
		if cells.Length() < 3 {
			s.env.skip(s.Name(), i, &FieldError{Field: "title"})
			return
		}

		dateText := event.CleanText(cells.Eq(0).Text())
		timeText := startOfRange(event.CleanText(cells.Eq(1).Text()))
		if field := firstEmpty("date", dateText, "time", timeText); field != "" {
			s.env.skip(s.Name(), i, &FieldError{Field: field})
			return
		}

		start, err := s.env.Normalizer.Parse(dateText+" "+timeText, tableLayouts...)
		if err != nil {
			s.env.skip(s.Name(), i, err)
			return
		}

		titleCell := cells.Eq(2)
		title := event.CleanText(titleCell.Text())
		if title == "" {
			s.env.skip(s.Name(), i, &FieldError{Field: "title"})
			return
		}

		if !s.env.Rule.IsFoodEvent(title, start) {
			return
		}

		// Plain-text titles have no detail page
		link := ""
		if anchor := titleCell.Find("a[href]").First(); anchor.Length() > 0 {
			href, _ := anchor.Attr("href")
			link = s.page.link(href)
		}

		location := ""
		if cells.Length() > 3 {
			location = cells.Eq(3).Text()
		}

		events = append(events, event.NewEvent(title, start, location, link, affiliation))
	})

	return events
}
