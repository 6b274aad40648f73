package gcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/omg-food/internal/scraper"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client lists calendar events through the Google Calendar API
type Client struct {
	service *calendar.Service
}

// NewClient creates a Client over an authenticated HTTP client
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return &Client{service: service}, nil
}

// ListEvents returns single events (recurrences expanded) starting between
// from and to, ordered by start time. All result pages are read.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]scraper.Record, error) {
	records := make([]scraper.Record, 0)

	call := c.service.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			records = append(records, toRecord(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	return records, nil
}

func toRecord(item *calendar.Event) scraper.Record {
	rec := scraper.Record{
		Summary:  item.Summary,
		Location: item.Location,
		HTMLLink: item.HtmlLink,
	}
	if item.Start != nil {
		// All-day events only carry a date
		rec.Start = item.Start.DateTime
		if rec.Start == "" {
			rec.Start = item.Start.Date
		}
	}
	return rec
}
