package event

import (
	"strings"
	"time"
)

// Event represents a campus event that probably has free food
type Event struct {
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	Location    string    `json:"location,omitempty"`
	Link        string    `json:"link,omitempty"`
	Affiliation string    `json:"affiliation"`
	Source      string    `json:"source,omitempty"` // Name of the extractor that produced the event
}

// NewEvent creates a new Event with whitespace-normalized text fields
func NewEvent(title string, start time.Time, location, link, affiliation string) *Event {
	return &Event{
		Title:       CleanText(title),
		StartTime:   start,
		Location:    CleanText(location),
		Link:        strings.TrimSpace(link),
		Affiliation: affiliation,
	}
}

// WithSource returns a copy of the event attributed to the named source
func (e *Event) WithSource(source string) *Event {
	cp := *e
	cp.Source = source
	return &cp
}

// CleanText collapses runs of whitespace (including newlines from HTML
// indentation) into single spaces and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
