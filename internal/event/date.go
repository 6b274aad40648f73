package event

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the layout used to render event times in reports,
// e.g. "Mar 14 12:30PM". It carries no year.
const DisplayLayout = "Jan 02 03:04PM"

// Layouts accepted for ISO 8601 values coming from calendar APIs
const (
	isoDateTimeLayout = "2006-01-02T15:04:05"
	isoDateLayout     = "2006-01-02"
)

// ParseError reports that a time text matched none of the candidate layouts
type ParseError struct {
	Text    string
	Layouts []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse time %q (tried %s)", e.Text, strings.Join(e.Layouts, ", "))
}

// Normalizer turns source time text into fully-resolved timestamps.
// Text without a year is assigned ReferenceYear, even when that places the
// event in the past (a January event seen in December stays in this year).
type Normalizer struct {
	ReferenceYear int
	Location      *time.Location
}

// NewNormalizer creates a Normalizer for a run that started at runStart.
// The reference year and location are taken from runStart.
func NewNormalizer(runStart time.Time) *Normalizer {
	return &Normalizer{
		ReferenceYear: runStart.Year(),
		Location:      runStart.Location(),
	}
}

// Zone returns the location times are resolved in
func (n *Normalizer) Zone() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Parse tries each layout in order and returns the first successful result.
// Whitespace is collapsed and the text is upper-cased before matching, so
// layouts should spell the meridiem as "PM" ("12:30pm" matches "3:04PM").
// Returns a *ParseError when no layout matches.
func (n *Normalizer) Parse(text string, layouts ...string) (time.Time, error) {
	cleaned := strings.ToUpper(CleanText(text))
	if cleaned == "" || len(layouts) == 0 {
		return time.Time{}, &ParseError{Text: text, Layouts: layouts}
	}

	for _, layout := range layouts {
		t, err := time.ParseInLocation(strings.ReplaceAll(layout, "pm", "PM"), cleaned, n.Zone())
		if err != nil {
			continue
		}

		// Layout had no year component
		if t.Year() == 0 {
			dated := time.Date(n.ReferenceYear, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, n.Zone())
			// Feb 29 outside a leap year
			if dated.Month() != t.Month() || dated.Day() != t.Day() {
				continue
			}
			t = dated
		}
		return t, nil
	}

	return time.Time{}, &ParseError{Text: text, Layouts: layouts}
}

// ParseISO parses an ISO 8601 date-time ("2024-03-14T12:00:00") or date
// ("2024-03-14") value. A known fixed offset suffix such as "-04:00" is
// stripped first and the wall clock is read in the normalizer location.
// Values that still carry an offset are parsed as RFC 3339 and converted.
func (n *Normalizer) ParseISO(value, stripSuffix string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if stripSuffix != "" {
		v = strings.TrimSuffix(v, stripSuffix)
	}

	// Try local date-time
	if t, err := time.ParseInLocation(isoDateTimeLayout, v, n.Zone()); err == nil {
		return t, nil
	}

	// Try date-time with its own offset
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(n.Zone()), nil
	}

	// Try all-day date
	if t, err := time.ParseInLocation(isoDateLayout, v, n.Zone()); err == nil {
		return t, nil
	}

	return time.Time{}, &ParseError{Text: value, Layouts: []string{isoDateTimeLayout, time.RFC3339, isoDateLayout}}
}

// Format renders t with DisplayLayout
func Format(t time.Time) string {
	return t.Format(DisplayLayout)
}
