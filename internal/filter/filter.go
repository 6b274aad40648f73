// Package filter decides whether a campus event is likely to have free food.
//
// The decision combines a hard acceptance window with two heuristics:
//   - Time window: events before the run start or after the window end are
//     rejected before anything else is looked at
//   - Keywords: a case-insensitive substring match on the event label
//   - Lunch slot: events starting during the lunch hours
//
// Example usage:
//
//	rule := filter.NewFoodRule(time.Now(), 7*24*time.Hour, filter.DefaultKeywords)
//	if rule.IsFoodEvent("Thesis Proposal", start) {
//	    // keep it
//	}
package filter

import (
	"strings"
	"time"
)

// DefaultKeywords are the label fragments that suggest food is served
var DefaultKeywords = []string{"food", "lunch", "free", "seminars", "thesis", "proposal"}

const (
	// DefaultWindow is the length of the acceptance window from run start
	DefaultWindow = 7 * 24 * time.Hour

	// DefaultLunchStartHour and DefaultLunchEndHour bound the lunch slot (inclusive)
	DefaultLunchStartHour = 11
	DefaultLunchEndHour   = 12
)

// FoodRule holds the inclusion criteria for a single run
type FoodRule struct {
	// Keywords are matched as lower-case substrings of the label
	Keywords []string `json:"keywords"`

	// Acceptance window (inclusive on both ends)
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	// Lunch slot by hour of day (inclusive on both ends)
	LunchStartHour int `json:"lunch_start_hour"`
	LunchEndHour   int `json:"lunch_end_hour"`
}

// NewFoodRule creates a rule whose window runs from runStart for the given
// duration, using the default lunch slot.
func NewFoodRule(runStart time.Time, window time.Duration, keywords []string) *FoodRule {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}

	return &FoodRule{
		Keywords:       normalized,
		WindowStart:    runStart,
		WindowEnd:      runStart.Add(window),
		LunchStartHour: DefaultLunchStartHour,
		LunchEndHour:   DefaultLunchEndHour,
	}
}

// InWindow reports whether when lies inside the acceptance window
func (r *FoodRule) InWindow(when time.Time) bool {
	return !when.Before(r.WindowStart) && !when.After(r.WindowEnd)
}

// MatchesKeyword reports whether label contains any keyword, ignoring case
func (r *FoodRule) MatchesKeyword(label string) bool {
	labelLower := strings.ToLower(label)
	for _, kw := range r.Keywords {
		if strings.Contains(labelLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsLunchSlot reports whether when starts during the lunch hours
func (r *FoodRule) IsLunchSlot(when time.Time) bool {
	hour := when.Hour()
	return hour >= r.LunchStartHour && hour <= r.LunchEndHour
}

// IsFoodEvent checks if an event (potentially) has free food.
//
// Matching logic, in order:
//   - Outside the acceptance window: rejected regardless of label
//   - Label contains a keyword: accepted
//   - Starts during the lunch slot: accepted
//   - Otherwise rejected
func (r *FoodRule) IsFoodEvent(label string, when time.Time) bool {
	if !r.InWindow(when) {
		return false
	}
	if r.MatchesKeyword(label) {
		return true
	}
	return r.IsLunchSlot(when)
}
