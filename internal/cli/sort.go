package cli

import (
	"sort"

	"github.com/pfrederiksen/omg-food/internal/event"
)

// sortEvents orders events by start time. The sort is stable, so events
// starting at the same instant keep their collection order.
func sortEvents(events []*event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
