package cli

import (
	"testing"
	"time"

	"github.com/pfrederiksen/omg-food/internal/event"
)

func TestSortEvents(t *testing.T) {
	t2 := time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)
	t1 := t2.Add(2 * time.Hour)
	t3 := t2.Add(26 * time.Hour)

	events := []*event.Event{
		event.NewEvent("T1", t1, "", "", ""),
		event.NewEvent("T3", t3, "", "", ""),
		event.NewEvent("T2", t2, "", "", ""),
	}

	sortEvents(events)

	want := []string{"T2", "T1", "T3"}
	for i, evt := range events {
		if evt.Title != want[i] {
			t.Errorf("position %d = %s, want %s", i, evt.Title, want[i])
		}
	}
}

func TestSortEvents_StableTies(t *testing.T) {
	noon := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)

	events := []*event.Event{
		event.NewEvent("later", noon.Add(time.Hour), "", "", ""),
		event.NewEvent("first source", noon, "", "", ""),
		event.NewEvent("second source", noon, "", "", ""),
	}

	sortEvents(events)

	if events[0].Title != "first source" || events[1].Title != "second source" {
		t.Errorf("tie order = [%s, %s], want collection order", events[0].Title, events[1].Title)
	}
}

func TestSortEvents_Empty(t *testing.T) {
	sortEvents(nil)
	sortEvents([]*event.Event{})
}
