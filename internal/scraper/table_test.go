package scraper

import (
	"testing"
	"time"
)

const tableHTML = `
<table class="seminars">
  <tr><th>Date</th><th>Time</th><th>Talk</th><th>Room</th></tr>
  <tr>
    <td>Tuesday, March 12, 2024</td>
    <td>12:00 PM - 1:00 PM</td>
    <td><a href="talks/2024-03-12.html">Scaling Laws for Robots</a></td>
    <td>GHC 6115</td>
  </tr>
  <tr>
    <td>March 14</td>
    <td>4pm</td>
    <td>Thesis Oral: A Plain Text Title</td>
  </tr>
  <tr>
    <td>March 15</td>
    <td>3:30 PM</td>
    <td>No Keyword Afternoon Talk</td>
  </tr>
  <tr>
    <td>March 15</td>
    <td>TBD</td>
    <td>Free Lunch Panel</td>
  </tr>
  <tr>
    <td>March 16</td>
    <td>Free lunch but no title cell</td>
  </tr>
  <tr>
    <td>March 16</td>
    <td></td>
    <td>Seminars with no time</td>
  </tr>
</table>`

func TestSeminarTable_ParseEvents(t *testing.T) {
	s := NewSeminarTable(Page{Name: "ai-seminar", URL: "http://www.cs.cmu.edu/~aiseminar/"}, testEnv())

	events := s.parseEvents(mustDocument(t, tableHTML), "AI Seminar")

	if len(events) != 2 {
		for _, e := range events {
			t.Logf("got %q at %v", e.Title, e.StartTime)
		}
		t.Fatalf("parseEvents() returned %d events, want 2", len(events))
	}

	linked := events[0]
	if linked.Title != "Scaling Laws for Robots" {
		t.Errorf("title = %q", linked.Title)
	}
	if want := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC); !linked.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", linked.StartTime, want)
	}
	if linked.Link != "http://www.cs.cmu.edu/~aiseminar/talks/2024-03-12.html" {
		t.Errorf("link = %q", linked.Link)
	}
	if linked.Location != "GHC 6115" {
		t.Errorf("location = %q", linked.Location)
	}

	plain := events[1]
	if plain.Link != "" {
		t.Errorf("plain-text title should have empty link, got %q", plain.Link)
	}
	if want := time.Date(2024, time.March, 14, 16, 0, 0, 0, time.UTC); !plain.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", plain.StartTime, want)
	}
}

func TestSeminarTable_SharedMeridiem(t *testing.T) {
	s := NewSeminarTable(Page{Name: "ai-seminar", URL: "http://www.cs.cmu.edu/~aiseminar/"}, testEnv())
	doc := mustDocument(t, `
<table>
  <tr><td>March 13, 2024</td><td>12:00 - 1:00 PM</td><td>Scaling Laws for Robots</td></tr>
  <tr><td>March 14, 2024</td><td>11:30 - 12:30 PM</td><td>Planning Under Uncertainty</td></tr>
</table>`)

	events := s.parseEvents(doc, "AI Seminar")
	if len(events) != 2 {
		t.Fatalf("parseEvents() returned %d events, want 2", len(events))
	}

	wants := []time.Time{
		time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 14, 11, 30, 0, 0, time.UTC),
	}
	for i, want := range wants {
		if !events[i].StartTime.Equal(want) {
			t.Errorf("event %d start = %v, want %v", i, events[i].StartTime, want)
		}
	}
}

func TestCombineLayouts(t *testing.T) {
	got := combineLayouts([]string{"Jan 2", "January 2"}, []string{"3PM", "3:04PM"})
	want := []string{"Jan 2 3PM", "Jan 2 3:04PM", "January 2 3PM", "January 2 3:04PM"}

	if len(got) != len(want) {
		t.Fatalf("combineLayouts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("combineLayouts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
