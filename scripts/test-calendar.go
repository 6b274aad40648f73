package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/omg-food/internal/calendar"
	"github.com/pfrederiksen/omg-food/internal/event"
)

func main() {
	// Create sample events starting tomorrow
	tomorrow := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	events := []*event.Event{
		event.NewEvent("Thesis Proposal: Robots that Cook", tomorrow.Add(-2*time.Hour),
			"Gates Hillman Center 6115", "https://www.cs.cmu.edu/calendar", "School of Computer Science"),
		event.NewEvent("Career Fair with Free Food", tomorrow.Add(3*time.Hour),
			"Cohon University Center", "https://www.cmu.edu/events/", "Carnegie Mellon University"),
	}

	// Generate .ics file
	icsContent := calendar.GenerateICS(events, time.Now())

	filename := "test-omg-food.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d sample food events to %s\n", len(events), filename)
	fmt.Println("Import it into a calendar app (or subscribe to the --ics export) to check rendering.")
	fmt.Println()
	fmt.Print(icsContent)
}
