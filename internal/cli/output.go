package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/omg-food/internal/event"
)

// OutputFormat specifies the console output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Banner heads the text report
const Banner = "Found food at these events ^.^"

// Columns of the console table and the CSV file
var reportHeader = []string{"Name", "Time", "Location", "Url", "Affiliation"}

// Row is the display form of an event
type Row struct {
	Name        string `json:"name"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Url         string `json:"url"`
	Affiliation string `json:"affiliation"`
	Source      string `json:"source,omitempty"`
}

func (r Row) fields() []string {
	return []string{r.Name, r.Time, r.Location, r.Url, r.Affiliation}
}

// BuildRows formats events for display. Events must already be sorted;
// they are not modified.
func BuildRows(events []*event.Event) []Row {
	rows := make([]Row, 0, len(events))
	for _, evt := range events {
		rows = append(rows, Row{
			Name:        evt.Title,
			Time:        event.Format(evt.StartTime),
			Location:    evt.Location,
			Url:         evt.Link,
			Affiliation: evt.Affiliation,
			Source:      evt.Source,
		})
	}
	return rows
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time `json:"checked_at"`
	RunID      string    `json:"run_id"`
	EventCount int       `json:"event_count"`
	Events     []Row     `json:"events"`
	Failed     []string  `json:"failed_sources,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs the banner and an aligned table. An empty result still
// prints the banner and the header.
func writeText(w io.Writer, result *OutputResult) error {
	fmt.Fprintln(w, Banner)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, joinTab(reportHeader))
	for _, row := range result.Events {
		fmt.Fprintln(tw, joinTab(row.fields()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "\n%d source(s) failed: %v\n", len(result.Failed), result.Failed)
	}
	return nil
}

func joinTab(fields []string) string {
	return strings.Join(fields, "\t")
}

// writeCSV writes the header and one record per row
func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
