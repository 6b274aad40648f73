package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/omg-food/internal/calendar"
	"github.com/pfrederiksen/omg-food/internal/config"
	"github.com/pfrederiksen/omg-food/internal/event"
	"github.com/pfrederiksen/omg-food/internal/filter"
	"github.com/pfrederiksen/omg-food/internal/logger"
	"github.com/pfrederiksen/omg-food/internal/metrics"
	"github.com/pfrederiksen/omg-food/internal/scraper"
	"github.com/pfrederiksen/omg-food/internal/storage"
)

// Report runs the selected sources once and writes the food report
type Report struct {
	Config  *config.Config
	Sources []config.SourceConfig
	Out     io.Writer

	// Lister serves google sources. Nil makes them fail as sources.
	Lister scraper.EventLister
	// HTTP and Chrome fetch HTML pages and feeds, by render mode
	HTTP   scraper.Fetcher
	Chrome scraper.Fetcher
}

// Run collects, sorts and writes events. now is the run start; the
// acceptance window and the reference year are derived from it.
func (r *Report) Run(ctx context.Context, now time.Time) ([]*event.Event, error) {
	cfg := r.Config

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	runStart := now.In(loc)

	runID := uuid.NewString()
	log := logger.Default().With(logger.Fields{"run_id": runID})
	log.Info("starting run", logger.Fields{
		"sources":      len(r.Sources),
		"window_start": runStart.Format(time.RFC3339),
		"window_days":  cfg.WindowDays,
	})

	env := scraper.Env{
		Normalizer: &event.Normalizer{ReferenceYear: runStart.Year(), Location: loc},
		Rule:       newRule(cfg, runStart),
		Log:        log,
	}

	jobs := make([]scraper.Job, 0, len(r.Sources))
	for _, src := range r.Sources {
		ex, err := r.extractor(src, env)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, scraper.Job{Extractor: ex, Affiliation: src.Affiliation})
	}

	var rec *metrics.Recorder
	if cfg.Output.MetricsFile != "" {
		rec = metrics.New()
	}

	runner := &scraper.Runner{Timeout: cfg.FetchTimeout, Metrics: rec, Log: log}
	collector, results := runner.Run(ctx, jobs)

	events := collector.Events()
	sortEvents(events)
	rows := BuildRows(events)

	failed := make([]string, 0)
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Source)
		}
	}

	result := &OutputResult{
		CheckedAt:  now.UTC(),
		RunID:      runID,
		EventCount: len(rows),
		Events:     rows,
		Failed:     failed,
	}
	if err := WriteOutput(r.Out, result, OutputFormat(cfg.Output.Format)); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}

	if err := r.writeFiles(events, rows, rec, now); err != nil {
		return nil, err
	}

	log.Info("run finished", logger.Fields{
		"events": len(events),
		"failed": len(failed),
	})
	return events, nil
}

func newRule(cfg *config.Config, runStart time.Time) *filter.FoodRule {
	rule := filter.NewFoodRule(runStart, cfg.Window(), cfg.Keywords)
	rule.LunchStartHour = cfg.LunchStartHour
	rule.LunchEndHour = cfg.LunchEndHour
	return rule
}

// writeFiles writes the CSV report and, when configured, the ICS export
// and the metrics textfile
func (r *Report) writeFiles(events []*event.Event, rows []Row, rec *metrics.Recorder, now time.Time) error {
	out := r.Config.Output

	store, err := storage.New(out.Dir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	if out.CSV != "" {
		err := store.WriteFile(out.CSV, 0644, func(w io.Writer) error {
			return writeCSV(w, rows)
		})
		if err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
		logger.Debug("wrote CSV report", logger.Fields{"path": store.Path(out.CSV), "rows": len(rows)})
	}

	if out.ICS != "" {
		err := store.WriteFile(out.ICS, 0644, func(w io.Writer) error {
			return calendar.Write(w, events, now)
		})
		if err != nil {
			return fmt.Errorf("writing ICS: %w", err)
		}
	}

	if rec != nil {
		rec.RunFinished(len(events), now)
		if err := rec.WriteTextfile(store.Path(out.MetricsFile)); err != nil {
			return err
		}
	}

	return nil
}

// extractor builds the extractor for one configured source
func (r *Report) extractor(src config.SourceConfig, env scraper.Env) (scraper.Extractor, error) {
	if src.Kind == config.KindGoogle {
		return scraper.NewCalendarAPI(src.Name, src.CalendarID, src.OffsetSuffix, r.Lister, env), nil
	}

	fetcher := r.HTTP
	if src.Render == config.RenderChrome {
		fetcher = r.Chrome
	}
	if fetcher == nil {
		return nil, fmt.Errorf("source %s: no %s fetcher", src.Name, src.Render)
	}

	page := scraper.Page{
		Name:    src.Name,
		URL:     src.URL,
		BaseURL: src.BaseURL,
		Fetcher: fetcher,
	}

	switch src.Kind {
	case config.KindDepartment:
		return scraper.NewDepartmentCalendar(page, env), nil
	case config.KindTimely:
		return scraper.NewWidgetCalendar(page, env), nil
	case config.KindTable:
		return scraper.NewSeminarTable(page, env), nil
	case config.KindListing:
		return scraper.NewNewsListing(page, env), nil
	case config.KindICS:
		return scraper.NewICSFeed(page, env), nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind)
	}
}
