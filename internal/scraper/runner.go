package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pfrederiksen/omg-food/internal/event"
	"github.com/pfrederiksen/omg-food/internal/logger"
	"github.com/pfrederiksen/omg-food/internal/metrics"
)

// Job pairs an extractor with the affiliation its events are attributed to
type Job struct {
	Extractor   Extractor
	Affiliation string
}

// Result is the outcome of one job
type Result struct {
	Source string
	Events []*event.Event
	Err    error
	Took   time.Duration
}

// Runner executes jobs concurrently, one goroutine per source
type Runner struct {
	// Timeout bounds each source. Zero means Timeout.
	Timeout time.Duration
	Metrics *metrics.Recorder
	Log     *logger.Logger
}

func (r *Runner) log() *logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Default()
}

// Run executes all jobs and waits for every one of them to finish before
// returning. Events are appended to the collector in job order, so the
// collector's order does not depend on which source answered first.
// Failed sources contribute nothing; their errors are in the results.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*event.Collector, []Result) {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			results[i] = r.runOne(ctx, job)
		}(i, job)
	}
	wg.Wait()

	collector := event.NewCollector()
	for _, res := range results {
		if res.Err != nil {
			r.log().Error("source failed", logger.Fields{
				"source":   res.Source,
				"duration": res.Took.String(),
			}, res.Err)
			r.Metrics.SourceFailed(res.Source, res.Took)
			continue
		}

		r.log().Info("source finished", logger.Fields{
			"source":   res.Source,
			"events":   len(res.Events),
			"duration": res.Took.String(),
		})
		r.Metrics.SourceSucceeded(res.Source, len(res.Events), res.Took)
		collector.Append(res.Events...)
	}

	return collector, results
}

// runOne runs a single job under its own timeout. An extractor that ignores
// its context is abandoned when the timeout fires.
func (r *Runner) runOne(ctx context.Context, job Job) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	done := make(chan Result, 1)
	go func() {
		done <- extract(ctx, job)
	}()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = Result{
			Source: job.Extractor.Name(),
			Err:    fmt.Errorf("source timed out: %w", ctx.Err()),
		}
	}
	res.Took = time.Since(started)
	return res
}

// extract calls the extractor, turning a panic into an error
func extract(ctx context.Context, job Job) (res Result) {
	res.Source = job.Extractor.Name()

	defer func() {
		if p := recover(); p != nil {
			res.Events = nil
			res.Err = fmt.Errorf("extractor panicked: %v", p)
		}
	}()

	events, err := job.Extractor.Extract(ctx, job.Affiliation)
	if err != nil {
		res.Err = err
		return res
	}

	res.Events = make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if evt == nil {
			continue
		}
		res.Events = append(res.Events, evt.WithSource(res.Source))
	}
	return res
}
