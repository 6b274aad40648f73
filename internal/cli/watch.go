package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfrederiksen/omg-food/internal/config"
	"github.com/pfrederiksen/omg-food/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	flagSchedule string
	flagRunNow   bool
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the report on a cron schedule until interrupted",
		Long: `Runs the food report every time the cron schedule fires, overwriting the
CSV (and ICS/metrics files when configured). The schedule uses the standard
five-field cron syntax and is evaluated in the configured timezone.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&flagSchedule, "schedule", "", `Cron schedule (default from config, e.g. "0 8 * * *")`)
	cmd.Flags().BoolVar(&flagRunNow, "run-now", false, "Also run once immediately")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("schedule") {
		cfg.Schedule = flagSchedule
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled runs cannot prompt for consent
	report, err := newReport(ctx, cfg, cmd.OutOrStdout(), nil, nil)
	if err != nil {
		return err
	}

	scheduler, err := newScheduler(cfg, loc, func() {
		if _, err := report.Run(ctx, time.Now()); err != nil {
			logger.Error("scheduled run failed", nil, err)
		}
	})
	if err != nil {
		return err
	}

	if flagRunNow {
		if _, err := report.Run(ctx, time.Now()); err != nil {
			logger.Error("initial run failed", nil, err)
		}
	}

	scheduler.Start()

	fields := logger.Fields{"schedule": cfg.Schedule, "timezone": loc.String()}
	if next, err := nextRuns(cfg.Schedule, time.Now().In(loc), 1); err == nil {
		fields["next_run"] = next[0].Format(time.RFC3339)
	}
	logger.Info("watching", fields)

	<-ctx.Done()
	logger.Info("shutting down", nil)
	<-scheduler.Stop().Done()
	return nil
}

// newScheduler registers run on the configured schedule
func newScheduler(cfg *config.Config, loc *time.Location, run func()) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("no schedule configured")
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.Schedule, run); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	return scheduler, nil
}

// nextRuns previews the next n activations of a schedule
func nextRuns(schedule string, from time.Time, n int) ([]time.Time, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	runs := make([]time.Time, 0, n)
	next := from
	for i := 0; i < n; i++ {
		next = sched.Next(next)
		runs = append(runs, next)
	}
	return runs, nil
}
