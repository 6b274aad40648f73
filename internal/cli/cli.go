package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/omg-food/internal/config"
	"github.com/pfrederiksen/omg-food/internal/gcal"
	"github.com/pfrederiksen/omg-food/internal/logger"
	"github.com/pfrederiksen/omg-food/internal/scraper"
	"github.com/pfrederiksen/omg-food/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig      string
	flagOutDir      string
	flagFormat      string
	flagWindowDays  int
	flagTimeout     time.Duration
	flagSources     []string
	flagICS         string
	flagMetricsFile string
	flagVerbose     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "omg-food",
		Short: "Find campus events that are likely to have free food",
		Long: `A CLI tool that scrapes campus event calendars, keeps the events in the
next days that mention food or fall on the lunch hour, and reports them
sorted by start time on the console and in a CSV file.`,
		SilenceUsage: true,
		RunE:         runOnce,
	}

	// Define flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML configuration file (default: built-in sources)")
	pf.StringVar(&flagOutDir, "out", "", "Directory for the CSV, ICS and metrics files")
	pf.StringVar(&flagFormat, "format", "", "Console output format: text or json")
	pf.IntVar(&flagWindowDays, "window-days", 0, "Days ahead of now to accept events")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Per-source fetch timeout")
	pf.StringSliceVar(&flagSources, "source", nil, "Only run the named source (repeatable)")
	pf.StringVar(&flagICS, "ics", "", "Also export the events to this iCalendar file")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newSourcesCmd(), newAuthCmd(), newWatchCmd())
	return cmd
}

// loadConfig reads the configuration file and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = flagOutDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(flagFormat)
	}
	if flags.Changed("window-days") {
		cfg.WindowDays = flagWindowDays
	}
	if flags.Changed("timeout") {
		cfg.FetchTimeout = flagTimeout
	}
	if flags.Changed("ics") {
		cfg.Output.ICS = flagICS
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = flagMetricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg, cmd.ErrOrStderr())
	return cfg, nil
}

// setupLogging sends JSON logs to stderr so stdout only carries the report
func setupLogging(cfg *config.Config, w io.Writer) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.LevelInfo
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, w))
}

// newReport wires fetchers and, for google sources, the Calendar API client
func newReport(ctx context.Context, cfg *config.Config, out io.Writer, prompt io.Writer, input io.Reader) (*Report, error) {
	sources, err := cfg.Select(flagSources)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Config:  cfg,
		Sources: sources,
		Out:     out,
		HTTP:    scraper.NewHTTPFetcher(cfg.FetchTimeout),
		Chrome:  scraper.NewChromeFetcher(),
	}

	if hasGoogleSources(sources) {
		lister, err := provisionCalendar(ctx, cfg, prompt, input)
		if err != nil {
			// Only the google sources are lost
			logger.Error("calendar credentials unavailable", logger.Fields{
				"credentials": cfg.Google.CredentialsFile,
			}, err)
		} else {
			report.Lister = lister
		}
	}

	return report, nil
}

func hasGoogleSources(sources []config.SourceConfig) bool {
	for _, src := range sources {
		if src.Kind == config.KindGoogle {
			return true
		}
	}
	return false
}

// provisionCalendar obtains an authenticated Calendar API client. Consent is
// interactive only when prompt and input are set.
func provisionCalendar(ctx context.Context, cfg *config.Config, prompt io.Writer, input io.Reader) (*gcal.Client, error) {
	store, err := storage.New(".")
	if err != nil {
		return nil, err
	}

	p := &gcal.Provisioner{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		Store:           store,
		Prompt:          prompt,
		Input:           input,
	}

	httpClient, err := p.Provision(ctx)
	if err != nil {
		return nil, fmt.Errorf("provisioning calendar credentials: %w", err)
	}
	return gcal.NewClient(ctx, httpClient)
}

// runOnce is the main command logic
func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	report, err := newReport(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin())
	if err != nil {
		return err
	}

	_, err = report.Run(ctx, time.Now())
	return err
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sources, err := cfg.Select(flagSources)
			if err != nil {
				return err
			}
			return writeSources(cmd.OutOrStdout(), sources)
		},
	}
}

func writeSources(w io.Writer, sources []config.SourceConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tRENDER\tAFFILIATION\tURL")
	for _, src := range sources {
		target := src.URL
		if src.Kind == config.KindGoogle {
			target = src.CalendarID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", src.Name, src.Kind, src.Render, src.Affiliation, target)
	}
	return tw.Flush()
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar access and cache the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := provisionCalendar(cmd.Context(), cfg, cmd.ErrOrStderr(), cmd.InOrStdin()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calendar token cached at %s\n", cfg.Google.TokenFile)
			return nil
		},
	}
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
