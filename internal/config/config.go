package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal containers

	"gopkg.in/yaml.v3"
)

// Source kinds, one per extractor implementation
const (
	KindDepartment = "department"
	KindTimely     = "timely"
	KindTable      = "table"
	KindListing    = "listing"
	KindGoogle     = "google"
	KindICS        = "ics"
)

// Render modes for HTML sources
const (
	RenderHTTP   = "http"
	RenderChrome = "chrome"
)

var validKinds = map[string]bool{
	KindDepartment: true,
	KindTimely:     true,
	KindTable:      true,
	KindListing:    true,
	KindGoogle:     true,
	KindICS:        true,
}

// SourceConfig describes one page or feed to scrape
type SourceConfig struct {
	// Name identifies the source in logs, metrics and --source filters.
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// URL is the page or feed address. Unused for google sources.
	URL string `yaml:"url,omitempty"`
	// BaseURL is prepended to relative detail links. Defaults to the URL's origin.
	BaseURL     string `yaml:"base_url,omitempty"`
	Affiliation string `yaml:"affiliation"`
	// Render selects how HTML is fetched: "http" (default) or "chrome".
	Render string `yaml:"render,omitempty"`
	// CalendarID and OffsetSuffix apply to google sources only.
	CalendarID   string `yaml:"calendar_id,omitempty"`
	OffsetSuffix string `yaml:"offset_suffix,omitempty"`
}

// GoogleConfig holds Calendar API credential locations
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// OutputConfig controls where the report goes
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	CSV         string `yaml:"csv"`
	ICS         string `yaml:"ics,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	Format      string `yaml:"format"`
}

// Config is the top-level configuration
type Config struct {
	// Timezone is the IANA zone the source pages are written in. Empty means local.
	Timezone       string         `yaml:"timezone"`
	WindowDays     int            `yaml:"window_days"`
	Keywords       []string       `yaml:"keywords"`
	LunchStartHour int            `yaml:"lunch_start_hour"`
	LunchEndHour   int            `yaml:"lunch_end_hour"`
	FetchTimeout   time.Duration  `yaml:"fetch_timeout"`
	Schedule       string         `yaml:"schedule,omitempty"`
	LogLevel       string         `yaml:"log_level"`
	Output         OutputConfig   `yaml:"output"`
	Google         GoogleConfig   `yaml:"google"`
	Sources        []SourceConfig `yaml:"sources"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		Timezone:       "America/New_York",
		WindowDays:     7,
		Keywords:       []string{"food", "lunch", "free", "seminars", "thesis", "proposal"},
		LunchStartHour: 11,
		LunchEndHour:   12,
		FetchTimeout:   30 * time.Second,
		Schedule:       "0 8 * * *",
		LogLevel:       "info",
		Output: OutputConfig{
			Dir:    ".",
			CSV:    "omg_food.csv",
			Format: "text",
		},
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "~/.config/omg-food/token.json",
		},
		Sources: DefaultSources(),
	}
	cfg.Normalize()
	return cfg
}

// DefaultSources is the fixed list of campus calendars scraped when no
// configuration file overrides it.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:        "campus",
			Kind:        KindListing,
			URL:         "https://www.cmu.edu/events/",
			BaseURL:     "https://www.cmu.edu",
			Affiliation: "Carnegie Mellon University",
		},
		{
			Name:        "mcs",
			Kind:        KindTimely,
			URL:         "https://events.time.ly/0qe3bmk",
			Affiliation: "Mellon College of Science",
			Render:      RenderChrome,
		},
		{
			Name:        "scs-calendar",
			Kind:        KindDepartment,
			URL:         "https://www.cs.cmu.edu/calendar/",
			BaseURL:     "https://cs.cmu.edu",
			Affiliation: "School of Computer Science",
		},
		{
			Name:        "scs-seminars",
			Kind:        KindTable,
			URL:         "https://www.cs.cmu.edu/scs-seminar-series",
			Affiliation: "SCS Seminar Series",
		},
		{
			Name:        "heinz",
			Kind:        KindListing,
			URL:         "https://www.heinz.cmu.edu/about/events",
			BaseURL:     "https://www.heinz.cmu.edu",
			Affiliation: "Heinz College",
		},
		{
			Name:        "ai-seminar",
			Kind:        KindTable,
			URL:         "http://www.cs.cmu.edu/~aiseminar/",
			Affiliation: "AI Seminar",
		},
	}
}

// Load reads configuration from a YAML file layered over Default().
// An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Normalize fills derived defaults on sources that omit them
func (c *Config) Normalize() {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		if src.Render == "" {
			src.Render = RenderHTTP
		}
		if src.Affiliation == "" {
			src.Affiliation = src.Name
		}
		if src.BaseURL == "" && src.URL != "" {
			if u, err := url.Parse(src.URL); err == nil && u.Host != "" {
				src.BaseURL = u.Scheme + "://" + u.Host
			}
		}
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
}

// Validate checks the configuration for values that would break a run
func (c *Config) Validate() error {
	var errs []error

	if c.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("window_days must be positive, got %d", c.WindowDays))
	}
	if c.LunchStartHour < 0 || c.LunchEndHour > 23 || c.LunchStartHour > c.LunchEndHour {
		errs = append(errs, fmt.Errorf("invalid lunch hours %d-%d", c.LunchStartHour, c.LunchEndHour))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch_timeout must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Format != "text" && c.Output.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", c.Output.Format))
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if src.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name is required", i))
			continue
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
		}
		seen[src.Name] = true

		if !validKinds[src.Kind] {
			errs = append(errs, fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind))
			continue
		}
		if src.Render != RenderHTTP && src.Render != RenderChrome {
			errs = append(errs, fmt.Errorf("source %s: unknown render mode %q", src.Name, src.Render))
		}

		if src.Kind == KindGoogle {
			if src.CalendarID == "" {
				errs = append(errs, fmt.Errorf("source %s: calendar_id is required", src.Name))
			}
			continue
		}
		u, err := url.Parse(src.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("source %s: invalid url %q", src.Name, src.URL))
		}
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window returns the acceptance window length
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// Select returns the sources whose names are listed. An empty list selects all.
func (c *Config) Select(names []string) ([]SourceConfig, error) {
	if len(names) == 0 {
		return c.Sources, nil
	}

	byName := make(map[string]SourceConfig, len(c.Sources))
	for _, src := range c.Sources {
		byName[src.Name] = src
	}

	selected := make([]SourceConfig, 0, len(names))
	for _, name := range names {
		src, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source: %s", name)
		}
		selected = append(selected, src)
	}
	return selected, nil
}
