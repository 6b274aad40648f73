package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/omg-food/internal/event"
	"github.com/pfrederiksen/omg-food/internal/filter"
	"github.com/pfrederiksen/omg-food/internal/logger"
)

const (
	UserAgent = "omg-food/1.0 (github.com/pfrederiksen/omg-food)"
	Timeout   = 30 * time.Second
)

// Extractor produces food events from one source
type Extractor interface {
	// Name identifies the source in logs and metrics
	Name() string
	// Extract fetches the source and returns the events that pass the food rule
	Extract(ctx context.Context, affiliation string) ([]*event.Event, error)
}

// Fetcher retrieves the raw body of a page. Callers close the returned body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FieldError reports a listing item that lacks a required field
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Env carries the per-run collaborators shared by all extractors
type Env struct {
	Normalizer *event.Normalizer
	Rule       *filter.FoodRule
	Log        *logger.Logger
}

func (e Env) log() *logger.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logger.Default()
}

// skip logs an item that was dropped during extraction
func (e Env) skip(source string, index int, err error) {
	e.log().Debug("skipping item", logger.Fields{
		"source": source,
		"item":   index,
		"reason": err.Error(),
	})
}

// HTTPFetcher fetches pages over plain HTTP(S)
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: UserAgent,
	}
}

// Fetch issues a GET for pageURL and returns the body of a 200 response
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() // nolint:errcheck
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// Page describes an HTML source
type Page struct {
	Name string
	URL  string
	// BaseURL is prepended to root-relative links ("/calendar/x").
	// Other relative links resolve against URL.
	BaseURL string
	Fetcher Fetcher
}

// document fetches and parses the page
func (p Page) document(ctx context.Context) (*goquery.Document, error) {
	body, err := p.Fetcher.Fetch(ctx, p.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// link turns an href from the page into an absolute URL.
// Returns "" for empty or unparsable hrefs.
func (p Page) link(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") && p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/") + href
	}

	base, err := url.Parse(p.URL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// text returns the whitespace-normalized text of the first match of selector
func text(sel *goquery.Selection, selector string) string {
	return event.CleanText(sel.Find(selector).First().Text())
}

// childText joins the trimmed text of each child node (elements and text
// nodes alike) with single spaces, dropping empty ones.
func childText(sel *goquery.Selection) string {
	parts := make([]string, 0)
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if t := event.CleanText(child.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// startOfRange keeps only the start of a "start - end" time range. A start
// without a meridiem takes it from the end, so "12:00 - 1:00 PM" yields
// "12:00 PM" and "11:30 - 12:30 PM" yields "11:30 AM".
func startOfRange(s string) string {
	i := strings.IndexAny(s, "-–—")
	if i < 0 {
		return strings.TrimSpace(s)
	}

	start := strings.TrimSpace(s[:i])
	_, size := utf8.DecodeRuneInString(s[i:])
	end := strings.ToUpper(strings.TrimSpace(s[i+size:]))
	if start == "" || meridiem(start) != "" {
		return start
	}

	m := meridiem(end)
	if m == "" {
		return start
	}
	sh, okStart := clockHour(start)
	eh, okEnd := clockHour(end)
	if okStart && okEnd && sh > eh {
		// The range crosses noon or midnight
		if m == "PM" {
			m = "AM"
		} else {
			m = "PM"
		}
	}
	return start + " " + m
}

// meridiem returns "AM" or "PM" when s ends with one
func meridiem(s string) string {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, m := range []string{"AM", "PM"} {
		if strings.HasSuffix(u, m) {
			return m
		}
	}
	return ""
}

// clockHour reads the hour of the last clock time in s on a 12-hour dial,
// with 12 counted as 0.
func clockHour(s string) (int, bool) {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSuffix(strings.ToUpper(s), "AM"), "PM"))
	if len(fields) == 0 {
		return 0, false
	}
	clock := fields[len(fields)-1]
	if j := strings.Index(clock, ":"); j >= 0 {
		clock = clock[:j]
	}
	h, err := strconv.Atoi(clock)
	if err != nil || h < 1 || h > 12 {
		return 0, false
	}
	return h % 12, true
}

// itemLink returns the href of the item itself when it is an anchor, or of
// the first anchor inside it.
func itemLink(item *goquery.Selection) string {
	if goquery.NodeName(item) == "a" {
		href, _ := item.Attr("href")
		return href
	}
	href, _ := item.Find("a[href]").First().Attr("href")
	return href
}
