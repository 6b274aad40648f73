package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher renders pages in headless Chrome and returns the resulting
// DOM. Widget calendars that build their markup in JavaScript serve an empty
// shell to plain HTTP clients.
type ChromeFetcher struct {
	// WaitSelector is waited for before the DOM is captured
	WaitSelector string
	// Settle is an extra delay after WaitSelector is ready
	Settle time.Duration
}

// NewChromeFetcher creates a fetcher that waits for the document body
func NewChromeFetcher() *ChromeFetcher {
	return &ChromeFetcher{
		WaitSelector: "body",
		Settle:       2 * time.Second,
	}
}

// Fetch navigates to pageURL and returns the rendered outer HTML
func (f *ChromeFetcher) Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(UserAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(f.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(f.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	return io.NopCloser(strings.NewReader(html)), nil
}
