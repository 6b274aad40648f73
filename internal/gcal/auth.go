package gcal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pfrederiksen/omg-food/internal/logger"
	"github.com/pfrederiksen/omg-food/internal/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// tokenPerm keeps the cached token readable by the owner only
const tokenPerm = 0600

// ErrNoConsent is returned when consent is required but no authorization
// code was entered.
var ErrNoConsent = errors.New("no authorization code entered")

// Provisioner produces an authenticated HTTP client for the Calendar API
type Provisioner struct {
	// CredentialsFile holds the OAuth2 client secrets downloaded from the
	// Google Cloud console.
	CredentialsFile string
	// TokenFile caches the user token between runs
	TokenFile string
	Store     *storage.Storage

	// Prompt and Input drive interactive consent
	Prompt io.Writer
	Input  io.Reader
}

// LoadConfig reads OAuth2 client secrets with read-only calendar scope
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	path, err := storage.ExpandHome(credentialsFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets: %w", err)
	}
	return cfg, nil
}

// Provision returns an HTTP client that authenticates Calendar API calls.
// A cached token is refreshed when expired; consent is requested only when
// no cached token exists or it can no longer be refreshed.
func (p *Provisioner) Provision(ctx context.Context) (*http.Client, error) {
	cfg, err := LoadConfig(p.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := p.cachedToken()
	if err != nil {
		logger.Warn("ignoring cached token", logger.Fields{"path": p.TokenFile, "error": err.Error()})
		tok = nil
	}

	if tok != nil {
		src := cfg.TokenSource(ctx, tok)
		fresh, err := src.Token()
		if err == nil {
			if fresh.AccessToken != tok.AccessToken {
				if err := p.saveToken(fresh); err != nil {
					return nil, err
				}
				logger.Debug("refreshed calendar token", logger.Fields{"path": p.TokenFile})
			}
			return oauth2.NewClient(ctx, src), nil
		}
		logger.Warn("cached token unusable, requesting consent", logger.Fields{"error": err.Error()})
	}

	tok, err = p.consent(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.saveToken(tok); err != nil {
		return nil, err
	}

	return oauth2.NewClient(ctx, cfg.TokenSource(ctx, tok)), nil
}

func (p *Provisioner) cachedToken() (*oauth2.Token, error) {
	var tok oauth2.Token
	found, err := p.Store.LoadJSON(p.TokenFile, &tok)
	if err != nil || !found {
		return nil, err
	}
	return &tok, nil
}

func (p *Provisioner) saveToken(tok *oauth2.Token) error {
	if err := p.Store.SaveJSON(p.TokenFile, tok, tokenPerm); err != nil {
		return fmt.Errorf("caching token: %w", err)
	}
	return nil
}

// consent prints the authorization URL and exchanges the code read back
func (p *Provisioner) consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	if p.Prompt == nil || p.Input == nil {
		return nil, fmt.Errorf("calendar consent required: run the auth command")
	}

	authURL := cfg.AuthCodeURL("omg-food", oauth2.AccessTypeOffline)
	fmt.Fprintf(p.Prompt, "Open this link in your browser, authorize access, then paste the code:\n%s\n> ", authURL)

	scanner := bufio.NewScanner(p.Input)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading authorization code: %w", err)
		}
		return nil, ErrNoConsent
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return nil, ErrNoConsent
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}
