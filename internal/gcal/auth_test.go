package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/omg-food/internal/storage"
	"golang.org/x/oauth2"
)

// tokenServer is a fake OAuth2 token endpoint
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var access string
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "the-code" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			access = "exchanged"
		case "refresh_token":
			access = "refreshed"
		default:
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`, access)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeCredentials(t *testing.T, dir, tokenURL string) string {
	t.Helper()
	secrets := map[string]any{
		"installed": map[string]any{
			"client_id":     "client-123.apps.googleusercontent.com",
			"client_secret": "shh",
			"redirect_uris": []string{"http://localhost"},
			"auth_uri":      "https://accounts.example.com/auth",
			"token_uri":     tokenURL,
		},
	}
	data, err := json.Marshal(secrets)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newProvisioner(t *testing.T) (*Provisioner, string) {
	t.Helper()
	dir := t.TempDir()
	server := tokenServer(t)

	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}

	return &Provisioner{
		CredentialsFile: writeCredentials(t, dir, server.URL+"/token"),
		TokenFile:       "token.json",
		Store:           store,
	}, dir
}

func TestProvision_CachedToken(t *testing.T) {
	p, _ := newProvisioner(t)

	cached := &oauth2.Token{AccessToken: "cached", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	if err := p.Store.SaveJSON(p.TokenFile, cached, 0600); err != nil {
		t.Fatal(err)
	}

	// No prompt configured: consent would fail
	client, err := p.Provision(context.Background())
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if client == nil {
		t.Fatal("Provision() returned nil client")
	}
}

func TestProvision_RefreshesExpiredToken(t *testing.T) {
	p, _ := newProvisioner(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := p.Store.SaveJSON(p.TokenFile, expired, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Provision(context.Background()); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}

	var saved oauth2.Token
	if _, err := p.Store.LoadJSON(p.TokenFile, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "refreshed" {
		t.Errorf("cached access token = %q, want refreshed", saved.AccessToken)
	}
}

func TestProvision_Consent(t *testing.T) {
	p, dir := newProvisioner(t)

	var prompt bytes.Buffer
	p.Prompt = &prompt
	p.Input = strings.NewReader("the-code\n")

	if _, err := p.Provision(context.Background()); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}

	if !strings.Contains(prompt.String(), "https://accounts.example.com/auth?") {
		t.Errorf("prompt missing authorization URL: %q", prompt.String())
	}
	if !strings.Contains(prompt.String(), "client_id=client-123") {
		t.Errorf("authorization URL missing client id: %q", prompt.String())
	}

	info, err := os.Stat(filepath.Join(dir, "token.json"))
	if err != nil {
		t.Fatalf("token not cached: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token permissions = %o, want 600", perm)
	}

	var saved oauth2.Token
	if _, err := p.Store.LoadJSON(p.TokenFile, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "exchanged" || saved.RefreshToken != "refresh-1" {
		t.Errorf("cached token = %+v", saved)
	}
}

func TestProvision_ConsentErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   *strings.Reader
		wantErr string
	}{
		{"non-interactive", nil, "consent required"},
		{"empty code", strings.NewReader("\n"), ErrNoConsent.Error()},
		{"rejected code", strings.NewReader("wrong\n"), "exchanging authorization code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProvisioner(t)
			if tt.input != nil {
				p.Prompt = &bytes.Buffer{}
				p.Input = tt.input
			}

			_, err := p.Provision(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Provision() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestProvision_CorruptCache(t *testing.T) {
	p, dir := newProvisioner(t)
	if err := os.WriteFile(filepath.Join(dir, "token.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	p.Prompt = &bytes.Buffer{}
	p.Input = strings.NewReader("the-code\n")

	if _, err := p.Provision(context.Background()); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"web":{}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("LoadConfig() expected error for invalid secrets")
	}

	cfg, err := LoadConfig(writeCredentials(t, dir, "https://oauth2.example.com/token"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if len(cfg.Scopes) != 1 || !strings.Contains(cfg.Scopes[0], "calendar.readonly") {
		t.Errorf("scopes = %v", cfg.Scopes)
	}
}

func TestErrNoConsent(t *testing.T) {
	err := fmt.Errorf("provisioning: %w", ErrNoConsent)
	if !errors.Is(err, ErrNoConsent) {
		t.Error("ErrNoConsent should be matchable with errors.Is")
	}
}
