package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

func TestLinkConfig(t *testing.T) {
	t.Run("builds endpoints from proxy config", func(t *testing.T) {
		config := LinkConfig(shared.ProxyConfig{
			BaseURL:     "http://proxy.local:8666",
			ClientID:    "familliar-cli",
			RedirectURI: "http://localhost:8667/callback",
		})

		if config.Endpoint.AuthURL != "http://proxy.local:8666/auth/authorize" {
			t.Errorf("unexpected auth URL: %s", config.Endpoint.AuthURL)
		}
		if config.Endpoint.TokenURL != "http://proxy.local:8666/auth/token" {
			t.Errorf("unexpected token URL: %s", config.Endpoint.TokenURL)
		}
		if config.ClientID != "familliar-cli" {
			t.Errorf("unexpected client ID: %s", config.ClientID)
		}
		if config.RedirectURL != "http://localhost:8667/callback" {
			t.Errorf("unexpected redirect URL: %s", config.RedirectURL)
		}
	})

	t.Run("falls back to default base URL", func(t *testing.T) {
		config := LinkConfig(shared.ProxyConfig{ClientID: "familliar-cli"})

		if !strings.HasPrefix(config.Endpoint.AuthURL, defaultProxyBaseURL) {
			t.Errorf("expected default base URL, got %s", config.Endpoint.AuthURL)
		}
	})
}

func TestNewLinkState(t *testing.T) {
	if NewLinkState() == NewLinkState() {
		t.Error("expected unique state values")
	}
}

func TestAuthURL(t *testing.T) {
	config := LinkConfig(shared.ProxyConfig{
		BaseURL:     "http://proxy.local:8666",
		ClientID:    "familliar-cli",
		RedirectURI: "http://localhost:8667/callback",
	})

	url := AuthURL(config, "state-123")

	if !strings.HasPrefix(url, "http://proxy.local:8666/auth/authorize") {
		t.Errorf("expected URL to start with authorize endpoint, got %s", url)
	}
	if !strings.Contains(url, "state=state-123") {
		t.Errorf("expected URL to carry state, got %s", url)
	}
	if !strings.Contains(url, "client_id=familliar-cli") {
		t.Errorf("expected URL to carry client ID, got %s", url)
	}
}

func TestExchangeCode(t *testing.T) {
	t.Run("returns token on success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/token" {
				t.Errorf("expected path /auth/token, got %s", r.URL.Path)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok_abc","token_type":"bearer"}`))
		}))
		defer server.Close()

		config := LinkConfig(shared.ProxyConfig{
			BaseURL:     server.URL,
			ClientID:    "familliar-cli",
			RedirectURI: "http://localhost:8667/callback",
		})

		token, err := ExchangeCode(context.Background(), config, "code-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "tok_abc" {
			t.Errorf("expected access token tok_abc, got %s", token.AccessToken)
		}
	})

	t.Run("maps failure to ErrAuthFailed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		config := LinkConfig(shared.ProxyConfig{
			BaseURL:     server.URL,
			ClientID:    "familliar-cli",
			RedirectURI: "http://localhost:8667/callback",
		})

		_, err := ExchangeCode(context.Background(), config, "bad-code")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
	})
}
