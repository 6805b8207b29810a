// Account-link flow for the Familliar library proxy
//
// The proxy brokers OAuth against the upstream streaming account. Linking
// runs the standard authorization-code flow: open the browser at AuthURL,
// catch the code on the loopback callback, exchange it for a bearer token,
// and persist the token to config for ProxyService.
package services

import (
	"context"
	"fmt"

	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"golang.org/x/oauth2"
)

const (
	authorizePath = "/auth/authorize"
	tokenPath     = "/auth/token"
)

// LinkConfig builds the oauth2 configuration for the proxy's account-link
// endpoints from the [proxy] config section.
func LinkConfig(proxy shared.ProxyConfig) *oauth2.Config {
	baseURL := proxy.BaseURL
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}

	return &oauth2.Config{
		ClientID:    proxy.ClientID,
		RedirectURL: proxy.RedirectURI,
		Scopes: []string{
			"library.read",
			"stream",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  baseURL + authorizePath,
			TokenURL: baseURL + tokenPath,
		},
	}
}

// NewLinkState returns a fresh opaque state value for one link attempt.
func NewLinkState() string {
	return shared.GenerateID()
}

// AuthURL returns the browser URL that starts the link flow.
func AuthURL(config *oauth2.Config, state string) string {
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades a callback authorization code for a bearer token.
func ExchangeCode(ctx context.Context, config *oauth2.Config, code string) (*oauth2.Token, error) {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}
