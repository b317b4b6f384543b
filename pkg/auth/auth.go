// Package auth provides the identity gateway for sign-in.
//
// The package deliberately stays narrow: it turns an OAuth authorization
// code into an access token and an access token into an [Identity]. It
// does not manage cookies or sessions; that is the session package's
// job. Implementations:
//   - github: GitHub OAuth (web redirect flow plus the device flow used
//     by the CLI)
//   - static: fixed identity for development without an OAuth app
//
// # Usage
//
//	provider := auth.NewGitHubProvider(auth.GitHubConfig{
//	    ClientID:     clientID,
//	    ClientSecret: clientSecret,
//	    RedirectURI:  "https://crm.example.com/api/v1/auth/callback",
//	})
//
//	// Redirect the browser:
//	http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
//
//	// In the callback:
//	token, err := provider.Exchange(ctx, code)
//	identity, err := provider.FetchIdentity(ctx, token.AccessToken)
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when the provider rejects the exchange,
	// for example when the user cancelled the authorization screen.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnauthorized is returned when an access token is no longer valid.
	// Callers holding a session for that token should discard it.
	ErrUnauthorized = errors.New("invalid or expired token")

	// ErrNetwork is returned for HTTP failures reaching the provider
	// (timeouts, connection errors, unexpected status codes).
	ErrNetwork = errors.New("network error")
)

// Identity is a provider-agnostic snapshot of the signed-in user.
type Identity struct {
	Provider  string `json:"provider"`
	ID        string `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Key returns the storage-scoped user identifier.
// Format: "{provider}:{id}", e.g. "github:583231". This value namespaces
// record ownership and cache keys, so it must be stable across logins.
func (i Identity) Key() string {
	return fmt.Sprintf("%s:%s", i.Provider, i.ID)
}

// DisplayName returns the best human-readable name available.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Login
}

// Token is an access token returned by a provider exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// Provider is the interface sign-in flows are built against.
type Provider interface {
	// Name identifies the provider ("github", "static"). It becomes the
	// Provider field of every Identity the provider returns.
	Name() string

	// AuthURL returns the URL to send the user's browser to. The state
	// token is round-tripped by the provider for CSRF protection.
	AuthURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (Token, error)

	// FetchIdentity resolves an access token to the user it belongs to.
	FetchIdentity(ctx context.Context, accessToken string) (Identity, error)
}
