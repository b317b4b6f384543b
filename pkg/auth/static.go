package auth

import "context"

// StaticProvider returns a fixed identity for every exchange. Used by
// the dev server when no OAuth app is configured, and by tests.
type StaticProvider struct {
	identity Identity
}

// NewStaticProvider creates a provider that always signs in the given
// user. Empty fields get development defaults.
func NewStaticProvider(login, name, email string) *StaticProvider {
	if login == "" {
		login = "local"
	}
	if name == "" {
		name = "Local User"
	}
	return &StaticProvider{identity: Identity{
		Provider: "static",
		ID:       login,
		Login:    login,
		Name:     name,
		Email:    email,
	}}
}

// Name implements Provider.
func (p *StaticProvider) Name() string { return "static" }

// AuthURL returns the callback URL directly; there is no consent screen.
// The state is round-tripped so the callback handler validates it the
// same way it would for a real provider.
func (p *StaticProvider) AuthURL(state string) string {
	return "/api/v1/auth/callback?code=static&state=" + state
}

// Exchange accepts any code and returns a placeholder token.
func (p *StaticProvider) Exchange(_ context.Context, _ string) (Token, error) {
	return Token{AccessToken: "static-token", TokenType: "bearer"}, nil
}

// FetchIdentity returns the configured identity regardless of token.
func (p *StaticProvider) FetchIdentity(_ context.Context, _ string) (Identity, error) {
	return p.identity, nil
}

var _ Provider = (*StaticProvider)(nil)
