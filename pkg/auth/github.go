package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mgrendahl/tackle/pkg/httputil"
)

// DefaultGitHubClientID is the OAuth App Client ID for Tackle.
// This is public and safe to commit - only the Client Secret must be kept
// private. The Device Flow doesn't require a secret, only the Client ID.
//
// To use your own OAuth App, set TACKLE_GITHUB_CLIENT_ID.
const DefaultGitHubClientID = "Ov23liAq4kXhTz9mRw2C"

// githubScope is requested on both flows: enough to read the profile and
// the verified email addresses, nothing more.
const githubScope = "read:user user:email"

// GitHubConfig holds GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// GitHubProvider implements Provider against GitHub OAuth.
type GitHubProvider struct {
	config     GitHubConfig
	httpClient *http.Client
	authBase   string // https://github.com, overridable in tests
	apiBase    string // https://api.github.com, overridable in tests
}

// NewGitHubProvider creates a GitHub OAuth provider.
func NewGitHubProvider(config GitHubConfig) *GitHubProvider {
	if config.ClientID == "" {
		config.ClientID = DefaultGitHubClientID
	}
	return &GitHubProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		authBase:   "https://github.com",
		apiBase:    "https://api.github.com",
	}
}

// Name implements Provider.
func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the GitHub OAuth authorization URL.
func (p *GitHubProvider) AuthURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURI},
		"scope":        {githubScope},
		"state":        {state},
	}
	return p.authBase + "/login/oauth/authorize?" + params.Encode()
}

// Exchange trades an authorization code for an access token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (Token, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURI},
	}
	return p.tokenRequest(ctx, data)
}

// FetchIdentity resolves an access token to the GitHub user it belongs to.
// Transient failures (network errors, 5xx) are retried with backoff; a 401
// surfaces as [ErrUnauthorized] so callers can drop the session.
func (p *GitHubProvider) FetchIdentity(ctx context.Context, accessToken string) (Identity, error) {
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.getJSON(ctx, p.apiBase+"/user", accessToken, &user)
	})
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Provider:  p.Name(),
		ID:        strconv.FormatInt(user.ID, 10),
		Login:     user.Login,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}, nil
}

// getJSON performs an authenticated GET against the GitHub API and decodes
// the response into v. Network failures and 5xx responses come back wrapped
// in [httputil.RetryableError].
func (p *GitHubProvider) getJSON(ctx context.Context, url, accessToken string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// =============================================================================
// Device flow (CLI login)
// =============================================================================

// DeviceCode contains the response from requesting a device code.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// RequestDeviceCode initiates the device authorization flow.
// The user must visit the VerificationURI and enter the UserCode.
func (p *GitHubProvider) RequestDeviceCode(ctx context.Context) (*DeviceCode, error) {
	data := url.Values{
		"client_id": {p.config.ClientID},
		"scope":     {githubScope},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.authBase+"/login/device/code", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result DeviceCode
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// PollForToken polls GitHub for the access token after user authorization.
// It respects the interval from the device code response.
// Returns the token when authorized, or an error if expired/denied.
func (p *GitHubProvider) PollForToken(ctx context.Context, deviceCode string, interval int) (Token, error) {
	if interval < 5 {
		interval = 5 // GitHub minimum interval
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Token{}, ctx.Err()
		case <-ticker.C:
			data := url.Values{
				"client_id":   {p.config.ClientID},
				"device_code": {deviceCode},
				"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
			}
			token, err := p.tokenRequest(ctx, data)
			if err != nil {
				// Check if it's a "still waiting" error
				if strings.Contains(err.Error(), "authorization_pending") {
					continue
				}
				if strings.Contains(err.Error(), "slow_down") {
					ticker.Reset(time.Duration(interval+5) * time.Second)
					continue
				}
				return Token{}, err // Real error (expired, denied, etc.)
			}
			return token, nil
		}
	}
}

// tokenRequest posts to the token endpoint and decodes the shared
// response shape; both the web exchange and the device poll use it.
func (p *GitHubProvider) tokenRequest(ctx context.Context, data url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", p.authBase+"/login/oauth/access_token", strings.NewReader(data.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Scope       string `json:"scope"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Token{}, fmt.Errorf("decode response: %w", err)
	}

	if result.Error == "access_denied" {
		return Token{}, ErrAccessDenied
	}
	if result.Error != "" {
		return Token{}, fmt.Errorf("%s: %s", result.Error, result.ErrorDesc)
	}

	return Token{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		Scope:       result.Scope,
	}, nil
}

var _ Provider = (*GitHubProvider)(nil)
