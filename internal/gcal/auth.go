package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
)

// DefaultRedirectPath is where Google sends the user back after consent
const DefaultRedirectPath = "/api/auth/google/callback"

// OAuthScopes contains only the Calendar scope
var OAuthScopes = []string{
	calendar.CalendarScope,
}

var (
	// ErrNotConfigured means neither OAuth nor service account credentials are set
	ErrNotConfigured = errors.New("google calendar credentials not configured")
	// ErrOAuthNotConfigured means the OAuth client id or secret is missing
	ErrOAuthNotConfigured = errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	// ErrMissingRefreshToken means OAuth is configured but nobody has authorized yet
	ErrMissingRefreshToken = errors.New("google oauth refresh token missing")
	// ErrInvalidGrant means Google rejected the refresh token as expired or revoked
	ErrInvalidGrant = errors.New("google oauth token expired or invalid")
)

// Mode is how the client authenticates against Google
type Mode string

const (
	ModeNone           Mode = "none"
	ModeOAuth          Mode = "oauth"
	ModeServiceAccount Mode = "service_account"
)

// Config holds Google credentials. OAuth user credentials win over a service
// account when both are present.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RefreshToken string

	ServiceAccountEmail string
	// PrivateKey may carry literal "\n" sequences, as env files usually do
	PrivateKey string
}

// HasOAuth reports whether OAuth client credentials are set
func (c Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// HasServiceAccount reports whether service account credentials are set
func (c Config) HasServiceAccount() bool {
	return c.ServiceAccountEmail != "" && c.PrivateKey != ""
}

// Mode returns the configured authentication mode
func (c Config) Mode() Mode {
	switch {
	case c.HasOAuth():
		return ModeOAuth
	case c.HasServiceAccount():
		return ModeServiceAccount
	default:
		return ModeNone
	}
}

func newOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       OAuthScopes,
		Endpoint:     google.Endpoint,
	}
}

func newJWTConfig(cfg Config) *jwt.Config {
	return &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     OAuthScopes,
		TokenURL:   google.JWTTokenURL,
	}
}

// AuthURL returns the consent URL. Offline access with forced consent makes
// Google issue a refresh token every time.
func (c *Client) AuthURL(state string) (string, error) {
	if !c.cfg.HasOAuth() {
		return "", ErrOAuthNotConfigured
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and stores it when a
// token store is attached
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !c.cfg.HasOAuth() {
		return nil, ErrOAuthNotConfigured
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if c.store != nil && token.RefreshToken != "" {
		if err := c.store.SaveGoogleToken(token, OAuthScopes); err != nil {
			c.logger.Warn("could not store google token", zap.Error(err))
			return token, fmt.Errorf("failed to save token: %w", err)
		}
	}

	return token, nil
}

// RefreshToken returns the refresh token to use. A token captured by the
// OAuth callback is newer than one from configuration, so it wins.
func (c *Client) RefreshToken() string {
	if c.store != nil {
		token, err := c.store.GetGoogleRefreshToken()
		if err != nil {
			c.logger.Warn("failed to read stored refresh token", zap.Error(err))
		} else if token != "" {
			return token
		}
	}
	return c.cfg.RefreshToken
}

// refreshAccessToken exchanges the refresh token for a fresh access token
func (c *Client) refreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	refresh := c.RefreshToken()
	if refresh == "" {
		return nil, ErrMissingRefreshToken
	}

	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		if isInvalidGrant(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return token, nil
}

func isInvalidGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}
