package gcal

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// TokenStore persists the OAuth token captured by the consent callback
type TokenStore interface {
	GetGoogleRefreshToken() (string, error)
	SaveGoogleToken(token *oauth2.Token, scopes []string) error
}

// Client wraps the Google Calendar API client. A fresh calendar service is
// built per call so each request refreshes its own access token.
type Client struct {
	cfg    Config
	oauth  *oauth2.Config
	store  TokenStore
	logger *zap.Logger

	// endpoint overrides the Calendar API base URL
	endpoint string
}

// NewClient creates a new Google Calendar client. store may be nil.
func NewClient(cfg Config, store TokenStore, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		oauth:  newOAuthConfig(cfg),
		store:  store,
		logger: logger,
	}
}

// Mode returns the configured authentication mode
func (c *Client) Mode() Mode {
	return c.cfg.Mode()
}

// calendarService authenticates according to Mode and returns a service
func (c *Client) calendarService(ctx context.Context) (*calendar.Service, error) {
	var opts []option.ClientOption

	switch c.Mode() {
	case ModeOAuth:
		token, err := c.refreshAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("oauth token refreshed")
		opts = append(opts, option.WithHTTPClient(c.oauth.Client(ctx, token)))
	case ModeServiceAccount:
		opts = append(opts, option.WithHTTPClient(newJWTConfig(c.cfg).Client(ctx)))
	default:
		return nil, ErrNotConfigured
	}

	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}
