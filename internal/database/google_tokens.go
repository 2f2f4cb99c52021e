package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAccount is the row used by the single-tenant assistant
const DefaultAccount = "default"

var errNoRefreshToken = errors.New("token has no refresh token")

// GetGoogleToken retrieves the stored OAuth2 token. It returns nil, nil when
// no account has been authorized yet.
func (d *DB) GetGoogleToken() (*oauth2.Token, error) {
	var (
		accessSealed, refreshSealed []byte
		tokenType                   sql.NullString
		expiry                      sql.NullTime
	)
	err := d.QueryRow(`
		SELECT access_token_encrypted, refresh_token_encrypted, token_type, expiry
		FROM google_tokens WHERE account = ?
	`, DefaultAccount).Scan(&accessSealed, &refreshSealed, &tokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get google token: %w", err)
	}

	token := &oauth2.Token{TokenType: tokenType.String, Expiry: expiry.Time}
	if token.RefreshToken, err = d.sealer.open(refreshSealed); err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	if len(accessSealed) > 0 {
		if token.AccessToken, err = d.sealer.open(accessSealed); err != nil {
			return nil, fmt.Errorf("failed to decrypt access token: %w", err)
		}
	}
	return token, nil
}

// GetGoogleRefreshToken returns the stored refresh token, or "" if none
func (d *DB) GetGoogleRefreshToken() (string, error) {
	token, err := d.GetGoogleToken()
	if err != nil || token == nil {
		return "", err
	}
	return token.RefreshToken, nil
}

// SaveGoogleToken stores an OAuth2 token (upsert). A token without a refresh
// token keeps the previously stored one.
func (d *DB) SaveGoogleToken(token *oauth2.Token, scopes []string) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		existing, err := d.GetGoogleRefreshToken()
		if err != nil {
			return err
		}
		if existing == "" {
			return errNoRefreshToken
		}
		refreshToken = existing
	}

	accessSealed, err := d.sealer.seal(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshSealed, err := d.sealer.seal(refreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}

	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("failed to marshal scopes: %w", err)
	}

	_, err = d.Exec(`
		INSERT INTO google_tokens (account, access_token_encrypted, refresh_token_encrypted, token_type, expiry, scopes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(account) DO UPDATE SET
			access_token_encrypted = excluded.access_token_encrypted,
			refresh_token_encrypted = excluded.refresh_token_encrypted,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			scopes = excluded.scopes,
			updated_at = CURRENT_TIMESTAMP
	`, DefaultAccount, accessSealed, refreshSealed, token.TokenType, expiry, string(scopesJSON))

	if err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}

	return nil
}

// DeleteGoogleToken removes the stored OAuth2 token
func (d *DB) DeleteGoogleToken() error {
	_, err := d.Exec(`DELETE FROM google_tokens WHERE account = ?`, DefaultAccount)
	if err != nil {
		return fmt.Errorf("failed to delete google token: %w", err)
	}
	return nil
}

// GoogleTokenInfo represents token metadata without the actual token values
type GoogleTokenInfo struct {
	HasToken  bool       `json:"hasToken"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`
}

// GetGoogleTokenInfo retrieves token metadata without exposing the actual tokens
func (d *DB) GetGoogleTokenInfo() (*GoogleTokenInfo, error) {
	var expiry, updatedAt sql.NullTime
	var scopes sql.NullString

	err := d.QueryRow(`
		SELECT expiry, updated_at, scopes
		FROM google_tokens WHERE account = ?
	`, DefaultAccount).Scan(&expiry, &updatedAt, &scopes)

	if errors.Is(err, sql.ErrNoRows) {
		return &GoogleTokenInfo{HasToken: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get google token info: %w", err)
	}

	info := &GoogleTokenInfo{HasToken: true}
	if expiry.Valid {
		info.ExpiresAt = &expiry.Time
	}
	if updatedAt.Valid {
		info.UpdatedAt = &updatedAt.Time
	}
	if scopes.Valid && scopes.String != "" {
		info.Scopes = splitScopes(scopes.String)
	}

	return info, nil
}

// splitScopes parses a JSON array of scopes into a slice
func splitScopes(scopeStr string) []string {
	if scopeStr == "" || scopeStr == "null" {
		return nil
	}

	var scopes []string
	if err := json.Unmarshal([]byte(scopeStr), &scopes); err == nil {
		return scopes
	}

	// Space-separated, as returned in the token response
	return strings.Fields(scopeStr)
}
