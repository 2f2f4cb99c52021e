package migrations

import "database/sql"

func init() {
	Register(Migration{Version: 1, Name: "google_tokens", Up: createGoogleTokens})
}

// One row per authorized Google account; both tokens are AES-GCM sealed
func createGoogleTokens(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS google_tokens (
		account TEXT PRIMARY KEY,
		access_token_encrypted BLOB,
		refresh_token_encrypted BLOB NOT NULL,
		token_type TEXT,
		expiry DATETIME,
		scopes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}
