package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Storage keys. The backend token lives under TokenKey; a transient
// one-time password lives under otpKey until the reset completes.
const (
	tokenKey = "Token"
	otpKey   = "otp"
)

// CredentialStore persists the client's opaque bearer token and the
// transient reset OTP in a local SQLite key-value table. Single
// writer, single reader; a read after a write always observes the new
// value.
type CredentialStore struct {
	db *sql.DB

	getStmt *sql.Stmt
	setStmt *sql.Stmt
	delStmt *sql.Stmt
}

// OpenCredentialStore opens (or creates) the credential database at
// path, applies the schema, and prepares common statements.
func OpenCredentialStore(path string) (*CredentialStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credential dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (key TEXT PRIMARY KEY, value TEXT NOT NULL);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	store := &CredentialStore{db: db}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (c *CredentialStore) prepareStatements() error {
	var err error
	if c.getStmt, err = c.db.Prepare(`SELECT value FROM credentials WHERE key=?`); err != nil {
		return err
	}
	if c.setStmt, err = c.db.Prepare(`INSERT INTO credentials(key,value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`); err != nil {
		return err
	}
	if c.delStmt, err = c.db.Prepare(`DELETE FROM credentials WHERE key=?`); err != nil {
		return err
	}
	return nil
}

// Close releases prepared statements and closes the DB.
func (c *CredentialStore) Close() error {
	if c.getStmt != nil {
		c.getStmt.Close()
	}
	if c.setStmt != nil {
		c.setStmt.Close()
	}
	if c.delStmt != nil {
		c.delStmt.Close()
	}
	return c.db.Close()
}

func (c *CredentialStore) get(key string) (string, bool) {
	var value string
	err := c.getStmt.QueryRow(key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *CredentialStore) set(key, value string) error {
	_, err := c.setStmt.Exec(key, value)
	return err
}

func (c *CredentialStore) remove(key string) error {
	_, err := c.delStmt.Exec(key)
	return err
}

// Token returns the stored bearer token, reporting whether one exists.
// The token is opaque; only the backend can say whether it is valid.
func (c *CredentialStore) Token() (string, bool) { return c.get(tokenKey) }

// SetToken stores the bearer token returned by a login or reset.
func (c *CredentialStore) SetToken(token string) error { return c.set(tokenKey, token) }

// ClearToken removes the stored bearer token.
func (c *CredentialStore) ClearToken() error { return c.remove(tokenKey) }

// OTP returns the transient reset OTP, reporting whether one exists.
func (c *CredentialStore) OTP() (string, bool) { return c.get(otpKey) }

// SetOTP stores the OTP received from the send-OTP endpoint.
func (c *CredentialStore) SetOTP(otp string) error { return c.set(otpKey, otp) }

// ClearOTP removes the transient OTP after a completed reset.
func (c *CredentialStore) ClearOTP() error { return c.remove(otpKey) }
