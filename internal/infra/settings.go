package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

const settingsDBName = "settings.db"

// EncryptedSettings implements domain.SettingsStore on a SQLCipher database.
type EncryptedSettings struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewEncryptedSettings opens (or creates) the settings database in dataDir.
func NewEncryptedSettings(dataDir string, key []byte) (*EncryptedSettings, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, settingsDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}
	// Single writer; the daemon and CLI reopen per process.
	db.SetMaxOpenConns(1)

	// A wrong key surfaces here, not at Open.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EncryptedSettings{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// OpenSettings resolves the key for dataDir and opens the store.
func OpenSettings(dataDir string) (*EncryptedSettings, error) {
	key, err := EnsureKey(NewFileKeyProvider(dataDir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSettingsUnavailable, err)
	}
	s, err := NewEncryptedSettings(dataDir, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSettingsUnavailable, err)
	}
	return s, nil
}

func (s *EncryptedSettings) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	return err
}

// MonitoringEnabled returns the persisted toggle; an unset key reads as false.
func (s *EncryptedSettings) MonitoringEnabled() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, domain.MonitoringEnabledKey).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrSettingsUnavailable, err)
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: bad %s value %q", domain.ErrSettingsUnavailable, domain.MonitoringEnabledKey, value)
	}
	return enabled, nil
}

// SetMonitoringEnabled persists the toggle.
func (s *EncryptedSettings) SetMonitoringEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
		domain.MonitoringEnabledKey, strconv.FormatBool(enabled), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSettingsUnavailable, err)
	}
	return nil
}

// Path returns the database file path.
func (s *EncryptedSettings) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedSettings) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure EncryptedSettings implements domain.SettingsStore.
var _ domain.SettingsStore = (*EncryptedSettings)(nil)
