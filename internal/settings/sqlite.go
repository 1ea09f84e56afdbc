package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"quickopen/internal/logging"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// SQLiteStore keeps settings in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	callbacks
}

// Open opens or creates the settings database at dbPath. The parent
// directory is created if missing.
func Open(ctx context.Context, dbPath string) (s *SQLiteStore, err error) {
	start := time.Now()
	defer func() { observe("open", start, err) }()

	logging.Info("Settings database path: %s", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := diagnosePermissions(dbPath); err != nil {
		logging.Warn("Settings database permission diagnostics: %v", err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to settings database: %w", err)
	}

	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Register declares a setting, storing defaultValue if it has no value yet.
func (s *SQLiteStore) Register(name string, defaultValue any, onChange OnChange) (err error) {
	start := time.Now()
	defer func() { observe("register", start, err) }()

	raw, err := encode(name, defaultValue)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO settings (name, value) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, raw)
	if err != nil {
		return fmt.Errorf("register setting %s: %w", name, err)
	}

	s.add(name, onChange)
	return nil
}

// Get decodes the current value of name into v.
func (s *SQLiteStore) Get(name string, v any) (err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	if !s.registered(name) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var raw string
	err = s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE name = ?", name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	if err != nil {
		return fmt.Errorf("get setting %s: %w", name, err)
	}
	return decode(name, raw, v)
}

// Set stores v as the value of name and notifies subscribers.
func (s *SQLiteStore) Set(name string, v any) (err error) {
	start := time.Now()
	defer func() { observe("set", start, err) }()

	if !s.registered(name) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	raw, err := encode(name, v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, raw)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", name, err)
	}

	s.fire(name)
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// diagnosePermissions logs problems that would make the database unwritable.
func diagnosePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat settings directory: %w", err)
	}
	logging.Debug("Settings directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("settings directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only (mode %v); attempting to fix", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
			}
		}
	}
	return nil
}
