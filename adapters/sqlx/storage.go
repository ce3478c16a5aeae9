package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	libsqlx "github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // default driver; others must be registered by the caller
)

// Driver names a supported SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL storage configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for a driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface on a SQL database. Layout:
// - state_blobs(key PRIMARY KEY, payload, updated_at)
// - state_backups(name PRIMARY KEY, key, payload, reason, created_at)
type Store struct {
	db     *libsqlx.DB
	driver Driver
}

// New connects and prepares the schema.
func New(config Config) (*Store, error) {
	if config.DSN == "" {
		return nil, errors.New("sql storage requires a DSN")
	}
	db, err := libsqlx.Connect(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Driver, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &Store{db: db, driver: config.Driver}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *libsqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_blobs (
			key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS state_backups (
			name TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			payload BYTEA NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowxContext(ctx,
		s.db.Rebind(`SELECT payload FROM state_blobs WHERE key = ?`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load blob: %w", err)
	}
	return payload, true, nil
}

func (s *Store) Save(ctx context.Context, key string, raw []byte) error {
	var query string
	switch s.driver {
	case DriverMySQL:
		query = `INSERT INTO state_blobs (key, payload, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO state_blobs (key, payload, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save blob: %w", err)
	}
	return nil
}

func (s *Store) Backup(ctx context.Context, key string, raw []byte, reason string) (string, error) {
	now := time.Now().UTC()
	name := fmt.Sprintf("%s.%s.%d", key, reason, now.UnixNano())
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO state_backups (name, key, payload, reason, created_at) VALUES (?, ?, ?, ?, ?)`),
		name, key, raw, reason, now)
	if err != nil {
		return "", fmt.Errorf("failed to back up blob: %w", err)
	}
	return name, nil
}
