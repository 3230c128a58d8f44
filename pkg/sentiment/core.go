package sentiment

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultRequestTimeout = 2 * time.Minute

// Options controls Core initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger
	// Invoker replaces the provider clients built from model settings.
	Invoker ModelInvoker
	// APIKeys resolves the key for a provider when a request carries none.
	APIKeys func(provider string) string
	// RequestTimeout bounds a single model call.
	RequestTimeout time.Duration
	// Alerts replaces the SQLite alert store.
	Alerts AlertStore
}

// Core wires the analysis pipeline to model providers and local storage.
type Core struct {
	db      *sql.DB
	logger  *slog.Logger
	invoker ModelInvoker
	apiKeys func(string) string
	timeout time.Duration
	alerts  AlertStore
	dbPath  string
	now     func() time.Time
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}
	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	apiKeys := opts.APIKeys
	if apiKeys == nil {
		apiKeys = func(string) string { return "" }
	}
	alerts := opts.Alerts
	if alerts == nil {
		alerts = &sqliteAlertStore{db: db}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Core{
		db:      db,
		logger:  logger,
		invoker: opts.Invoker,
		apiKeys: apiKeys,
		timeout: timeout,
		alerts:  alerts,
		dbPath:  cleanPath,
		now:     time.Now,
	}, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}
