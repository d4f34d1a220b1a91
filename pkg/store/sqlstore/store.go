// Package sqlstore implements the aggregate repositories on database/sql.
// Two dialects are supported: SQLite through modernc.org/sqlite (pure Go)
// and PostgreSQL through the pgx stdlib driver.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/plaenen/cmscore/pkg/store"
	"github.com/plaenen/cmscore/pkg/store/sqlstore/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "cms_schema_migrations"

// Driver selects the SQL dialect.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// ParseDriver accepts "sqlite" and "postgres" (or "pgx").
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("unknown store driver %q", s)
}

func (d Driver) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Driver) placeholder() migrate.Placeholder {
	if d == Postgres {
		return migrate.Dollar
	}
	return migrate.QuestionMark
}

type config struct {
	driver       Driver
	dsn          string
	maxOpenConns int
	maxIdleConns int
	walMode      bool
	autoMigrate  bool
	logger       *slog.Logger
}

func defaultConfig() config {
	return config{
		driver:       SQLite,
		dsn:          "cms.db",
		maxOpenConns: 25,
		maxIdleConns: 5,
		walMode:      true,
		autoMigrate:  true,
		logger:       slog.Default(),
	}
}

// Option configures a Store.
type Option func(*config)

// WithDriver selects SQLite or PostgreSQL.
func WithDriver(d Driver) Option {
	return func(c *config) {
		c.driver = d
	}
}

// WithDSN sets the data source name: a file path or ":memory:" for SQLite,
// a connection URL for PostgreSQL.
func WithDSN(dsn string) Option {
	return func(c *config) {
		c.dsn = dsn
	}
}

// WithMemoryDatabase uses a private in-memory SQLite database.
func WithMemoryDatabase() Option {
	return func(c *config) {
		c.driver = SQLite
		c.dsn = ":memory:"
		c.walMode = false
	}
}

func WithMaxOpenConns(n int) Option {
	return func(c *config) {
		c.maxOpenConns = n
	}
}

func WithMaxIdleConns(n int) Option {
	return func(c *config) {
		c.maxIdleConns = n
	}
}

// WithWALMode enables write-ahead logging. SQLite file databases only.
func WithWALMode(enabled bool) Option {
	return func(c *config) {
		c.walMode = enabled
	}
}

// WithAutoMigrate runs pending migrations when the store is opened.
func WithAutoMigrate(enabled bool) Option {
	return func(c *config) {
		c.autoMigrate = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Store owns the connection pool shared by the repositories.
type Store struct {
	db     *sql.DB
	driver Driver
	logger *slog.Logger
}

// Open connects to the database and, unless disabled, applies migrations.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := cfg.dsn
	if cfg.driver == SQLite && dsn != ":memory:" && !strings.Contains(dsn, "_pragma=") {
		// Pragmas in the DSN apply to every pooled connection.
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open(cfg.driver.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" gets its own database.
	if cfg.driver == SQLite && cfg.dsn == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.maxOpenConns)
		db.SetMaxIdleConns(cfg.maxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, driver: cfg.driver, logger: cfg.logger}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.driver == SQLite {
		if err := s.configureSQLite(ctx, cfg.walMode && cfg.dsn != ":memory:"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure sqlite: %w", err)
		}
	}

	if cfg.autoMigrate {
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	s.logger.Debug("store opened", slog.String("driver", string(cfg.driver)))
	return s, nil
}

func (s *Store) configureSQLite(ctx context.Context, wal bool) error {
	pragmas := "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"
	if wal {
		pragmas += " PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;"
	}
	_, err := s.db.ExecContext(ctx, pragmas)
	return err
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	m := migrate.New(s.db, migrationsTable, s.driver.placeholder())
	if err := m.LoadFromFS(migrationsFS, "migrations"); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return migrate.New(s.db, migrationsTable, s.driver.placeholder()).Version(ctx)
}

func (s *Store) Driver() Driver { return s.driver }

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Languages returns the language repository backed by this store.
func (s *Store) Languages() *LanguageRepository { return &LanguageRepository{s: s} }

// ModuleTypes returns the module type repository backed by this store.
func (s *Store) ModuleTypes() *ModuleTypeRepository { return &ModuleTypeRepository{s: s} }

// Modules returns the module repository backed by this store.
func (s *Store) Modules() *ModuleRepository { return &ModuleRepository{s: s} }

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

type txKey struct{}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithinTx runs fn in a transaction. Repository calls made with the context
// passed to fn join the transaction. Nested calls reuse the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// rebind rewrites "?" placeholders for the store's dialect.
func (s *Store) rebind(query string) string {
	if s.driver != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(migrate.Dollar(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Repositories returns every repository backed by this store.
func (s *Store) Repositories() store.Repositories {
	return store.Repositories{
		Languages:   s.Languages(),
		ModuleTypes: s.ModuleTypes(),
		Modules:     s.Modules(),
		Users:       s.Users(),
	}
}
