// Package migrate applies numbered SQL migrations from a filesystem.
//
// Files are named <version>_<name>.up.sql and <version>_<name>.down.sql.
// Each migration runs in its own transaction together with the row that
// records it.
package migrate

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNothingToRollBack = errors.New("no migrations to roll back")
	ErrNoDownScript      = errors.New("migration has no down script")
)

type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Placeholder returns the bind parameter for the n-th (1-based) argument.
type Placeholder func(n int) string

// QuestionMark is the placeholder style of SQLite.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of PostgreSQL.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

type Migrator struct {
	db          *sql.DB
	table       string
	placeholder Placeholder
	migrations  []Migration
}

// New returns a migrator that tracks applied versions in table.
func New(db *sql.DB, table string, placeholder Placeholder) *Migrator {
	if placeholder == nil {
		placeholder = QuestionMark
	}
	return &Migrator{db: db, table: table, placeholder: placeholder}
}

// LoadFromFS reads the migrations in dir. Files that do not follow the
// naming scheme are ignored.
func (m *Migrator) LoadFromFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(file, ".sql") {
			continue
		}
		prefix, rest, ok := strings.Cut(file, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		if name, ok := strings.CutSuffix(rest, ".up.sql"); ok {
			mig.Name, mig.Up = name, string(body)
		} else if _, ok := strings.CutSuffix(rest, ".down.sql"); ok {
			mig.Down = string(body)
		}
	}

	m.migrations = m.migrations[:0]
	for _, mig := range byVersion {
		if mig.Up == "" {
			return fmt.Errorf("migration %d has no up script", mig.Version)
		}
		m.migrations = append(m.migrations, *mig)
	}
	slices.SortFunc(m.migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return nil
}

// Migrations returns the loaded migrations in version order.
func (m *Migrator) Migrations() []Migration {
	return slices.Clone(m.migrations)
}

// Version returns the highest applied version, 0 when none.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	return m.current(ctx)
}

// Pending returns the loaded migrations newer than the applied version.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, mig := range m.migrations {
		if mig.Version > current {
			out = append(out, mig)
		}
	}
	return out, nil
}

// Up applies all pending migrations in order and stops at the first failure.
func (m *Migrator) Up(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s (version, name, applied_at) VALUES (%s, %s, %s)",
		m.table, m.placeholder(1), m.placeholder(2), m.placeholder(3))

	for _, mig := range pending {
		err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, insert, mig.Version, mig.Name, time.Now().Unix())
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d_%s: %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	current, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		return ErrNothingToRollBack
	}

	i := slices.IndexFunc(m.migrations, func(mig Migration) bool { return mig.Version == current })
	if i < 0 {
		return fmt.Errorf("applied migration %d is not loaded", current)
	}
	mig := m.migrations[i]
	if mig.Down == "" {
		return fmt.Errorf("%w: %d", ErrNoDownScript, current)
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE version = %s", m.table, m.placeholder(1))
	err = m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, del, current)
		return err
	})
	if err != nil {
		return fmt.Errorf("roll back migration %d: %w", current, err)
	}
	return nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at BIGINT NOT NULL
)`, m.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", m.table, err)
	}
	return nil
}

func (m *Migrator) current(ctx context.Context) (int, error) {
	var v int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+m.table).Scan(&v)
	return v, err
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
