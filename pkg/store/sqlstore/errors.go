package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/plaenen/cmscore/pkg/domain"
)

const pgUniqueViolation = "23505"

// mapError converts driver errors to domain errors. Unique violations keep
// their constraint name; everything else becomes a *domain.PersistenceError.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.NewPersistenceError(op, &domain.UniqueConstraintError{Constraint: pgErr.ConstraintName})
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return domain.NewPersistenceError(op, &domain.UniqueConstraintError{Constraint: sqliteConstraint(liteErr.Error())})
		}
	}

	return domain.NewPersistenceError(op, err)
}

// sqliteConstraint extracts "languages.site_id, languages.name" from
// "UNIQUE constraint failed: languages.site_id, languages.name (2067)".
func sqliteConstraint(msg string) string {
	const marker = "constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return msg
	}
	rest := msg[i+len(marker):]
	if j := strings.LastIndex(rest, " ("); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// versioned is implemented by every aggregate root.
type versioned interface {
	ID() uuid.UUID
	Version() int64
	MarkPersisted(int64)
}

// updateVersioned runs an UPDATE guarded by "version = ?" and classifies a
// zero-row result as not found or as a concurrency conflict.
func (s *Store) updateVersioned(ctx context.Context, aggregateType, table string, siteID uuid.UUID, agg versioned, query string, args ...any) error {
	expected := agg.Version()
	res, err := s.conn(ctx).ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return mapError("update "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("update "+table, err)
	}
	if n == 1 {
		agg.MarkPersisted(expected + 1)
		return nil
	}

	var actual int64
	q := "SELECT version FROM " + table + " WHERE id = ?"
	qargs := []any{agg.ID().String()}
	if table != "users" {
		q += " AND site_id = ?"
		qargs = append(qargs, siteID.String())
	}
	err = s.conn(ctx).QueryRowContext(ctx, s.rebind(q), qargs...).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{AggregateType: aggregateType, ID: agg.ID()}
	}
	if err != nil {
		return mapError("update "+table, err)
	}
	return &domain.ConcurrencyConflictError{AggregateType: aggregateType, ID: agg.ID(), Expected: expected, Actual: actual}
}

func notFound(aggregateType string, id uuid.UUID, err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{AggregateType: aggregateType, ID: id}
	}
	return mapError(op, err)
}

func nowMillis() int64 {
	return domain.Now().UnixMilli()
}

func seq() int64 {
	return domain.Now().UnixNano()
}
