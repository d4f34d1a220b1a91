package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/module"
	"github.com/plaenen/cmscore/pkg/store"
	"github.com/plaenen/cmscore/pkg/store/storetest"
)

type storeSuite struct {
	storetest.ContractSuite
	open  func() (*Store, error)
	store *Store
}

func (s *storeSuite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close())
		s.store = nil
	}
}

func newStoreSuite(open func() (*Store, error)) *storeSuite {
	s := &storeSuite{open: open}
	s.New = func() store.Repositories {
		st, err := s.open()
		s.Require().NoError(err)
		s.store = st
		return st.Repositories()
	}
	return s
}

func TestSQLiteRepositories(t *testing.T) {
	suite.Run(t, newStoreSuite(func() (*Store, error) {
		return Open(context.Background(), WithMemoryDatabase())
	}))
}

func TestSQLiteFileRepositories(t *testing.T) {
	dir := t.TempDir()
	n := 0
	suite.Run(t, newStoreSuite(func() (*Store, error) {
		n++
		return Open(context.Background(), WithDSN(filepath.Join(dir, fmt.Sprintf("cms-%d.db", n))), WithWALMode(true))
	}))
}

// Set CMS_TEST_POSTGRES_DSN to a scratch database to run the contract
// against PostgreSQL. Tables are dropped between tests.
func TestPostgresRepositories(t *testing.T) {
	dsn := os.Getenv("CMS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CMS_TEST_POSTGRES_DSN not set")
	}
	suite.Run(t, newStoreSuite(func() (*Store, error) {
		ctx := context.Background()
		store, err := Open(ctx, WithDriver(Postgres), WithDSN(dsn), WithAutoMigrate(false))
		if err != nil {
			return nil, err
		}
		for _, table := range []string{"languages", "module_types", "modules", "users", migrationsTable} {
			if _, err := store.DB().ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return nil, err
			}
		}
		return store, store.Migrate(ctx)
	}))
}

func TestSchemaVersion(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, WithMemoryDatabase())
	require.NoError(t, err)
	defer store.Close()

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.NoError(t, store.HealthCheck(ctx))
	assert.Equal(t, SQLite, store.Driver())
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, WithMemoryDatabase())
	require.NoError(t, err)
	defer store.Close()

	site := uuid.New()
	repo := store.Modules()
	newModule := func() *module.Module {
		return module.Restore(module.State{SiteID: site, ID: uuid.New(), ModuleTypeID: uuid.New(), Title: "T", Status: domain.StatusActive})
	}

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Create(ctx, newModule()))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		all, err := repo.GetAll(ctx, site)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("commit", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newModule()); err != nil {
				return err
			}
			return store.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Create(ctx, newModule())
			})
		})
		require.NoError(t, err)

		all, err := repo.GetAll(ctx, site)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestMapError(t *testing.T) {
	err := mapError("create language", &pgconn.PgError{Code: "23505", ConstraintName: "languages_name_key"})
	var uc *domain.UniqueConstraintError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "languages_name_key", uc.Constraint)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	err = mapError("get", errors.New("connection reset"))
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "get", pe.Op)

	assert.NoError(t, mapError("noop", nil))
}

func TestSQLiteConstraint(t *testing.T) {
	assert.Equal(t, "languages.site_id, languages.name",
		sqliteConstraint("constraint failed: UNIQUE constraint failed: languages.site_id, languages.name (2067)"))
	assert.Equal(t, "odd", sqliteConstraint("odd"))
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{driver: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{"": SQLite, "sqlite": SQLite, "postgres": Postgres, "pgx": Postgres} {
		got, err := ParseDriver(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDriver("oracle")
	assert.Error(t, err)
}
