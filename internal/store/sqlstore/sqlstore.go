// Package sqlstore implements store.Store on top of sqlx for PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"taskvault/internal/store"
	"taskvault/pkg/db"
	"taskvault/pkg/metrics"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Store is a store.Store backed by a SQL database.
type Store struct {
	db         *sqlx.DB
	dialect    string
	migrations []migration
	logger     *zap.Logger
	now        func() time.Time
	onClose    func()
}

var _ store.Store = (*Store)(nil)

// OpenSQLite opens the database file at path. ":memory:" gives a private in-memory database.
func OpenSQLite(path string, logger *zap.Logger) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// sqlite 只允许单写；内存库每个连接都是独立数据库
	conn.SetMaxOpenConns(1)

	return newStore(conn, DialectSQLite, logger, nil), nil
}

// OpenPostgres connects through a pgx pool and exposes it to sqlx.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := db.NewConnection(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	conn := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	return newStore(conn, DialectPostgres, logger, pool.Close), nil
}

func newStore(conn *sqlx.DB, dialect string, logger *zap.Logger, onClose func()) *Store {
	m := sqliteMigrations
	if dialect == DialectPostgres {
		m = postgresMigrations
	}
	return &Store{
		db:         conn,
		dialect:    dialect,
		migrations: m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		onClose:    onClose,
	}
}

// Init applies outstanding migrations.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range s.migrations {
		if m.version <= current {
			continue
		}
		err := s.inTx(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		s.logger.Info("applied migration", zap.String("dialect", s.dialect), zap.Int("version", m.version))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// EnsureUser inserts the user row once.
func (s *Store) EnsureUser(ctx context.Context, email string) error {
	defer s.observe("upsert", "users", time.Now())

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO users (email, created_at) VALUES (?, ?) ON CONFLICT (email) DO NOTHING`),
		email, s.now())
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) observe(operation, table string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, table, time.Since(start))
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// conflict maps primary key violations to store.ErrConflict.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return store.ErrConflict
		}
	}
	return err
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}
