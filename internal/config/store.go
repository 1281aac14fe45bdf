package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// driverNames maps each dialect to its database/sql driver name.
var driverNames = map[Dialect]string{
	DialectSQLite:   "sqlite",
	DialectPostgres: "pgx",
	DialectMySQL:    "mysql",
}

// ParseDialect validates a configured driver name. The empty string selects
// SQLite.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want sqlite, postgres or mysql)", name)
	}
}

// Store is the account store: admins and the users each admin owns. It runs
// on SQLite (default), PostgreSQL or MySQL. Uniqueness of admin IDs and of
// (admin, username) pairs is enforced by table constraints, not in process.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewStore opens the SQLite store under dataDir. Pass empty string for
// in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "roster.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	return Open(DialectSQLite, dsn)
}

// Open connects to the given backend and applies migrations.
func Open(dialect Dialect, dsn string) (*Store, error) {
	driver, ok := driverNames[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	if dialect == DialectMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

		// Enable foreign keys (off by default in SQLite).
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate account database: %w", err)
	}
	return s, nil
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time, and
// clientFoundRows so an UPDATE that matches a row but changes nothing still
// reports one affected row.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect reports which backend the store runs on.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// insert runs a named INSERT and returns the generated primary key. pgx does
// not implement LastInsertId, so PostgreSQL uses RETURNING instead.
func (s *Store) insert(ctx context.Context, q string, arg interface{}) (int64, error) {
	if s.dialect == DialectPostgres {
		stmt, err := s.db.PrepareNamedContext(ctx, q+" RETURNING id")
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		var id int64
		if err := stmt.GetContext(ctx, &id, arg); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// expectOne converts a zero rows-affected count into ErrNotFound.
func expectOne(result interface{ RowsAffected() (int64, error) }, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
