// Package store persists processing runs and their segments, obstacles
// and skipped items in SQL. SQLite is the default backend; a postgres://
// DSN selects Postgres. The schema is managed by embedded migrations.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/timeutil"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var logs = monitoring.NewStreams("store")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Run kinds.
const (
	KindWidths    = "widths"
	KindObstacles = "obstacles"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps a migrated connection pool.
type DB struct {
	*sqlx.DB
	driver string
	clock  timeutil.Clock
}

// Run is one recorded invocation of a branch.
type Run struct {
	ID        string `db:"run_id"`
	Kind      string `db:"kind"`
	CRS       string `db:"crs"`
	Config    string `db:"config"`
	CreatedAt int64  `db:"created_at"` // unix milliseconds
}

// DriverFor picks the driver for a DSN.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	driver := DriverFor(dsn)
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Pragmas are per connection.
		conn.SetMaxOpenConns(1)
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}

	db := &DB{DB: conn, driver: driver, clock: timeutil.RealClock{}}
	if err := db.MigrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Driver returns the backend name.
func (db *DB) Driver() string { return db.driver }

// SetClock replaces the clock used for run timestamps.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

// MigrateUp runs all pending migrations.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version and dirty state. A
// database without migrations reports version 0.
func (db *DB) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	var drv database.Driver
	switch db.driver {
	case DriverPostgres:
		drv, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		drv, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s migration driver: %w", db.driver, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, db.driver, drv)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) { logs.Diagf("[migrate] "+format, v...) }

func (migrateLogger) Verbose() bool { return false }

// CreateRun records a new run and returns its id. cfg is stored as JSON.
func (db *DB) CreateRun(ctx context.Context, kind, crs string, cfg any) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode run config: %w", err)
	}
	run := Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		CRS:       crs,
		Config:    string(raw),
		CreatedAt: db.clock.Now().UnixMilli(),
	}
	_, err = db.NamedExecContext(ctx,
		`INSERT INTO runs (run_id, kind, crs, config, created_at)
		 VALUES (:run_id, :kind, :crs, :config, :created_at)`, run)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	logs.Opsf("run %s (%s) created", run.ID, kind)
	return run.ID, nil
}

// GetRun loads one run.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := db.GetContext(ctx, &r, db.Rebind(
		`SELECT run_id, kind, crs, config, created_at FROM runs WHERE run_id = ?`), id)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// inTx runs fn in a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
