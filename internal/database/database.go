// Package database provides database access.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/starquake/quizai/internal/migrations"
	"github.com/starquake/quizai/internal/must"
)

// ErrUnsupportedDriver is returned when the database driver is not supported. We only support sqlite for now.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

var setupGooseOnce sync.Once

// SetupGoose configures global settings for goose. Only the first call has an effect.
func SetupGoose() {
	setupGooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		must.OK(goose.SetDialect("sqlite3"))
	})
}

// Open opens a database connection and checks that it is reachable.
func Open(
	ctx context.Context,
	driver, uri string,
	dbMaxOpenConns, dbMaxIdleConns int,
	dbConnMaxLifetime time.Duration,
) (*sql.DB, error) {
	switch driver {
	case "sqlite", "sqlite3":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	var err error
	var conn *sql.DB
	conn, err = sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	conn.SetMaxOpenConns(dbMaxOpenConns)
	conn.SetMaxIdleConns(dbMaxIdleConns)
	conn.SetConnMaxLifetime(dbConnMaxLifetime)

	if err = conn.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("error pinging database: %w", err), conn.Close())
	}

	return conn, nil
}

// Migrate runs database migrations. SetupGoose must have been called first.
func Migrate(ctx context.Context, conn *sql.DB) error {
	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

// ExecTx is a helper to run queries within a transaction.
// The transaction is committed if fn returns nil and rolled back otherwise.
func ExecTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %w)", err, rbErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
