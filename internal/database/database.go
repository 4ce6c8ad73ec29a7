package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/avast/retry-go"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Querier is implemented by both *sql.DB and *sql.Tx, so helpers can run
// in or out of a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures what differs between the production store and the
// embedded one.
type Dialect struct {
	Name       string
	lockClause string
	txOptions  *sql.TxOptions
}

var (
	MySQL = Dialect{
		Name:       "mysql",
		lockClause: " FOR UPDATE",
		txOptions:  &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}

	// SQLite runs on a single connection, which serializes transactions
	// without row locks.
	SQLite = Dialect{Name: "sqlite"}
)

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// DB wraps the connection pool together with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ForUpdate appends the row lock clause when the dialect has one.
func (db *DB) ForUpdate(query string) string {
	return query + db.Dialect.lockClause
}

// StartTx begins a transaction with the dialect's isolation level.
func (db *DB) StartTx(ctx context.Context) (*sql.Tx, error) {
	return db.DB.BeginTx(ctx, db.Dialect.txOptions)
}

// WithTx runs fn inside a transaction and commits when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.StartTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Open creates the pool and pings it, retrying while the server comes up.
func Open(ctx context.Context, cfg config.Database, log *slog.Logger) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if dialect.Name == SQLite.Name {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	err = retry.Do(
		func() error {
			return conn.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.ConnectDelay),
		retry.MaxDelay(cfg.ConnectMaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("database not ready, retrying",
				slog.String("driver", cfg.Driver),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	log.Info("database connection pool established", slog.String("driver", cfg.Driver))
	return &DB{DB: conn, Dialect: dialect}, nil
}
