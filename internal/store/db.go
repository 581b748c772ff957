package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// dbOps is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbOps interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type DB struct {
	dbOps
	root *sqlx.DB
	inTx bool

	// Now is the clock used for timestamps and task scheduling.
	Now func() time.Time
}

// busy_timeout lets concurrent writers queue instead of failing, and
// _txlock=immediate takes the write lock at BEGIN so read-modify-write
// transactions serialize.
const dsnParams = "_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_txlock=immediate"

func NewSQLiteDB(path string) (*DB, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + dsnParams
	} else {
		dsn += "?" + dsnParams
	}

	root, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := root.Ping(); err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := root.Exec(Schema); err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{
		dbOps: root,
		root:  root,
		Now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (db *DB) Close() error {
	return db.root.Close()
}

// RunInTx runs fn inside a single transaction. Nested calls join the
// outer transaction.
func (db *DB) RunInTx(ctx context.Context, fn func(txDB *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txDB := &DB{
		dbOps: tx,
		root:  db.root,
		inTx:  true,
		Now:   db.Now,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) now() time.Time {
	return db.Now().UTC()
}

// notFound maps sql.ErrNoRows onto the domain sentinel.
func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return err
}

// expectRow turns an UPDATE that matched nothing into ErrNotFound.
func expectRow(res sql.Result, what string, id interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
