// Пакет sqlitestore — адаптер хранилища записей для SQLite
// (database/sql + modernc.org/sqlite, без cgo).
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bigkaa/goartstore/record-module/internal/store"
)

// dbtx — общий интерфейс для *sql.DB и *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New создаёт Store поверх подключения SQLite.
func New(db *sql.DB) *store.Store {
	return store.New(&conn{querier: querier{db: db}, db: db})
}

type querier struct {
	db dbtx
}

func (q querier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (q querier) Query(ctx context.Context, query string, args ...any) (store.Rows, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlRows{rows: rows}, nil
}

type conn struct {
	querier
	db *sql.DB
}

func (c *conn) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{querier: querier{db: tx}, tx: tx}, nil
}

func (c *conn) Dialect() store.Dialect { return store.SQLite }

type sqlTx struct {
	querier
	tx *sql.Tx
}

func (t *sqlTx) Commit(context.Context) error {
	return classify(t.tx.Commit())
}

func (t *sqlTx) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Err() error             { return classify(r.rows.Err()) }
func (r *sqlRows) Close()                 { _ = r.rows.Close() }

// classify помечает нарушения ограничений (SQLITE_CONSTRAINT) как store.ErrConflict.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return store.Conflict(err)
	}
	return err
}
