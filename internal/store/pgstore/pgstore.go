// Пакет pgstore — адаптер хранилища записей для PostgreSQL (pgx/v5).
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/record-module/internal/store"
)

// DBTX — общий интерфейс для pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// New создаёт Store поверх пула подключений PostgreSQL.
func New(pool *pgxpool.Pool) *store.Store {
	return store.New(&conn{querier: querier{db: pool}, pool: pool})
}

type querier struct {
	db DBTX
}

func (q querier) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func (q querier) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgRows{rows: rows}, nil
}

type conn struct {
	querier
	pool *pgxpool.Pool
}

func (c *conn) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{querier: querier{db: tx}, tx: tx}, nil
}

func (c *conn) Dialect() store.Dialect { return store.Postgres }

type pgTx struct {
	querier
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	return classify(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// pgRows — pgx.Rows с классификацией ошибок драйвера.
type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgRows) Err() error             { return classify(r.rows.Err()) }
func (r *pgRows) Close()                 { r.rows.Close() }

// classify помечает нарушения ограничений целостности (класс 23) как store.ErrConflict.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return store.Conflict(err)
	}
	return err
}
