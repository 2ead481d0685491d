package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

type opKind int

const (
	opAdd opKind = iota
	opMerge
	opDelete
)

// staged — запись, изменённая в текущей транзакции.
type staged struct {
	rec record.Record
	op  opKind
}

// Session — единица работы с хранилищем. Не безопасна для
// конкурентного использования.
type Session struct {
	conn    Conn
	dialect Dialect
	tx      Tx
	staged  []staged
	closed  bool
}

// begin возвращает открытую транзакцию, открывая её при первой записи.
func (s *Session) begin(ctx context.Context) (Tx, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx == nil {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// reader возвращает транзакцию, если она открыта, иначе подключение.
func (s *Session) reader() (Querier, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.conn, nil
}

// InTx сообщает, открыта ли транзакция.
func (s *Session) InTx() bool { return s.tx != nil }

// Add вставляет запись в текущую транзакцию и присваивает ей идентификатор.
// Столбцы со значением по умолчанию и пустым значением не передаются.
func (s *Session) Add(ctx context.Context, r record.Record) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	sch := r.Schema()
	var cols []string
	var args []any
	for _, f := range sch.Fields() {
		if f.PrimaryKey {
			continue
		}
		v := record.Normalize(r.Get(f.Name))
		if f.HasDefault && v == nil {
			continue
		}
		cols = append(cols, f.Name)
		args = append(args, v)
	}

	var sql string
	if len(cols) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", sch.Table(), record.PrimaryKey)
	} else {
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			sch.Table(), strings.Join(cols, ", "), s.dialect.placeholders(1, len(cols)), record.PrimaryKey)
	}

	ids, err := queryIDs(ctx, tx, sql, args)
	if err != nil {
		return fmt.Errorf("ошибка вставки в %s: %w", sch.Table(), err)
	}
	if len(ids) != 1 {
		return fmt.Errorf("вставка в %s вернула %d идентификаторов", sch.Table(), len(ids))
	}

	r.SetID(ids[0])
	s.staged = append(s.staged, staged{rec: r, op: opAdd})
	return nil
}

// Merge записывает текущие значения полей существующей записи.
func (s *Session) Merge(ctx context.Context, r record.Record) error {
	if r.ID() == 0 {
		return fmt.Errorf("%w: запись без идентификатора", ErrNotFound)
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	sch := r.Schema()
	cols := sch.Columns()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = c + " = " + s.dialect.Placeholder(i+1)
		args = append(args, record.Normalize(r.Get(c)))
	}
	args = append(args, r.ID())

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		sch.Table(), strings.Join(sets, ", "), record.PrimaryKey, s.dialect.Placeholder(len(cols)+1))

	n, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s id=%d: %w", sch.Table(), r.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, sch.Table(), r.ID())
	}

	s.staged = append(s.staged, staged{rec: r, op: opMerge})
	return nil
}

// Delete удаляет запись в текущей транзакции.
func (s *Session) Delete(ctx context.Context, r record.Record) error {
	if r.ID() == 0 {
		return fmt.Errorf("%w: запись без идентификатора", ErrNotFound)
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	sch := r.Schema()
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", sch.Table(), record.PrimaryKey, s.dialect.Placeholder(1))
	n, err := tx.Exec(ctx, sql, r.ID())
	if err != nil {
		return fmt.Errorf("ошибка удаления %s id=%d: %w", sch.Table(), r.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, sch.Table(), r.ID())
	}

	s.staged = append(s.staged, staged{rec: r, op: opDelete})
	return nil
}

// Commit фиксирует транзакцию. Записи, изменённые в ней, получают
// новый снимок состояния; удалённые становятся transient.
// При ошибке commit добавленные записи теряют идентификатор.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	pending := s.staged
	s.staged = nil

	if s.tx != nil {
		tx := s.tx
		s.tx = nil
		if err := tx.Commit(ctx); err != nil {
			discard(pending)
			return fmt.Errorf("ошибка фиксации транзакции: %w", err)
		}
	}

	for _, st := range pending {
		if st.op == opDelete {
			st.rec.Changes().Forget()
			continue
		}
		st.rec.Changes().Reset(st.rec)
	}
	return nil
}

// Rollback откатывает транзакцию. Добавленные в ней записи теряют
// идентификатор. Без открытой транзакции — no-op.
func (s *Session) Rollback(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	discard(s.staged)
	s.staged = nil

	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("ошибка отката транзакции: %w", err)
	}
	return nil
}

func discard(pending []staged) {
	for _, st := range pending {
		if st.op == opAdd {
			st.rec.SetID(0)
		}
	}
}

// Close откатывает незавершённую транзакцию и закрывает сессию.
// Повторный вызов — no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	err := s.Rollback(ctx)
	s.closed = true
	return err
}

// Closed сообщает, закрыта ли сессия.
func (s *Session) Closed() bool { return s.closed }

// Refresh перечитывает значения записи из хранилища.
func (s *Session) Refresh(ctx context.Context, r record.Record) error {
	q, err := s.reader()
	if err != nil {
		return err
	}
	sch := r.Schema()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		selectColumns(sch), sch.Table(), record.PrimaryKey, s.dialect.Placeholder(1))

	rows, err := q.Query(ctx, sql, r.ID())
	if err != nil {
		return fmt.Errorf("ошибка чтения %s id=%d: %w", sch.Table(), r.ID(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("ошибка чтения %s id=%d: %w", sch.Table(), r.ID(), err)
		}
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, sch.Table(), r.ID())
	}
	if err := scanInto(rows, r); err != nil {
		return err
	}
	return rows.Err()
}

// Get загружает запись по идентификатору.
func (s *Session) Get(ctx context.Context, sch *record.Schema, id int64) (record.Record, error) {
	r := sch.New()
	r.SetID(id)
	if err := s.Refresh(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Count возвращает количество записей, удовлетворяющих условию запроса.
// Запрос количества строится по извлечённому из q условию.
func (s *Session) Count(ctx context.Context, q *Query) (int, error) {
	if err := q.Err(); err != nil {
		return 0, err
	}
	db, err := s.reader()
	if err != nil {
		return 0, err
	}
	sql, args := countSQL(s.dialect, q.Schema(), q.Predicate())
	counts, err := queryIDs(ctx, db, sql, args)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта %s: %w", q.Schema().Table(), err)
	}
	if len(counts) != 1 {
		return 0, fmt.Errorf("подсчёт %s вернул %d строк", q.Schema().Table(), len(counts))
	}
	return int(counts[0]), nil
}

// Fetch возвращает записи запроса. limit < 0 — все записи.
func (s *Session) Fetch(ctx context.Context, q *Query, limit, offset int) ([]record.Record, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	db, err := s.reader()
	if err != nil {
		return nil, err
	}
	sql, args := q.selectSQL(s.dialect, limit, offset)
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки %s: %w", q.Schema().Table(), err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		r := q.Schema().New()
		if err := scanInto(rows, r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки %s: %w", q.Schema().Table(), err)
	}
	return out, nil
}

// scanInto читает текущую строку (id и объявленные поля) в запись
// и снимает снимок её состояния.
func scanInto(rows Rows, r record.Record) error {
	cols := r.Schema().Columns()
	vals := make([]any, len(cols)+1)
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("ошибка сканирования %s: %w", r.Schema().Table(), err)
	}

	id, err := record.AsInt64(vals[0])
	if err != nil {
		return fmt.Errorf("столбец %s: %w", record.PrimaryKey, err)
	}
	r.SetID(id)
	for i, c := range cols {
		if err := r.Set(c, vals[i+1]); err != nil {
			return fmt.Errorf("столбец %s: %w", c, err)
		}
	}
	r.Changes().Reset(r)
	return nil
}

// queryIDs выполняет запрос, возвращающий один целочисленный столбец.
func queryIDs(ctx context.Context, q Querier, sql string, args []any) ([]int64, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ErrBadRow — строка массовой операции не соответствует схеме.
var ErrBadRow = errors.New("некорректная строка данных")
