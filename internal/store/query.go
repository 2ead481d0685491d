package store

import (
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Predicate — условие отбора: выражения с плейсхолдерами ?,
// объединяемые через AND.
type Predicate struct {
	exprs []string
	args  []any
}

// Empty сообщает, что условие не задано.
func (p Predicate) Empty() bool { return len(p.exprs) == 0 }

// render возвращает WHERE-часть в диалекте d, начиная с плейсхолдера start.
func (p Predicate) render(d Dialect, start int) (string, []any, int) {
	if p.Empty() {
		return "", nil, start
	}
	parts := make([]string, len(p.exprs))
	n := start
	for i, e := range p.exprs {
		parts[i], n = d.rebind(e, n)
		parts[i] = "(" + parts[i] + ")"
	}
	return " WHERE " + strings.Join(parts, " AND "), p.args, n
}

// Query — запрос выборки записей одного типа. Методы возвращают
// новый Query, исходный не изменяется.
type Query struct {
	schema *record.Schema
	where  Predicate
	order  []string
	err    error
}

// From создаёт запрос всех записей схемы.
func From(s *record.Schema) *Query {
	return &Query{schema: s}
}

// Schema возвращает схему запроса.
func (q *Query) Schema() *record.Schema { return q.schema }

// Err возвращает ошибку построения запроса.
func (q *Query) Err() error { return q.err }

func (q *Query) clone() *Query {
	c := *q
	c.where.exprs = append([]string(nil), q.where.exprs...)
	c.where.args = append([]any(nil), q.where.args...)
	c.order = append([]string(nil), q.order...)
	return &c
}

// Where добавляет произвольное условие с плейсхолдерами ?.
func (q *Query) Where(expr string, args ...any) *Query {
	c := q.clone()
	if strings.Count(expr, "?") != len(args) {
		c.err = fmt.Errorf("условие %q: ожидается %d аргументов, передано %d",
			expr, strings.Count(expr, "?"), len(args))
		return c
	}
	c.where.exprs = append(c.where.exprs, expr)
	c.where.args = append(c.where.args, args...)
	return c
}

// Eq добавляет условие равенства столбца значению.
func (q *Query) Eq(column string, value any) *Query {
	if err := q.checkColumn(column); err != nil {
		c := q.clone()
		c.err = err
		return c
	}
	return q.Where(column+" = ?", record.Normalize(value))
}

// Contains добавляет регистронезависимый поиск подстроки в столбце.
func (q *Query) Contains(column, substr string) *Query {
	if err := q.checkColumn(column); err != nil {
		c := q.clone()
		c.err = err
		return c
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(substr)) + "%"
	return q.Where("LOWER("+column+`) LIKE ? ESCAPE '\'`, pattern)
}

// likeEscaper экранирует метасимволы LIKE в пользовательской подстроке.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// OrderBy задаёт сортировку. Префикс "-" — по убыванию.
func (q *Query) OrderBy(columns ...string) *Query {
	c := q.clone()
	for _, col := range columns {
		dir := "ASC"
		if strings.HasPrefix(col, "-") {
			col, dir = col[1:], "DESC"
		}
		if err := q.checkColumn(col); err != nil {
			c.err = err
			return c
		}
		c.order = append(c.order, col+" "+dir)
	}
	return c
}

// Predicate извлекает условие отбора запроса. Используется для
// построения запроса количества с тем же фильтром.
func (q *Query) Predicate() Predicate {
	return q.clone().where
}

func (q *Query) checkColumn(column string) error {
	if _, ok := q.schema.Field(column); !ok {
		return fmt.Errorf("столбец %q отсутствует в %s", column, q.schema.Table())
	}
	return nil
}

// selectColumns возвращает список столбцов выборки: id и объявленные поля.
func selectColumns(s *record.Schema) string {
	return record.PrimaryKey + ", " + strings.Join(s.Columns(), ", ")
}

// countSQL строит запрос количества записей по условию p.
func countSQL(d Dialect, s *record.Schema, p Predicate) (string, []any) {
	where, args, _ := p.render(d, 1)
	return "SELECT COUNT(*) FROM " + s.Table() + where, args
}

// selectSQL строит запрос выборки. limit < 0 — все записи, offset не применяется.
func (q *Query) selectSQL(d Dialect, limit, offset int) (string, []any) {
	where, args, n := q.where.render(d, 1)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumns(q.schema))
	b.WriteString(" FROM ")
	b.WriteString(q.schema.Table())
	b.WriteString(where)

	order := q.order
	if len(order) == 0 {
		order = []string{record.PrimaryKey + " ASC"}
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	if limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %s OFFSET %s", d.Placeholder(n), d.Placeholder(n+1))
		args = append(args, limit, offset)
	}
	return b.String(), args
}
