package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// rowColumns возвращает столбцы строки в порядке объявления схемы.
// Неизвестные ключи — ошибка. Ключ id допускается только при withID.
func rowColumns(sch *record.Schema, row map[string]any, withID bool) ([]string, error) {
	var cols []string
	for k := range row {
		f, ok := sch.Field(k)
		if !ok {
			return nil, fmt.Errorf("%w: поле %q отсутствует в %s", ErrBadRow, k, sch.Table())
		}
		if f.PrimaryKey && !withID {
			return nil, fmt.Errorf("%w: поле %s задаётся хранилищем", ErrBadRow, record.PrimaryKey)
		}
	}
	for _, c := range sch.Columns() {
		if _, ok := row[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// BulkInsert вставляет строки одним запросом в текущую транзакцию.
// Все строки должны иметь одинаковый набор ключей.
// Возвращает идентификаторы в порядке строк.
func (s *Session) BulkInsert(ctx context.Context, sch *record.Schema, rows []map[string]any) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := rowColumns(sch, rows[0], false)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: строка без полей", ErrBadRow)
	}

	groups := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("%w: строка %d: набор полей отличается от первой строки", ErrBadRow, i)
		}
		for _, c := range cols {
			v, ok := row[c]
			if !ok {
				return nil, fmt.Errorf("%w: строка %d: нет поля %q", ErrBadRow, i, c)
			}
			args = append(args, record.Normalize(v))
		}
		groups[i] = "(" + s.dialect.placeholders(i*len(cols)+1, len(cols)) + ")"
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING %s",
		sch.Table(), strings.Join(cols, ", "), strings.Join(groups, ", "), record.PrimaryKey)
	ids, err := queryIDs(ctx, tx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("ошибка массовой вставки в %s: %w", sch.Table(), err)
	}
	return ids, nil
}

// BulkUpdate обновляет строки по одному запросу на строку в текущей
// транзакции. Каждая строка обязана содержать id.
func (s *Session) BulkUpdate(ctx context.Context, sch *record.Schema, rows []map[string]any) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	for i, row := range rows {
		rawID, ok := row[record.PrimaryKey]
		if !ok {
			return nil, fmt.Errorf("%w: строка %d: нет поля %s", ErrBadRow, i, record.PrimaryKey)
		}
		id, err := record.AsInt64(rawID)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: строка %d: некорректный %s", ErrBadRow, i, record.PrimaryKey)
		}
		cols, err := rowColumns(sch, row, true)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%w: строка %d: нет полей для обновления", ErrBadRow, i)
		}

		sets := make([]string, len(cols))
		args := make([]any, 0, len(cols)+1)
		for j, c := range cols {
			sets[j] = c + " = " + s.dialect.Placeholder(j+1)
			args = append(args, record.Normalize(row[c]))
		}
		args = append(args, id)

		tx, err := s.begin(ctx)
		if err != nil {
			return nil, err
		}
		sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			sch.Table(), strings.Join(sets, ", "), record.PrimaryKey, s.dialect.Placeholder(len(cols)+1))
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return nil, fmt.Errorf("ошибка массового обновления %s id=%d: %w", sch.Table(), id, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BulkDelete удаляет строки по списку идентификаторов одним запросом.
// Возвращает количество удалённых строк.
func (s *Session) BulkDelete(ctx context.Context, sch *record.Schema, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		sch.Table(), record.PrimaryKey, s.dialect.placeholders(1, len(ids)))
	n, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка массового удаления из %s: %w", sch.Table(), err)
	}
	return n, nil
}
