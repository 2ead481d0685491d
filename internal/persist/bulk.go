package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// BulkCreate вставляет строки одним запросом. Валидация и файлы
// не обрабатываются. Возвращает идентификаторы созданных строк.
func (e *Engine) BulkCreate(ctx context.Context, sess Session, s *record.Schema, rows []map[string]any) ([]int64, error) {
	start := time.Now()
	ids, err := e.bulk(ctx, sess, s, len(rows), func() ([]int64, error) {
		return sess.BulkInsert(ctx, s, rows)
	})
	e.observe("bulk_create", start, err)
	return ids, err
}

// BulkUpdate обновляет строки по id в одной транзакции.
// Каждая строка обязана содержать id. Файлы не обрабатываются.
func (e *Engine) BulkUpdate(ctx context.Context, sess Session, s *record.Schema, rows []map[string]any) ([]int64, error) {
	start := time.Now()
	ids, err := e.bulk(ctx, sess, s, len(rows), func() ([]int64, error) {
		return sess.BulkUpdate(ctx, s, rows)
	})
	e.observe("bulk_update", start, err)
	return ids, err
}

// BulkDelete удаляет строки по списку идентификаторов одним запросом.
// Файлы удалённых строк не удаляются.
func (e *Engine) BulkDelete(ctx context.Context, sess Session, s *record.Schema, ids []int64) error {
	start := time.Now()
	_, err := e.bulk(ctx, sess, s, len(ids), func() ([]int64, error) {
		_, err := sess.BulkDelete(ctx, s, ids)
		return ids, err
	})
	e.observe("bulk_delete", start, err)
	return err
}

// bulk выполняет массовую операцию и фиксирует её; при ошибке — откат.
func (e *Engine) bulk(ctx context.Context, sess Session, s *record.Schema, n int, op func() ([]int64, error)) ([]int64, error) {
	if n == 0 {
		return nil, ErrNoData
	}

	ids, err := op()
	if err == nil {
		err = sess.Commit(ctx)
	}
	if err != nil {
		if rbErr := sess.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			e.logger.Error("Ошибка отката транзакции",
				slog.String("table", s.Table()),
				slog.String("error", rbErr.Error()),
			)
		}
		e.logger.Warn("Массовая операция отменена",
			slog.String("table", s.Table()),
			slog.Int("rows", n),
			slog.String("error", err.Error()),
		)
		return nil, &Error{Kind: KindStore, Err: err}
	}

	e.logger.Debug("Массовая операция выполнена",
		slog.String("table", s.Table()),
		slog.Int("rows", n),
	)
	return ids, nil
}
