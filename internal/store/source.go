package store

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Source — источник данных пагинации: запрос в рамках сессии.
// Результаты приводятся к конкретному типу записи R.
type Source[R record.Record] struct {
	sess *Session
	q    *Query
}

// QuerySource создаёт источник пагинации для запроса q.
func QuerySource[R record.Record](sess *Session, q *Query) *Source[R] {
	return &Source[R]{sess: sess, q: q}
}

// Count возвращает количество записей по фильтру запроса.
func (s *Source[R]) Count(ctx context.Context) (int, error) {
	return s.sess.Count(ctx, s.q)
}

// Fetch возвращает страницу записей. limit < 0 — все записи.
func (s *Source[R]) Fetch(ctx context.Context, limit, offset int) ([]R, error) {
	recs, err := s.sess.Fetch(ctx, s.q, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(recs))
	for _, r := range recs {
		typed, ok := r.(R)
		if !ok {
			return nil, fmt.Errorf("запись %s имеет тип %T", s.q.Schema().Table(), r)
		}
		out = append(out, typed)
	}
	return out, nil
}

// Close закрывает сессию источника.
func (s *Source[R]) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}
