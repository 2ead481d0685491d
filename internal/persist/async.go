package persist

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/record-module/internal/future"
	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Async — асинхронная форма движка. Каждая операция выполняется в
// отдельной горутине с тем же поведением, что и синхронная, и всегда
// закрывает сессию по завершении, независимо от результата.
type Async struct {
	e *Engine
}

// Async возвращает асинхронную форму движка.
func (e *Engine) Async() *Async {
	return &Async{e: e}
}

// Save — асинхронный Engine.Save.
func (a *Async) Save(ctx context.Context, sess Session, r record.Record, opts ...CreateOption) *future.Future[struct{}] {
	return run(ctx, a.e, sess, func() (struct{}, error) {
		return struct{}{}, a.e.Save(ctx, sess, r, opts...)
	})
}

// Create — асинхронный Engine.Create.
func (a *Async) Create(ctx context.Context, sess Session, r record.Record, opts ...CreateOption) *future.Future[struct{}] {
	return run(ctx, a.e, sess, func() (struct{}, error) {
		return struct{}{}, a.e.Create(ctx, sess, r, opts...)
	})
}

// Update — асинхронный Engine.Update.
func (a *Async) Update(ctx context.Context, sess Session, r record.Record) *future.Future[struct{}] {
	return run(ctx, a.e, sess, func() (struct{}, error) {
		return struct{}{}, a.e.Update(ctx, sess, r)
	})
}

// Delete — асинхронный Engine.Delete.
func (a *Async) Delete(ctx context.Context, sess Session, r record.Record) *future.Future[struct{}] {
	return run(ctx, a.e, sess, func() (struct{}, error) {
		return struct{}{}, a.e.Delete(ctx, sess, r)
	})
}

// BulkCreate — асинхронный Engine.BulkCreate.
func (a *Async) BulkCreate(ctx context.Context, sess Session, s *record.Schema, rows []map[string]any) *future.Future[[]int64] {
	return run(ctx, a.e, sess, func() ([]int64, error) {
		return a.e.BulkCreate(ctx, sess, s, rows)
	})
}

// BulkUpdate — асинхронный Engine.BulkUpdate.
func (a *Async) BulkUpdate(ctx context.Context, sess Session, s *record.Schema, rows []map[string]any) *future.Future[[]int64] {
	return run(ctx, a.e, sess, func() ([]int64, error) {
		return a.e.BulkUpdate(ctx, sess, s, rows)
	})
}

// BulkDelete — асинхронный Engine.BulkDelete.
func (a *Async) BulkDelete(ctx context.Context, sess Session, s *record.Schema, ids []int64) *future.Future[struct{}] {
	return run(ctx, a.e, sess, func() (struct{}, error) {
		return struct{}{}, a.e.BulkDelete(ctx, sess, s, ids)
	})
}

// run выполняет fn в горутине и закрывает сессию по завершении.
func run[T any](ctx context.Context, e *Engine, sess Session, fn func() (T, error)) *future.Future[T] {
	return future.Go(func() (T, error) {
		defer func() {
			if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("Ошибка закрытия сессии", slog.String("error", err.Error()))
			}
		}()
		return fn()
	})
}
