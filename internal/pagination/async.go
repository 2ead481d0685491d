package pagination

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/record-module/internal/future"
)

// ReleasableSource — источник, владеющий сессией хранилища.
type ReleasableSource[T any] interface {
	Source[T]
	Close(ctx context.Context) error
}

// PaginatePagesAsync — асинхронный PaginatePages. Сессия источника
// закрывается по завершении, независимо от результата.
func PaginatePagesAsync[T any](ctx context.Context, p PageParams, src ReleasableSource[T]) *future.Future[Page[T]] {
	return future.Go(func() (Page[T], error) {
		defer release(ctx, src)
		return PaginatePages(ctx, p, src)
	})
}

// PaginateOffsetAsync — асинхронный PaginateOffset. Сессия источника
// закрывается по завершении, независимо от результата.
func PaginateOffsetAsync[T any](ctx context.Context, p OffsetParams, src ReleasableSource[T]) *future.Future[Window[T]] {
	return future.Go(func() (Window[T], error) {
		defer release(ctx, src)
		return PaginateOffset(ctx, p, src)
	})
}

func release(ctx context.Context, c interface{ Close(context.Context) error }) {
	if err := c.Close(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("Ошибка закрытия сессии пагинации", slog.String("error", err.Error()))
	}
}
