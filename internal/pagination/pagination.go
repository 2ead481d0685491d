// Пакет pagination — постраничная выдача результатов запроса в двух
// режимах: по номеру страницы (limit/page) и по смещению (limit/offset).
// Без limit результаты выдаются целиком без блока pagination.
package pagination

import (
	"context"
	"fmt"
)

// Source — источник данных: количество и окно результатов.
// Count и Fetch должны использовать одно и то же условие отбора.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	// Fetch возвращает не более limit элементов начиная с offset;
	// limit < 0 — все элементы.
	Fetch(ctx context.Context, limit, offset int) ([]T, error)
}

// PageParams — параметры режима номера страницы.
type PageParams struct {
	// Limit — размер страницы; nil или 0 — без пагинации
	Limit *int
	// Page — номер страницы, начиная с 1
	Page int
}

// OffsetParams — параметры режима смещения.
type OffsetParams struct {
	// Limit — размер окна; nil или 0 — без пагинации
	Limit *int
	// Offset — смещение первого элемента
	Offset int
}

// PageInfo — блок pagination режима номера страницы.
type PageInfo struct {
	Count        int  `json:"count"`
	TotalPages   int  `json:"total_pages"`
	NextPage     *int `json:"next_page"`
	PreviousPage *int `json:"previous_page"`
}

// OffsetInfo — блок pagination режима смещения.
type OffsetInfo struct {
	Count          int  `json:"count"`
	TotalPages     int  `json:"total_pages"`
	NextOffset     *int `json:"next_offset"`
	PreviousOffset *int `json:"previous_offset"`
}

// Page — результат режима номера страницы.
type Page[T any] struct {
	Results    []T       `json:"results"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// Window — результат режима смещения.
type Window[T any] struct {
	Results    []T         `json:"results"`
	Pagination *OffsetInfo `json:"pagination,omitempty"`
}

// enabled сообщает, задан ли положительный limit.
func enabled(limit *int) bool {
	return limit != nil && *limit > 0
}

func totalPages(count, limit int) int {
	pages := count / limit
	if count%limit != 0 {
		pages++
	}
	return pages
}

func intPtr(v int) *int { return &v }

// all возвращает все результаты без пагинации.
func all[T any](ctx context.Context, src Source[T]) ([]T, error) {
	res, err := src.Fetch(ctx, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки: %w", err)
	}
	return nonNil(res), nil
}

// nonNil заменяет nil на пустой срез: в JSON results всегда массив.
func nonNil[T any](res []T) []T {
	if res == nil {
		return []T{}
	}
	return res
}

// PaginatePages выдаёт страницу с номером p.Page.
//
// Страница вне диапазона [1, total_pages] даёт пустой результат,
// next_page = null и previous_page = total_pages.
func PaginatePages[T any](ctx context.Context, p PageParams, src Source[T]) (Page[T], error) {
	if !enabled(p.Limit) {
		res, err := all(ctx, src)
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Results: res}, nil
	}
	limit := *p.Limit

	count, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, fmt.Errorf("ошибка подсчёта: %w", err)
	}
	info := &PageInfo{Count: count, TotalPages: totalPages(count, limit)}

	if p.Page < 1 || p.Page > info.TotalPages {
		info.PreviousPage = intPtr(info.TotalPages)
		return Page[T]{Results: []T{}, Pagination: info}, nil
	}
	if p.Page < info.TotalPages {
		info.NextPage = intPtr(p.Page + 1)
	}
	if p.Page > 1 {
		info.PreviousPage = intPtr(p.Page - 1)
	}

	res, err := src.Fetch(ctx, limit, (p.Page-1)*limit)
	if err != nil {
		return Page[T]{}, fmt.Errorf("ошибка выборки: %w", err)
	}
	return Page[T]{Results: nonNil(res), Pagination: info}, nil
}

// PaginateOffset выдаёт окно из p.Limit элементов начиная с p.Offset.
//
// Смещение вне диапазона [0, count] даёт пустой результат,
// next_offset = null и previous_offset = count. previous_offset
// равен null, если вычисленное значение не положительно.
func PaginateOffset[T any](ctx context.Context, p OffsetParams, src Source[T]) (Window[T], error) {
	if !enabled(p.Limit) {
		res, err := all(ctx, src)
		if err != nil {
			return Window[T]{}, err
		}
		return Window[T]{Results: res}, nil
	}
	limit := *p.Limit

	count, err := src.Count(ctx)
	if err != nil {
		return Window[T]{}, fmt.Errorf("ошибка подсчёта: %w", err)
	}
	info := &OffsetInfo{Count: count, TotalPages: totalPages(count, limit)}

	if p.Offset < 0 || p.Offset > count {
		info.PreviousOffset = intPtr(count)
		return Window[T]{Results: []T{}, Pagination: info}, nil
	}
	if limit < count-p.Offset {
		info.NextOffset = intPtr(p.Offset + limit)
	}
	if prev := p.Offset - limit; p.Offset > 0 && prev > 0 {
		info.PreviousOffset = intPtr(prev)
	}

	res, err := src.Fetch(ctx, limit, p.Offset)
	if err != nil {
		return Window[T]{}, fmt.Errorf("ошибка выборки: %w", err)
	}
	return Window[T]{Results: nonNil(res), Pagination: info}, nil
}
