package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"testing"
)

// sliceSource — источник над срезом с подсчётом обращений.
type sliceSource struct {
	items   []int
	fetches int
	closed  bool
	err     error
}

func newSource(n int) *sliceSource {
	s := &sliceSource{}
	for i := 1; i <= n; i++ {
		s.items = append(s.items, i)
	}
	return s
}

func (s *sliceSource) Count(context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.items), nil
}

func (s *sliceSource) Fetch(_ context.Context, limit, offset int) ([]int, error) {
	s.fetches++
	if limit < 0 {
		return s.items, nil
	}
	if offset > len(s.items) {
		return nil, nil
	}
	end := offset + min(limit, len(s.items)-offset)
	return s.items[offset:end], nil
}

func (s *sliceSource) Close(context.Context) error {
	s.closed = true
	return nil
}

func ip(v int) *int { return &v }

func eqPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestPaginatePages(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		limit      *int
		page       int
		results    []int
		totalPages int
		next, prev *int
	}{
		{"первая страница", 10, ip(2), 1, []int{1, 2}, 5, ip(2), nil},
		{"средняя страница", 10, ip(2), 3, []int{5, 6}, 5, ip(4), ip(2)},
		{"последняя страница", 10, ip(2), 5, []int{9, 10}, 5, nil, ip(4)},
		{"неполная последняя", 7, ip(3), 3, []int{7}, 3, nil, ip(2)},
		{"страница вне диапазона", 10, ip(2), 20, []int{}, 5, nil, ip(5)},
		{"нулевая страница", 10, ip(2), 0, []int{}, 5, nil, ip(5)},
		{"пустой источник", 0, ip(5), 1, []int{}, 0, nil, ip(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource(tt.count)
			got, err := PaginatePages(context.Background(), PageParams{Limit: tt.limit, Page: tt.page}, src)
			if err != nil {
				t.Fatalf("PaginatePages: %v", err)
			}
			if got.Pagination == nil {
				t.Fatal("ожидали блок pagination")
			}
			if len(got.Results) != len(tt.results) {
				t.Fatalf("results = %v, ожидали %v", got.Results, tt.results)
			}
			for i := range tt.results {
				if got.Results[i] != tt.results[i] {
					t.Errorf("results = %v, ожидали %v", got.Results, tt.results)
					break
				}
			}
			info := got.Pagination
			if info.Count != tt.count || info.TotalPages != tt.totalPages {
				t.Errorf("count/total_pages = %d/%d, ожидали %d/%d", info.Count, info.TotalPages, tt.count, tt.totalPages)
			}
			if !eqPtr(info.NextPage, tt.next) || !eqPtr(info.PreviousPage, tt.prev) {
				t.Errorf("next/previous = %v/%v, ожидали %v/%v", info.NextPage, info.PreviousPage, tt.next, tt.prev)
			}
		})
	}
}

func TestPaginatePages_OutOfRangeSkipsFetch(t *testing.T) {
	src := newSource(10)
	if _, err := PaginatePages(context.Background(), PageParams{Limit: ip(2), Page: 20}, src); err != nil {
		t.Fatalf("PaginatePages: %v", err)
	}
	if src.fetches != 0 {
		t.Errorf("fetches = %d, для страницы вне диапазона выборка не нужна", src.fetches)
	}
}

func TestPaginateOffset(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		limit      int
		offset     int
		results    []int
		totalPages int
		next, prev *int
	}{
		{"начало", 12, 5, 0, []int{1, 2, 3, 4, 5}, 3, ip(5), nil},
		{"второе окно", 12, 5, 5, []int{6, 7, 8, 9, 10}, 3, ip(10), nil},
		{"третье окно", 12, 5, 10, []int{11, 12}, 3, nil, ip(5)},
		{"смещение не кратно limit", 12, 5, 7, []int{8, 9, 10, 11, 12}, 3, nil, ip(2)},
		{"смещение вне диапазона", 50, 10, 100, []int{}, 5, nil, ip(50)},
		{"отрицательное смещение", 50, 10, -1, []int{}, 5, nil, ip(50)},
		{"смещение равно count", 10, 5, 10, []int{}, 2, nil, ip(5)},
		{"предельный limit", 10, math.MaxInt, 1, []int{2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, nil, nil},
		{"предельный limit с нуля", 3, math.MaxInt, 0, []int{1, 2, 3}, 1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource(tt.count)
			got, err := PaginateOffset(context.Background(), OffsetParams{Limit: ip(tt.limit), Offset: tt.offset}, src)
			if err != nil {
				t.Fatalf("PaginateOffset: %v", err)
			}
			if len(got.Results) != len(tt.results) {
				t.Fatalf("results = %v, ожидали %v", got.Results, tt.results)
			}
			for i := range tt.results {
				if got.Results[i] != tt.results[i] {
					t.Errorf("results = %v, ожидали %v", got.Results, tt.results)
					break
				}
			}
			info := got.Pagination
			if info.Count != tt.count || info.TotalPages != tt.totalPages {
				t.Errorf("count/total_pages = %d/%d, ожидали %d/%d", info.Count, info.TotalPages, tt.count, tt.totalPages)
			}
			if !eqPtr(info.NextOffset, tt.next) || !eqPtr(info.PreviousOffset, tt.prev) {
				t.Errorf("next/previous = %v/%v, ожидали %v/%v", info.NextOffset, info.PreviousOffset, tt.next, tt.prev)
			}
		})
	}
}

func TestPaginate_NoLimit(t *testing.T) {
	for _, limit := range []*int{nil, ip(0)} {
		src := newSource(4)
		page, err := PaginatePages(context.Background(), PageParams{Limit: limit, Page: 3}, src)
		if err != nil {
			t.Fatalf("PaginatePages: %v", err)
		}
		if page.Pagination != nil || len(page.Results) != 4 {
			t.Errorf("без limit: %+v", page)
		}

		win, err := PaginateOffset(context.Background(), OffsetParams{Limit: limit, Offset: 2}, src)
		if err != nil {
			t.Fatalf("PaginateOffset: %v", err)
		}
		if win.Pagination != nil || len(win.Results) != 4 {
			t.Errorf("без limit: %+v", win)
		}
	}

	data, err := json.Marshal(Page[int]{Results: []int{}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"results":[]}` {
		t.Errorf("JSON без пагинации = %s", data)
	}
}

func TestPaginate_JSONShape(t *testing.T) {
	page, _ := PaginatePages(context.Background(), PageParams{Limit: ip(2), Page: 1}, newSource(3))
	data, err := json.Marshal(page)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"results":[1,2],"pagination":{"count":3,"total_pages":2,"next_page":2,"previous_page":null}}`
	if string(data) != want {
		t.Errorf("JSON = %s\nожидали %s", data, want)
	}

	win, _ := PaginateOffset(context.Background(), OffsetParams{Limit: ip(2), Offset: 0}, newSource(3))
	data, _ = json.Marshal(win)
	want = `{"results":[1,2],"pagination":{"count":3,"total_pages":2,"next_offset":2,"previous_offset":null}}`
	if string(data) != want {
		t.Errorf("JSON = %s\nожидали %s", data, want)
	}
}

func TestPaginate_CountError(t *testing.T) {
	src := newSource(3)
	src.err = errors.New("нет соединения")

	if _, err := PaginatePages(context.Background(), PageParams{Limit: ip(1), Page: 1}, src); !errors.Is(err, src.err) {
		t.Errorf("PaginatePages = %v", err)
	}
	if _, err := PaginateOffset(context.Background(), OffsetParams{Limit: ip(1)}, src); !errors.Is(err, src.err) {
		t.Errorf("PaginateOffset = %v", err)
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		query  string
		limit  *int
		page   int
		offset int
	}{
		{"", nil, 1, 0},
		{"limit=10&page=3&offset=20", ip(10), 3, 20},
		{"limit=abc&page=-1&offset=x", nil, 1, 0},
		{"limit=0&page=0", ip(0), 0, 0},
		{"limit=&limit=5&page=2", ip(5), 2, 0},
		{"limit=2.5", nil, 1, 0},
		{"limit=9223372036854775807&offset=1", ip(math.MaxInt), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			pp := ParsePageParams(q)
			if !eqPtr(pp.Limit, tt.limit) || pp.Page != tt.page {
				t.Errorf("ParsePageParams = %v/%d, ожидали %v/%d", pp.Limit, pp.Page, tt.limit, tt.page)
			}
			op := ParseOffsetParams(q)
			if !eqPtr(op.Limit, tt.limit) || op.Offset != tt.offset {
				t.Errorf("ParseOffsetParams = %v/%d, ожидали %v/%d", op.Limit, op.Offset, tt.limit, tt.offset)
			}
		})
	}

	if p := (PageParams{Page: 1}).WithDefaultLimit(25); !eqPtr(p.Limit, ip(25)) {
		t.Errorf("WithDefaultLimit = %v", p.Limit)
	}
	if p := (OffsetParams{Limit: ip(3)}).WithDefaultLimit(25); !eqPtr(p.Limit, ip(3)) {
		t.Errorf("WithDefaultLimit не должен заменять заданный limit: %v", p.Limit)
	}
}

func TestPaginateAsync_ReleasesSource(t *testing.T) {
	ctx := context.Background()

	src := newSource(10)
	page, err := PaginatePagesAsync[int](ctx, PageParams{Limit: ip(2), Page: 3}, src).Wait(ctx)
	if err != nil {
		t.Fatalf("PaginatePagesAsync: %v", err)
	}
	if len(page.Results) != 2 || page.Results[0] != 5 {
		t.Errorf("results = %v", page.Results)
	}
	if !src.closed {
		t.Error("асинхронная пагинация должна закрыть источник")
	}

	src = newSource(10)
	src.err = errors.New("сбой")
	if _, err := PaginateOffsetAsync[int](ctx, OffsetParams{Limit: ip(5)}, src).Result(); err == nil {
		t.Error("ожидали ошибку подсчёта")
	}
	if !src.closed {
		t.Error("источник должен закрываться и при ошибке")
	}
}
