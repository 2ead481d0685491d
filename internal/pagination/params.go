package pagination

import (
	"net/url"
	"strconv"
)

// ParsePageParams разбирает limit и page из параметров запроса.
// Значение, не состоящее только из цифр, считается отсутствующим:
// limit → nil, page → 1.
func ParsePageParams(q url.Values) PageParams {
	page, ok := digits(first(q, "page"))
	if !ok {
		page = 1
	}
	return PageParams{Limit: parseLimit(q), Page: page}
}

// ParseOffsetParams разбирает limit и offset из параметров запроса.
// Значение, не состоящее только из цифр, считается отсутствующим:
// limit → nil, offset → 0.
func ParseOffsetParams(q url.Values) OffsetParams {
	offset, ok := digits(first(q, "offset"))
	if !ok {
		offset = 0
	}
	return OffsetParams{Limit: parseLimit(q), Offset: offset}
}

// WithDefaultLimit подставляет limit, если он не задан в запросе.
func (p PageParams) WithDefaultLimit(limit int) PageParams {
	if p.Limit == nil && limit > 0 {
		p.Limit = intPtr(limit)
	}
	return p
}

// WithDefaultLimit подставляет limit, если он не задан в запросе.
func (p OffsetParams) WithDefaultLimit(limit int) OffsetParams {
	if p.Limit == nil && limit > 0 {
		p.Limit = intPtr(limit)
	}
	return p
}

func parseLimit(q url.Values) *int {
	limit, ok := digits(first(q, "limit"))
	if !ok {
		return nil
	}
	return &limit
}

// first возвращает первое непустое значение ключа.
func first(q url.Values, key string) string {
	for _, v := range q[key] {
		if v != "" {
			return v
		}
	}
	return ""
}

// digits разбирает строку из одних десятичных цифр.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
