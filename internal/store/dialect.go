package store

import (
	"strconv"
	"strings"
)

// Dialect — различия SQL между драйверами.
type Dialect struct {
	Name string
	// Placeholder возвращает плейсхолдер n-го аргумента (с 1).
	Placeholder func(n int) string
}

// Postgres — диалект PostgreSQL ($1, $2, ...).
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// SQLite — диалект SQLite (?).
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

// rebind заменяет плейсхолдеры ? в выражении на плейсхолдеры диалекта,
// начиная с номера start. Возвращает выражение и следующий номер.
func (d Dialect) rebind(expr string, start int) (string, int) {
	if !strings.Contains(expr, "?") {
		return expr, start
	}
	var b strings.Builder
	n := start
	for _, r := range expr {
		if r == '?' {
			b.WriteString(d.Placeholder(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), n
}

// placeholders возвращает список из count плейсхолдеров, начиная с start.
func (d Dialect) placeholders(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Placeholder(start + i)
	}
	return strings.Join(parts, ", ")
}
