// Пакет store — сессии и запросы к реляционному хранилищу записей.
// Сессия лениво открывает транзакцию при первой записи, снимает
// снимки записей после commit и сбрасывает идентификаторы
// добавленных записей при rollback. Конкретные драйверы подключаются
// через адаптеры pgstore и sqlitestore.
package store

import (
	"context"
	"errors"
)

// Sentinel-ошибки хранилища.
var (
	// ErrNotFound — запись не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушение ограничения целостности (уникальность и т.п.)
	ErrConflict = errors.New("нарушение ограничения целостности")
	// ErrSessionClosed — операция над закрытой сессией
	ErrSessionClosed = errors.New("сессия закрыта")
)

// Rows — результат запроса.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier — общий интерфейс для подключения и транзакции.
// Exec возвращает количество затронутых строк.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Tx — открытая транзакция.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn — подключение к хранилищу, предоставляемое драйвером.
type Conn interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Dialect() Dialect
}

// Store — фабрика сессий поверх одного подключения.
type Store struct {
	conn Conn
}

// New создаёт Store поверх адаптера драйвера.
func New(conn Conn) *Store {
	return &Store{conn: conn}
}

// Session открывает новую сессию. Каждая сессия используется одним
// потоком выполнения и должна быть закрыта вызывающим кодом.
func (s *Store) Session() *Session {
	return &Session{conn: s.conn, dialect: s.conn.Dialect()}
}

// Dialect возвращает диалект SQL подключения.
func (s *Store) Dialect() Dialect {
	return s.conn.Dialect()
}

// conflictError помечает ошибку драйвера как нарушение ограничения,
// сохраняя исходный текст сообщения.
type conflictError struct {
	err error
}

func (e *conflictError) Error() string        { return e.err.Error() }
func (e *conflictError) Unwrap() error        { return e.err }
func (e *conflictError) Is(target error) bool { return target == ErrConflict }

// Conflict оборачивает ошибку драйвера так, что errors.Is(err, ErrConflict) == true.
// Используется адаптерами драйверов.
func Conflict(err error) error {
	return &conflictError{err: err}
}
