package record

import "fmt"

// Record — сохраняемая запись. Типизированные структуры встраивают Model
// и реализуют Schema, Get и Set через switch по объявленным полям.
// Get и Set работают со всеми полями кроме первичного ключа:
// идентификатор доступен через ID и SetID (0 — не задан).
type Record interface {
	Schema() *Schema
	ID() int64
	SetID(id int64)
	Get(field string) any
	Set(field string, value any) error
	Changes() *Tracker
}

// Model — общая часть записи: идентификатор и снимок сохранённого состояния.
type Model struct {
	id      int64
	tracker Tracker
}

// ID возвращает идентификатор записи (0 — запись ещё не сохранена).
func (m *Model) ID() int64 { return m.id }

// SetID устанавливает идентификатор.
func (m *Model) SetID(id int64) { m.id = id }

// Changes возвращает трекер изменений записи.
func (m *Model) Changes() *Tracker { return &m.tracker }

// UnknownField возвращает ошибку обращения к необъявленному полю.
func UnknownField(s *Schema, field string) error {
	return fmt.Errorf("поле %q отсутствует в %s", field, s.Table())
}
