package record

import "reflect"

// Change — история изменения одного поля с последнего снимка.
// nil означает «нет значения».
type Change struct {
	Added   any
	Deleted any
}

// Tracker хранит снимок значений полей на момент последней
// загрузки, обновления или commit. Запись без снимка считается
// transient: все её непустые значения — добавленные.
type Tracker struct {
	snapshot map[string]any
}

// Reset снимает снимок текущих значений записи.
func (t *Tracker) Reset(r Record) {
	cols := r.Schema().Columns()
	t.snapshot = make(map[string]any, len(cols))
	for _, c := range cols {
		t.snapshot[c] = Normalize(r.Get(c))
	}
}

// Forget сбрасывает снимок (запись снова transient).
func (t *Tracker) Forget() { t.snapshot = nil }

// Persistent сообщает, есть ли у записи сохранённое состояние.
func (t *Tracker) Persistent() bool { return t.snapshot != nil }

// Committed возвращает значение поля из снимка.
func (t *Tracker) Committed(field string) any { return t.snapshot[field] }

// History возвращает изменение поля относительно снимка.
func History(r Record, field string) Change {
	cur := Normalize(r.Get(field))
	t := r.Changes()
	if !t.Persistent() {
		return Change{Added: cur}
	}
	prev := t.snapshot[field]
	if reflect.DeepEqual(prev, cur) {
		return Change{}
	}
	return Change{Added: cur, Deleted: prev}
}

// Normalize разыменовывает указатели: nil-указатель становится nil.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
