package record

import (
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// MsgRequired — сообщение о пустом обязательном поле. Текст сохранён
// без изменений: на него опираются существующие клиенты.
const MsgRequired = "This value is not be empty"

var validate = validator.New()

// FieldError — ошибка одного поля. В JSON: {"<field>": "<message>"}.
type FieldError struct {
	Field   string
	Message string
}

// MarshalJSON сериализует ошибку в виде объекта из одного ключа.
func (e FieldError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{e.Field: e.Message})
}

// Validate проверяет обязательные поля записи. Поле обязательно,
// если оно не первичный ключ, не имеет значения по умолчанию
// и не допускает пустоты. Ошибки возвращаются в порядке объявления.
func Validate(r Record) []FieldError {
	var errs []FieldError
	for _, f := range r.Schema().Fields() {
		if f.PrimaryKey || f.HasDefault || f.Nullable {
			continue
		}
		if IsEmpty(r.Get(f.Name)) {
			errs = append(errs, FieldError{Field: f.Name, Message: MsgRequired})
		}
	}
	return errs
}

// IsEmpty сообщает, пусто ли значение: nil, нулевое значение типа
// или пустая коллекция.
func IsEmpty(v any) bool {
	v = Normalize(v)
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	}
	return validate.Var(v, "required") != nil
}
