package record

import (
	"fmt"
	"strconv"
)

// String возвращает строковое значение или "" для nil.
func String(v any) string {
	switch s := Normalize(v).(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// AsString приводит значение из хранилища или запроса к string.
func AsString(v any) (string, error) {
	switch s := Normalize(v).(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("ожидается строка, получено %T", v)
	}
}

// AsNullString приводит значение к *string (nil для пустого значения NULL).
func AsNullString(v any) (*string, error) {
	if Normalize(v) == nil {
		return nil, nil
	}
	s, err := AsString(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AsInt64 приводит целое значение к int64. JSON-числа приходят как float64.
func AsInt64(v any) (int64, error) {
	switch n := Normalize(v).(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("ожидается целое число, получено %v", n)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("ожидается целое число, получено %q", n)
		}
		return i, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("ожидается целое число, получено %T", v)
	}
}

// AsBool приводит значение к bool. SQLite хранит логические значения как 0/1.
func AsBool(v any) (bool, error) {
	switch b := Normalize(v).(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("ожидается логическое значение, получено %T", v)
	}
}
