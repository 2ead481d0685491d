package persist

import (
	"errors"
	"strings"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// MsgUploadFailed — сообщение об ошибке загрузки файла поля.
const MsgUploadFailed = "Error to upload file"

// Kind — категория ошибки сохранения.
type Kind int

const (
	// KindValidation — пустые обязательные поля; хранилище не затронуто
	KindValidation Kind = iota + 1
	// KindArtifact — не удалось загрузить файлы; загруженные в вызове удалены
	KindArtifact
	// KindStore — ошибка хранилища; транзакция откачена
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindArtifact:
		return "artifact"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Sentinel-ошибки для errors.Is.
var (
	ErrValidation = errors.New("ошибка валидации записи")
	ErrArtifact   = errors.New("ошибка загрузки файлов")
	ErrStore      = errors.New("ошибка хранилища")
	// ErrNoData — массовая операция без данных
	ErrNoData = errors.New("Data is not found!")
)

// Error — ошибка операции сохранения или удаления.
type Error struct {
	Kind Kind
	// Fields — ошибки полей (для KindValidation и KindArtifact)
	Fields []record.FieldError
	// Err — исходная ошибка хранилища (для KindStore)
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStore:
		return ErrStore.Error() + ": " + e.Err.Error()
	default:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Field + ": " + f.Message
		}
		return e.sentinel().Error() + ": " + strings.Join(parts, "; ")
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is сопоставляет ошибку с sentinel её категории.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindArtifact:
		return ErrArtifact
	default:
		return ErrStore
	}
}

// Details возвращает ошибку в форме для клиента: список ошибок полей
// или одно сообщение драйвера хранилища.
func (e *Error) Details() any {
	if e.Kind == KindStore {
		return []string{e.Err.Error()}
	}
	return e.Fields
}
