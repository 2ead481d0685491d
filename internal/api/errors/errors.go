// Пакет errors — ответы с ошибками в формате Artstore.
// Единый формат: {"error": {"code": "...", "message": "...", "details": ...}}.
// Поле details присутствует только для ошибок сохранения записи.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/goartstore/record-module/internal/persist"
	"github.com/bigkaa/goartstore/record-module/internal/store"
	"github.com/bigkaa/goartstore/record-module/internal/storage/filestore"
)

// Коды ошибок.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUploadError     = "UPLOAD_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeStoreError      = "STORE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате Artstore.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, errorDetail{Code: code, Message: message})
}

func writeBody(w http.ResponseWriter, statusCode int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Conflict — 409 конфликт (нарушение уникальности).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// Persist записывает ответ для ошибки движка сохранения.
// Возвращает false, если err не распознана: ответ тогда не записан.
//
//	KindValidation → 400 VALIDATION_ERROR, details — ошибки полей
//	KindArtifact   → 400 UPLOAD_ERROR, details — ошибки полей
//	KindStore      → 409 CONFLICT для нарушения ограничений,
//	                 400 для некорректных строк, иначе 500 STORE_ERROR
//	ErrNoData      → 400 VALIDATION_ERROR
func Persist(w http.ResponseWriter, err error) bool {
	if stderrors.Is(err, persist.ErrNoData) {
		ValidationError(w, persist.ErrNoData.Error())
		return true
	}

	var perr *persist.Error
	if !stderrors.As(err, &perr) {
		return false
	}

	switch perr.Kind {
	case persist.KindValidation:
		writeBody(w, http.StatusBadRequest, errorDetail{
			Code: CodeValidationError, Message: "ошибка валидации", Details: perr.Details(),
		})
	case persist.KindArtifact:
		writeBody(w, http.StatusBadRequest, errorDetail{
			Code: CodeUploadError, Message: persist.MsgUploadFailed, Details: perr.Details(),
		})
	default:
		status, code := http.StatusInternalServerError, CodeStoreError
		switch {
		case stderrors.Is(err, store.ErrConflict):
			status, code = http.StatusConflict, CodeConflict
		case stderrors.Is(err, store.ErrBadRow):
			status, code = http.StatusBadRequest, CodeValidationError
		}
		writeBody(w, status, errorDetail{
			Code: code, Message: "ошибка хранилища", Details: perr.Details(),
		})
	}
	return true
}

// Lookup записывает ответ для ошибки чтения записи или файла:
// 404 для отсутствующих, иначе 500.
func Lookup(w http.ResponseWriter, err error, message string) {
	if stderrors.Is(err, store.ErrNotFound) || stderrors.Is(err, filestore.ErrNotFound) ||
		stderrors.Is(err, filestore.ErrInvalidHandle) {
		NotFound(w, message)
		return
	}
	InternalError(w, err.Error())
}
