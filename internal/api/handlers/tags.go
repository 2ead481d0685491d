// tags.go — обработчики тегов: выборка и массовые операции.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/record-module/internal/api/errors"
	"github.com/bigkaa/goartstore/record-module/internal/domain/model"
	"github.com/bigkaa/goartstore/record-module/internal/store"
)

type bulkIDsResponse struct {
	IDs []int64 `json:"ids"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ListTags — GET /api/v1/tags. Фильтр: name (точное совпадение).
func (h *APIHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	q := listQuery(store.From(model.TagSchema), r)
	if name := r.URL.Query().Get("name"); name != "" {
		q = q.Eq("name", name)
	}
	if err := q.Err(); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	src := store.QuerySource[*model.Tag](h.store.Session(), q)
	paginate[*model.Tag](w, r, src, h.defaultLimit, h.logger)
}

// BulkCreateTags — POST /api/v1/tags. Тело: JSON-массив объектов
// с одинаковым набором полей.
func (h *APIHandler) BulkCreateTags(w http.ResponseWriter, r *http.Request) {
	rows, ok := decodeRows(w, r)
	if !ok {
		return
	}

	ids, err := h.engine.Async().BulkCreate(r.Context(), h.store.Session(), model.TagSchema, rows).Wait(r.Context())
	if err != nil {
		h.writePersistError(w, err)
		return
	}

	h.logger.Info("Теги созданы", slog.Int("count", len(ids)))
	writeJSON(w, http.StatusCreated, bulkIDsResponse{IDs: ids})
}

// BulkUpdateTags — PUT /api/v1/tags. Каждый объект содержит id.
func (h *APIHandler) BulkUpdateTags(w http.ResponseWriter, r *http.Request) {
	rows, ok := decodeRows(w, r)
	if !ok {
		return
	}

	ids, err := h.engine.Async().BulkUpdate(r.Context(), h.store.Session(), model.TagSchema, rows).Wait(r.Context())
	if err != nil {
		h.writePersistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkIDsResponse{IDs: ids})
}

// BulkDeleteTags — DELETE /api/v1/tags. Тело: {"ids": [...]}.
func (h *APIHandler) BulkDeleteTags(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректный JSON: "+err.Error())
		return
	}

	if _, err := h.engine.Async().BulkDelete(r.Context(), h.store.Session(), model.TagSchema, req.IDs).Wait(r.Context()); err != nil {
		h.writePersistError(w, err)
		return
	}

	h.logger.Info("Теги удалены", slog.Int("count", len(req.IDs)))
	w.WriteHeader(http.StatusNoContent)
}

// decodeRows читает JSON-массив строк. При ошибке ответ уже записан.
func decodeRows(w http.ResponseWriter, r *http.Request) ([]map[string]any, bool) {
	var rows []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		apierrors.ValidationError(w, "некорректный JSON: "+err.Error())
		return nil, false
	}
	return rows, true
}
