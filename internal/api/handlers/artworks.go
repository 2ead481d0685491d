// artworks.go — обработчики произведений: CRUD и выдача файлов.
// Записи создаются, обновляются и удаляются асинхронными формами движка;
// каждая операция владеет своей сессией и закрывает её по завершении.
package handlers

import (
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/record-module/internal/api/errors"
	"github.com/bigkaa/goartstore/record-module/internal/domain/model"
	"github.com/bigkaa/goartstore/record-module/internal/record"
	"github.com/bigkaa/goartstore/record-module/internal/store"
)

// ListArtworks — GET /api/v1/artworks.
// Фильтр: title (подстрока без учёта регистра), сортировка: ordering.
func (h *APIHandler) ListArtworks(w http.ResponseWriter, r *http.Request) {
	q := listQuery(store.From(model.ArtworkSchema), r)
	if title := r.URL.Query().Get("title"); title != "" {
		q = q.Contains("title", title)
	}
	if err := q.Err(); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	src := store.QuerySource[*model.Artwork](h.store.Session(), q)
	paginate[*model.Artwork](w, r, src, h.defaultLimit, h.logger)
}

// GetArtwork — GET /api/v1/artworks/{id}.
func (h *APIHandler) GetArtwork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apierrors.ValidationError(w, "некорректный идентификатор")
		return
	}

	sess := h.store.Session()
	defer h.closeSession(r.Context(), sess)

	rec, err := sess.Get(r.Context(), model.ArtworkSchema, id)
	if err != nil {
		apierrors.Lookup(w, err, "произведение не найдено")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateArtwork — POST /api/v1/artworks.
// Поля файлов передаются в виде base64 data URL.
func (h *APIHandler) CreateArtwork(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	art := &model.Artwork{}
	if err := applyFields(art, body); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if _, err := h.engine.Async().Create(r.Context(), h.store.Session(), art).Wait(r.Context()); err != nil {
		h.writePersistError(w, err)
		return
	}

	h.logger.Info("Произведение создано",
		slog.Int64("id", art.ID()),
		slog.String("title", art.Title),
	)
	writeJSON(w, http.StatusCreated, art)
}

// UpdateArtwork — PATCH /api/v1/artworks/{id}.
// Заменённые файлы удаляются только после успешного commit.
func (h *APIHandler) UpdateArtwork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apierrors.ValidationError(w, "некорректный идентификатор")
		return
	}
	body, err := decodeObject(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	sess := h.store.Session()
	rec, err := sess.Get(r.Context(), model.ArtworkSchema, id)
	if err != nil {
		h.closeSession(r.Context(), sess)
		apierrors.Lookup(w, err, "произведение не найдено")
		return
	}
	if err := applyFields(rec, body); err != nil {
		h.closeSession(r.Context(), sess)
		apierrors.ValidationError(w, err.Error())
		return
	}

	if _, err := h.engine.Async().Update(r.Context(), sess, rec).Wait(r.Context()); err != nil {
		h.writePersistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteArtwork — DELETE /api/v1/artworks/{id}.
func (h *APIHandler) DeleteArtwork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apierrors.ValidationError(w, "некорректный идентификатор")
		return
	}

	sess := h.store.Session()
	rec, err := sess.Get(r.Context(), model.ArtworkSchema, id)
	if err != nil {
		h.closeSession(r.Context(), sess)
		apierrors.Lookup(w, err, "произведение не найдено")
		return
	}

	if _, err := h.engine.Async().Delete(r.Context(), sess, rec).Wait(r.Context()); err != nil {
		h.writePersistError(w, err)
		return
	}

	h.logger.Info("Произведение удалено", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// DownloadArtworkFile — GET /api/v1/artworks/{id}/files/{field}.
// Content-Type определяется по содержимому файла и кэшируется по дескриптору.
func (h *APIHandler) DownloadArtworkFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apierrors.ValidationError(w, "некорректный идентификатор")
		return
	}
	field, ok := model.ArtworkSchema.Field(chi.URLParam(r, "field"))
	if !ok || field.Kind != record.File {
		apierrors.NotFound(w, "поле файла не найдено")
		return
	}

	sess := h.store.Session()
	rec, err := sess.Get(r.Context(), model.ArtworkSchema, id)
	h.closeSession(r.Context(), sess)
	if err != nil {
		apierrors.Lookup(w, err, "произведение не найдено")
		return
	}

	handle := record.String(rec.Get(field.Name))
	if handle == "" {
		apierrors.NotFound(w, "файл не задан")
		return
	}

	f, err := h.files.Open(handle)
	if err != nil {
		apierrors.Lookup(w, err, "файл не найден")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		apierrors.InternalError(w, "ошибка чтения файла")
		return
	}
	contentType, err := h.types.DetectType(handle, f)
	if err != nil {
		apierrors.InternalError(w, "ошибка чтения файла")
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, path.Base(handle), info.ModTime(), f)
}
