// handler.go — основной обработчик API Record Module.
// Объединяет обработчики ресурсов и общие вспомогательные функции.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/record-module/internal/api/errors"
	"github.com/bigkaa/goartstore/record-module/internal/pagination"
	"github.com/bigkaa/goartstore/record-module/internal/persist"
	"github.com/bigkaa/goartstore/record-module/internal/record"
	"github.com/bigkaa/goartstore/record-module/internal/storage/filestore"
	"github.com/bigkaa/goartstore/record-module/internal/store"
)

// APIHandler — обработчик API записей.
type APIHandler struct {
	health       *HealthHandler
	store        *store.Store
	engine       *persist.Engine
	files        *filestore.FileStore
	types        *filestore.TypeCache
	defaultLimit int
	logger       *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// defaultLimit — размер страницы, если limit не указан (0 — без пагинации).
func NewAPIHandler(
	health *HealthHandler,
	st *store.Store,
	engine *persist.Engine,
	files *filestore.FileStore,
	types *filestore.TypeCache,
	defaultLimit int,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:       health,
		store:        st,
		engine:       engine,
		files:        files,
		types:        types,
		defaultLimit: defaultLimit,
		logger:       logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует маршруты API в роутере.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1/artworks", func(r chi.Router) {
		r.Get("/", h.ListArtworks)
		r.Post("/", h.CreateArtwork)
		r.Get("/{id}", h.GetArtwork)
		r.Patch("/{id}", h.UpdateArtwork)
		r.Delete("/{id}", h.DeleteArtwork)
		r.Get("/{id}/files/{field}", h.DownloadArtworkFile)
	})

	r.Route("/api/v1/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.BulkCreateTags)
		r.Put("/", h.BulkUpdateTags)
		r.Delete("/", h.BulkDeleteTags)
	})
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID извлекает положительный идентификатор из URL.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// applyFields переносит значения полей из тела запроса в запись.
// Идентификатор и необъявленные поля отклоняются.
func applyFields(r record.Record, body map[string]any) error {
	sch := r.Schema()
	for name, v := range body {
		f, ok := sch.Field(name)
		if !ok || f.PrimaryKey {
			return fmt.Errorf("поле %q нельзя задать", name)
		}
		if err := r.Set(name, v); err != nil {
			return fmt.Errorf("поле %q: %w", name, err)
		}
	}
	return nil
}

// decodeObject читает JSON-объект из тела запроса.
func decodeObject(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("некорректный JSON: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("ожидается JSON-объект")
	}
	return body, nil
}

// listQuery строит запрос выборки из параметров ordering.
// Пример: ?ordering=-views,title.
func listQuery(q *store.Query, r *http.Request) *store.Query {
	if ordering := r.URL.Query().Get("ordering"); ordering != "" {
		q = q.OrderBy(strings.Split(ordering, ",")...)
	}
	return q
}

// paginate выдаёт результаты источника: режим смещения, если в запросе
// есть offset, иначе режим номера страницы. Сессия источника закрывается
// пагинацией.
func paginate[T any](w http.ResponseWriter, r *http.Request, src pagination.ReleasableSource[T], defaultLimit int, logger *slog.Logger) {
	ctx := r.Context()
	values := r.URL.Query()

	var (
		resp any
		err  error
	)
	if values.Has("offset") {
		p := pagination.ParseOffsetParams(values).WithDefaultLimit(defaultLimit)
		resp, err = pagination.PaginateOffsetAsync(ctx, p, src).Wait(ctx)
	} else {
		p := pagination.ParsePageParams(values).WithDefaultLimit(defaultLimit)
		resp, err = pagination.PaginatePagesAsync(ctx, p, src).Wait(ctx)
	}
	if err != nil {
		logger.Error("Ошибка выборки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "ошибка выборки")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// closeSession закрывает сессию, не выполнившую асинхронную операцию.
func (h *APIHandler) closeSession(ctx context.Context, sess *store.Session) {
	if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
		h.logger.Warn("Ошибка закрытия сессии", slog.String("error", err.Error()))
	}
}

// writePersistError записывает ответ для ошибки сохранения или удаления.
func (h *APIHandler) writePersistError(w http.ResponseWriter, err error) {
	if apierrors.Persist(w, err) {
		return
	}
	h.logger.Error("Ошибка операции записи", slog.String("error", err.Error()))
	apierrors.InternalError(w, err.Error())
}
