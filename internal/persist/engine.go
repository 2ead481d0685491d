// Пакет persist — движок сохранения записей. Согласует строку в
// транзакционном хранилище с файловыми артефактами, которые хранилище
// не покрывает транзакцией: файлы загружаются до записи строки,
// удаляются при её неудаче и освобождаются только после успешного commit.
package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Session — сессия хранилища, используемая движком.
type Session interface {
	Add(ctx context.Context, r record.Record) error
	Merge(ctx context.Context, r record.Record) error
	Delete(ctx context.Context, r record.Record) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Refresh(ctx context.Context, r record.Record) error
	Close(ctx context.Context) error
	BulkInsert(ctx context.Context, s *record.Schema, rows []map[string]any) ([]int64, error)
	BulkUpdate(ctx context.Context, s *record.Schema, rows []map[string]any) ([]int64, error)
	BulkDelete(ctx context.Context, s *record.Schema, ids []int64) (int64, error)
}

// Artifacts — хранилище файловых артефактов.
type Artifacts interface {
	Upload(ctx context.Context, field record.Field, payload string) (string, error)
	Remove(ctx context.Context, handle string) error
}

// Options — настройки движка.
type Options struct {
	// RemoveFilesBeforeCommit — при удалении записи удалять файлы
	// до удаления строки. По умолчанию файлы удаляются после commit.
	RemoveFilesBeforeCommit bool
}

// Engine — движок сохранения записей. Не хранит состояния между
// вызовами; сессия передаётся в каждую операцию.
type Engine struct {
	files  Artifacts
	opts   Options
	logger *slog.Logger
}

// New создаёт движок сохранения.
func New(files Artifacts, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		files:  files,
		opts:   opts,
		logger: logger.With(slog.String("component", "persist")),
	}
}

// CreateOption — настройка операции создания.
type CreateOption func(*createConfig)

type createConfig struct {
	refresh bool
}

// WithoutRefresh отключает перечитывание записи после commit.
func WithoutRefresh() CreateOption {
	return func(c *createConfig) { c.refresh = false }
}

// Save создаёт запись без идентификатора и обновляет запись с идентификатором.
func (e *Engine) Save(ctx context.Context, sess Session, r record.Record, opts ...CreateOption) error {
	if r.ID() == 0 {
		return e.Create(ctx, sess, r, opts...)
	}
	return e.Update(ctx, sess, r)
}

// Create сохраняет новую запись.
//
// Поток:
//  1. Валидация и загрузка новых файлов (gate)
//  2. Add + Commit
//  3. Refresh (ошибка только логируется)
//
// При ошибке хранилища — Rollback, удаление загруженных в вызове файлов,
// сброс идентификатора записи.
func (e *Engine) Create(ctx context.Context, sess Session, r record.Record, opts ...CreateOption) error {
	cfg := createConfig{refresh: true}
	for _, o := range opts {
		o(&cfg)
	}

	start := time.Now()
	err := e.create(ctx, sess, r, cfg)
	e.observe("create", start, err)
	return err
}

func (e *Engine) create(ctx context.Context, sess Session, r record.Record, cfg createConfig) error {
	comp, err := e.gate(ctx, r)
	if err != nil {
		return err
	}

	if err := sess.Add(ctx, r); err != nil {
		return e.abort(ctx, sess, r, comp, err, true)
	}
	if err := sess.Commit(ctx); err != nil {
		return e.abort(ctx, sess, r, comp, err, true)
	}

	if cfg.refresh {
		e.refresh(ctx, sess, r)
	}
	e.logger.Debug("Запись создана",
		slog.String("table", r.Schema().Table()),
		slog.Int64("id", r.ID()),
	)
	return nil
}

// Update сохраняет изменения существующей записи.
//
// Поток:
//  1. Валидация и загрузка новых файлов (gate)
//  2. Сбор дескрипторов заменённых файлов
//  3. Merge + Commit
//  4. Удаление заменённых файлов — только после успешного commit
//
// При ошибке хранилища — Rollback, удаление новых файлов; прежние остаются.
func (e *Engine) Update(ctx context.Context, sess Session, r record.Record) error {
	start := time.Now()
	err := e.update(ctx, sess, r)
	e.observe("update", start, err)
	return err
}

func (e *Engine) update(ctx context.Context, sess Session, r record.Record) error {
	comp, err := e.gate(ctx, r)
	if err != nil {
		return err
	}

	replaced := replacedArtifacts(r)

	if err := sess.Merge(ctx, r); err != nil {
		return e.abort(ctx, sess, r, comp, err, false)
	}
	if err := sess.Commit(ctx); err != nil {
		return e.abort(ctx, sess, r, comp, err, false)
	}

	e.refresh(ctx, sess, r)
	e.removeAll(ctx, replaced)
	e.logger.Debug("Запись обновлена",
		slog.String("table", r.Schema().Table()),
		slog.Int64("id", r.ID()),
		slog.Int("replaced_files", len(replaced)),
	)
	return nil
}

// Delete удаляет запись и её файлы. Файлы удаляются после успешного
// commit (или до удаления строки при Options.RemoveFilesBeforeCommit).
// При ошибке хранилища файлы не затрагиваются.
func (e *Engine) Delete(ctx context.Context, sess Session, r record.Record) error {
	start := time.Now()
	err := e.delete(ctx, sess, r)
	e.observe("delete", start, err)
	return err
}

func (e *Engine) delete(ctx context.Context, sess Session, r record.Record) error {
	handles := currentArtifacts(r)
	if e.opts.RemoveFilesBeforeCommit {
		e.removeAll(ctx, handles)
		handles = nil
	}

	if err := sess.Delete(ctx, r); err != nil {
		return e.abort(ctx, sess, r, nil, err, false)
	}
	if err := sess.Commit(ctx); err != nil {
		return e.abort(ctx, sess, r, nil, err, false)
	}

	e.removeAll(ctx, handles)
	e.logger.Debug("Запись удалена",
		slog.String("table", r.Schema().Table()),
		slog.Int64("id", r.ID()),
	)
	return nil
}

// gate — общий шаг создания и обновления: валидация и загрузка
// новых файлов. Возвращает стек компенсации загруженных файлов.
// Транзакцию не открывает.
func (e *Engine) gate(ctx context.Context, r record.Record) (*compensation, error) {
	if errs := record.Validate(r); len(errs) > 0 {
		return nil, &Error{Kind: KindValidation, Fields: errs}
	}

	comp := &compensation{}
	var failed []record.FieldError

	for _, f := range r.Schema().FileFields() {
		payload := record.String(record.History(r, f.Name).Added)
		if payload == "" {
			continue
		}

		handle, err := e.files.Upload(ctx, f, payload)
		if err != nil {
			artifactsTotal.WithLabelValues("upload", "error").Inc()
			e.logger.Warn("Ошибка загрузки файла",
				slog.String("table", r.Schema().Table()),
				slog.String("field", f.Name),
				slog.String("error", err.Error()),
			)
			failed = append(failed, record.FieldError{Field: f.Name, Message: MsgUploadFailed})
			continue
		}
		artifactsTotal.WithLabelValues("upload", "ok").Inc()

		field := f.Name
		comp.push(func(ctx context.Context) {
			e.remove(ctx, handle)
			_ = r.Set(field, payload)
		})
		if err := r.Set(field, handle); err != nil {
			e.logger.Error("Ошибка записи дескриптора файла",
				slog.String("field", field),
				slog.String("error", err.Error()),
			)
			failed = append(failed, record.FieldError{Field: field, Message: MsgUploadFailed})
		}
	}

	if len(failed) > 0 {
		comp.run(ctx)
		return nil, &Error{Kind: KindArtifact, Fields: failed}
	}
	return comp, nil
}

// abort откатывает транзакцию и отменяет побочные эффекты вызова.
// resetID — сбросить идентификатор (для неудачного создания).
func (e *Engine) abort(ctx context.Context, sess Session, r record.Record, comp *compensation, cause error, resetID bool) error {
	cleanupCtx := context.WithoutCancel(ctx)
	if err := sess.Rollback(cleanupCtx); err != nil {
		e.logger.Error("Ошибка отката транзакции",
			slog.String("table", r.Schema().Table()),
			slog.String("error", err.Error()),
		)
	}
	comp.run(cleanupCtx)
	if resetID {
		r.SetID(0)
	}

	e.logger.Warn("Операция отменена: ошибка хранилища",
		slog.String("table", r.Schema().Table()),
		slog.String("error", cause.Error()),
	)
	return &Error{Kind: KindStore, Err: cause}
}

// refresh перечитывает запись после commit; ошибка только логируется.
func (e *Engine) refresh(ctx context.Context, sess Session, r record.Record) {
	if err := sess.Refresh(ctx, r); err != nil {
		e.logger.Warn("Ошибка перечитывания записи после commit",
			slog.String("table", r.Schema().Table()),
			slog.Int64("id", r.ID()),
			slog.String("error", err.Error()),
		)
	}
}

// remove удаляет файл; ошибка только логируется.
func (e *Engine) remove(ctx context.Context, handle string) {
	if err := e.files.Remove(ctx, handle); err != nil {
		artifactsTotal.WithLabelValues("remove", "error").Inc()
		e.logger.Warn("Ошибка удаления файла",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
		return
	}
	artifactsTotal.WithLabelValues("remove", "ok").Inc()
}

func (e *Engine) removeAll(ctx context.Context, handles []string) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range handles {
		e.remove(ctx, h)
	}
}

// replacedArtifacts возвращает прежние дескрипторы файловых полей,
// значение которых изменено или очищено.
func replacedArtifacts(r record.Record) []string {
	var out []string
	for _, f := range r.Schema().FileFields() {
		if h := record.String(record.History(r, f.Name).Deleted); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// currentArtifacts возвращает текущие дескрипторы файловых полей.
func currentArtifacts(r record.Record) []string {
	var out []string
	for _, f := range r.Schema().FileFields() {
		if h := record.String(r.Get(f.Name)); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func (e *Engine) observe(op string, start time.Time, err error) {
	operationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
