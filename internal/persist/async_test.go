package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/bigkaa/goartstore/record-module/internal/domain/model"
	"github.com/bigkaa/goartstore/record-module/internal/store"
)

func TestAsync_SaveDispatchAndClose(t *testing.T) {
	env := newEnv(t, Options{})
	async := env.engine.Async()
	ctx := context.Background()

	a := &model.Artwork{Title: "Асинхронное", Image: pngPayload("i")}
	sess := env.store.Session()
	if _, err := async.Save(ctx, sess, a).Wait(ctx); err != nil {
		t.Fatalf("Save (create): %v", err)
	}
	if a.ID() == 0 {
		t.Fatal("ID не присвоен")
	}
	if !sess.Closed() {
		t.Error("асинхронная операция должна закрыть сессию")
	}

	id := a.ID()
	a.Image = pngPayload("new")
	sess = env.store.Session()
	if _, err := async.Save(ctx, sess, a).Result(); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	if a.ID() != id {
		t.Errorf("ID = %d, ожидали %d", a.ID(), id)
	}
	if n := env.fileCount(t); n != 1 {
		t.Errorf("файлов = %d, ожидали 1", n)
	}
	if !sess.Closed() {
		t.Error("сессия должна быть закрыта")
	}
}

func TestAsync_FailureClosesSession(t *testing.T) {
	env := newEnv(t, Options{})
	ctx := context.Background()

	sess := env.store.Session()
	_, err := env.engine.Async().Create(ctx, sess, &model.Artwork{}).Result()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create() = %v, ожидали ErrValidation", err)
	}
	if !sess.Closed() {
		t.Error("сессия должна быть закрыта и при ошибке")
	}

	sess = env.store.Session()
	_, err = env.engine.Async().BulkCreate(ctx, sess, model.TagSchema, nil).Result()
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("BulkCreate(nil) = %v, ожидали ErrNoData", err)
	}
	if !sess.Closed() {
		t.Error("сессия массовой операции должна быть закрыта")
	}
}

func TestAsync_DeleteAndBulk(t *testing.T) {
	env := newEnv(t, Options{})
	async := env.engine.Async()
	ctx := context.Background()

	a := &model.Artwork{Title: "На удаление", Image: pngPayload("i")}
	if _, err := async.Create(ctx, env.store.Session(), a).Result(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a.Views = 3
	if _, err := async.Update(ctx, env.store.Session(), a).Result(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := async.Delete(ctx, env.store.Session(), a).Result(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := env.fileCount(t); n != 0 {
		t.Errorf("файлов = %d, ожидали 0", n)
	}

	ids, err := async.BulkCreate(ctx, env.store.Session(), model.TagSchema, []map[string]any{
		{"name": "эскиз"}, {"name": "набросок"},
	}).Result()
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if _, err := async.BulkUpdate(ctx, env.store.Session(), model.TagSchema, []map[string]any{
		{"id": ids[0], "color": "green"},
	}).Result(); err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if _, err := async.BulkDelete(ctx, env.store.Session(), model.TagSchema, ids).Result(); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if n := env.rowCount(t, model.TagSchema); n != 0 {
		t.Errorf("строк = %d, ожидали 0", n)
	}

	// Закрытая сессия не принимает операций
	closed := env.store.Session()
	_ = closed.Close(ctx)
	if _, err := async.Create(ctx, closed, &model.Artwork{Title: "x", Image: pngPayload("x")}).Result(); !errors.Is(err, store.ErrSessionClosed) {
		t.Errorf("Create на закрытой сессии = %v, ожидали ErrSessionClosed", err)
	}
}
