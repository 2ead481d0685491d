package filestore

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestTypeCache_GetSetDelete(t *testing.T) {
	cache := NewTypeCache(10, time.Minute)

	if _, ok := cache.Get("a.png"); ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}
	cache.Set("a.png", "image/png")
	if ct, ok := cache.Get("a.png"); !ok || ct != "image/png" {
		t.Errorf("Get = %q, %v; ожидали image/png, true", ct, ok)
	}
	cache.Delete("a.png")
	if _, ok := cache.Get("a.png"); ok {
		t.Error("запись осталась после Delete")
	}
}

func TestTypeCache_Eviction(t *testing.T) {
	cache := NewTypeCache(2, time.Minute)
	cache.Set("a", "text/plain")
	cache.Set("b", "text/plain")
	cache.Set("c", "text/plain")

	if cache.Len() != 2 {
		t.Errorf("Len = %d, ожидали 2", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("самая старая запись не вытеснена")
	}
}

func TestTypeCache_DetectType(t *testing.T) {
	cache := NewTypeCache(10, time.Minute)
	r := bytes.NewReader(pngHeader)

	ct, err := cache.DetectType("img.png", r)
	if err != nil {
		t.Fatalf("DetectType: %v", err)
	}
	if ct != "image/png" {
		t.Errorf("тип = %q, ожидали image/png", ct)
	}
	rest, _ := io.ReadAll(r)
	if !bytes.Equal(rest, pngHeader) {
		t.Error("позиция чтения не возвращена в начало")
	}

	// Второй вызов берёт тип из кэша, не читая содержимое
	ct, err = cache.DetectType("img.png", bytes.NewReader([]byte("plain text")))
	if err != nil || ct != "image/png" {
		t.Errorf("повторный DetectType = %q, %v", ct, err)
	}
}
