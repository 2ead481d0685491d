package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// pngHeader — минимальная PNG-сигнатура, достаточная для определения типа.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func pngPayload(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func newStore(t *testing.T, maxSize int64) *FileStore {
	t.Helper()
	fs, err := New(filepath.Join(t.TempDir(), "media"), maxSize)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fs
}

var imageField = record.Field{Name: "image", Kind: record.File, UploadTo: "artworks"}

func TestSave_WritesArtifact(t *testing.T) {
	fs := newStore(t, 0)
	data := append(append([]byte{}, pngHeader...), []byte("payload")...)

	res, err := fs.Save(context.Background(), imageField, pngPayload(data))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(res.Handle, "artworks/image_") {
		t.Errorf("Handle = %q, ожидается префикс artworks/image_", res.Handle)
	}
	if !strings.HasSuffix(res.Handle, ".png") {
		t.Errorf("Handle = %q, ожидается расширение .png", res.Handle)
	}
	if res.Size != int64(len(data)) {
		t.Errorf("Size = %d, ожидается %d", res.Size, len(data))
	}
	sum := sha256.Sum256(data)
	if res.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("Checksum = %q", res.Checksum)
	}
	if res.ContentType != "image/png" {
		t.Errorf("ContentType = %q", res.ContentType)
	}
	if _, err := os.Stat(fs.FullPath(res.Handle) + ".tmp"); !os.IsNotExist(err) {
		t.Error("временный файл должен быть удалён после rename")
	}

	f, err := fs.Open(res.Handle)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if string(got) != string(data) {
		t.Error("содержимое файла не совпадает")
	}
}

func TestUpload_InvalidPayload(t *testing.T) {
	fs := newStore(t, 0)

	for _, payload := range []string{"fkfjhfjkfj", "data:image/png;base64,", "data:image/png;base64,@@@"} {
		if _, err := fs.Upload(context.Background(), imageField, payload); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Upload(%q) = %v, ожидается ErrInvalidPayload", payload, err)
		}
	}
}

func TestUpload_TooLarge(t *testing.T) {
	fs := newStore(t, 8)

	_, err := fs.Upload(context.Background(), imageField, pngPayload(pngHeader))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Upload = %v, ожидается ErrTooLarge", err)
	}
}

func TestUpload_CancelledContext(t *testing.T) {
	fs := newStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fs.Upload(ctx, imageField, pngPayload(pngHeader)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Upload = %v, ожидается context.Canceled", err)
	}
	entries, _ := os.ReadDir(fs.Root())
	if len(entries) != 0 {
		t.Errorf("после отмены на диске остались файлы: %d", len(entries))
	}
}

func TestRemove(t *testing.T) {
	fs := newStore(t, 0)
	ctx := context.Background()

	handle, err := fs.Upload(ctx, imageField, pngPayload(pngHeader))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !fs.Exists(handle) {
		t.Fatal("файл должен существовать")
	}
	if err := fs.Remove(ctx, handle); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fs.Exists(handle) {
		t.Error("файл должен быть удалён")
	}
	// Повторное удаление — не ошибка
	if err := fs.Remove(ctx, handle); err != nil {
		t.Errorf("повторный Remove: %v", err)
	}
}

func TestResolve_RejectsEscape(t *testing.T) {
	fs := newStore(t, 0)

	for _, h := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		if err := fs.Remove(context.Background(), h); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("Remove(%q) = %v, ожидается ErrInvalidHandle", h, err)
		}
	}
	if _, err := fs.Open("missing/file.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) = %v, ожидается ErrNotFound", err)
	}
}

func TestUploadDir(t *testing.T) {
	tests := []struct {
		uploadTo string
		want     string
		wantErr  bool
	}{
		{"", "", false},
		{"artworks", "artworks", false},
		{"artworks/images", filepath.Join("artworks", "images"), false},
		{"арт/превью!", filepath.Join("арт", "превью"), false},
		{"../etc", "", true},
		{"artworks/../..", "", true},
		{"artworks//images", "", true},
		{"/abs", "", true},
		{"artworks/./images", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uploadTo, func(t *testing.T) {
			got, err := uploadDir(tt.uploadTo)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHandle) {
					t.Fatalf("uploadDir(%q) = %q, %v, ожидается ErrInvalidHandle", tt.uploadTo, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("uploadDir(%q): %v", tt.uploadTo, err)
			}
			if got != tt.want {
				t.Errorf("uploadDir(%q) = %q, ожидается %q", tt.uploadTo, got, tt.want)
			}
		})
	}
}

func TestSave_NestedUploadTo(t *testing.T) {
	fs := newStore(t, 0)
	field := record.Field{Name: "preview", Kind: record.File, UploadTo: "artworks/previews"}

	res, err := fs.Save(context.Background(), field, pngPayload(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(res.Handle, "artworks/previews/preview_") {
		t.Errorf("Handle = %q, ожидается префикс artworks/previews/preview_", res.Handle)
	}
	if !fs.Exists(res.Handle) {
		t.Errorf("файл %q не найден", res.Handle)
	}

	bad := record.Field{Name: "image", Kind: record.File, UploadTo: "../outside"}
	if _, err := fs.Save(context.Background(), bad, pngPayload(pngHeader)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Save(../outside) = %v, ожидается ErrInvalidHandle", err)
	}
}

func TestGenerateStorageName(t *testing.T) {
	name := generateStorageName("обложка big!", ".jpg")
	if !strings.HasPrefix(name, "обложкаbig_") {
		t.Errorf("name = %q", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name = %q, ожидается расширение .jpg", name)
	}
	if sanitize("!!!") != "file" {
		t.Error("sanitize пустого результата должен вернуть file")
	}
}
