// Пакет filestore — файловые артефакты записей на диске.
// Принимает содержимое в виде data URL, пишет его потоково
// с подсчётом SHA-256, читает и удаляет файлы по дескриптору.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"

	"github.com/bigkaa/goartstore/record-module/internal/record"
)

// Ошибки загрузки.
var (
	// ErrInvalidPayload — содержимое не является корректным base64 data URL
	ErrInvalidPayload = errors.New("некорректный data URL")
	// ErrTooLarge — размер файла превышает лимит
	ErrTooLarge = errors.New("превышен максимальный размер файла")
	// ErrInvalidHandle — дескриптор указывает за пределы корневой директории
	ErrInvalidHandle = errors.New("некорректный дескриптор файла")
	// ErrNotFound — файл отсутствует на диске
	ErrNotFound = errors.New("файл не найден")
)

// chunkSize — размер блока записи; между блоками проверяется контекст.
const chunkSize = 64 * 1024

// FileStore — управление файловыми артефактами на диске.
type FileStore struct {
	// root — корневая директория артефактов (RM_MEDIA_DIR)
	root string
	// maxSize — максимальный размер одного файла (0 — без ограничения)
	maxSize int64
}

// SaveResult — результат сохранения артефакта.
type SaveResult struct {
	// Handle — относительный путь файла в root, хранится в записи
	Handle string
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 хэш содержимого
	Checksum string
	// ContentType — MIME-тип из data URL
	ContentType string
}

// New создаёт FileStore. Проверяет и создаёт директорию,
// если она не существует.
func New(root string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию артефактов %s: %w", root, err)
	}
	return &FileStore{root: root, maxSize: maxSize}, nil
}

// Upload декодирует data URL и сохраняет содержимое как новый артефакт
// поля field. Возвращает дескриптор: {upload_to}/{field}_{timestamp}_{uuid}{ext}.
func (fs *FileStore) Upload(ctx context.Context, field record.Field, payload string) (string, error) {
	res, err := fs.Save(ctx, field, payload)
	if err != nil {
		return "", err
	}
	return res.Handle, nil
}

// Save — Upload с полной информацией о записанном файле.
func (fs *FileStore) Save(ctx context.Context, field record.Field, payload string) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	du, err := dataurl.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(du.Data) == 0 {
		return nil, fmt.Errorf("%w: пустое содержимое", ErrInvalidPayload)
	}
	if fs.maxSize > 0 && int64(len(du.Data)) > fs.maxSize {
		return nil, fmt.Errorf("%w: %d > %d байт", ErrTooLarge, len(du.Data), fs.maxSize)
	}

	dir, err := uploadDir(field.UploadTo)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(fs.root, dir), 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	handle := filepath.ToSlash(filepath.Join(dir, generateStorageName(field.Name, extension(du))))
	size, sum, err := fs.write(ctx, handle, bytes.NewReader(du.Data))
	if err != nil {
		return nil, err
	}

	return &SaveResult{
		Handle:      handle,
		Size:        size,
		Checksum:    sum,
		ContentType: du.MediaType.ContentType(),
	}, nil
}

// write записывает данные из reader в handle с подсчётом SHA-256 на лету.
//
// Паттерн: temp файл → запись блоками + SHA-256 → fsync → atomic rename.
// При ошибке или отмене контекста temp файл удаляется.
func (fs *FileStore) write(ctx context.Context, handle string, reader io.Reader) (int64, string, error) {
	fullPath := filepath.Join(fs.root, filepath.FromSlash(handle))
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	hasher := sha256.New()
	tee := io.TeeReader(reader, hasher)

	var size int64
	for {
		if err := ctx.Err(); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return 0, "", err
		}
		n, err := io.CopyN(f, tee, chunkSize)
		size += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return 0, "", fmt.Errorf("ошибка записи данных: %w", err)
		}
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}

// Remove удаляет артефакт. Возвращает nil, если файла уже нет.
func (fs *FileStore) Remove(_ context.Context, handle string) error {
	fullPath, err := fs.resolve(handle)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", handle, err)
	}
	return nil
}

// Open открывает артефакт для чтения. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(handle string) (*os.File, error) {
	fullPath, err := fs.resolve(handle)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", handle, err)
	}
	return f, nil
}

// Exists проверяет существование артефакта на диске.
func (fs *FileStore) Exists(handle string) bool {
	fullPath, err := fs.resolve(handle)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// FullPath возвращает абсолютный путь к артефакту.
func (fs *FileStore) FullPath(handle string) string {
	return filepath.Join(fs.root, filepath.FromSlash(handle))
}

// Root возвращает корневую директорию артефактов.
func (fs *FileStore) Root() string {
	return fs.root
}

// resolve проверяет, что дескриптор не выходит за пределы root.
func (fs *FileStore) resolve(handle string) (string, error) {
	if handle == "" || filepath.IsAbs(handle) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	clean := filepath.Clean(filepath.FromSlash(handle))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return filepath.Join(fs.root, clean), nil
}

// uploadDir строит относительную директорию поля из upload_to.
// Каждый сегмент очищается отдельно; "..", "." и пустые сегменты отклоняются.
func uploadDir(uploadTo string) (string, error) {
	if uploadTo == "" {
		return "", nil
	}
	parts := strings.Split(uploadTo, "/")
	for i, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: upload_to %q", ErrInvalidHandle, uploadTo)
		}
		parts[i] = sanitize(part)
	}
	return filepath.Join(parts...), nil
}

// extension определяет расширение файла по содержимому,
// при неудаче — по MIME-типу из data URL.
func extension(du *dataurl.DataURL) string {
	if ext := mimetype.Detect(du.Data).Extension(); ext != "" {
		return ext
	}
	if m := mimetype.Lookup(du.MediaType.ContentType()); m != nil {
		return m.Extension()
	}
	return ""
}

// generateStorageName генерирует имя файла артефакта.
// Формат: {field}_{timestamp}_{uuid}{ext}
// Пример: image_20260221150405_a1b2c3d4.png
func generateStorageName(fieldName, ext string) string {
	name := sanitize(fieldName)
	if len(name) > 50 {
		name = name[:50]
	}

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.New().String()[:8] // Короткий UUID для уникальности

	return fmt.Sprintf("%s_%s_%s%s", name, ts, uid, ext)
}

// sanitize убирает небезопасные символы из строки для использования в имени файла.
// Оставляет только буквы, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) { // Кириллица
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}
