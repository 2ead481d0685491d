// Пакет config — загрузка и валидация конфигурации Record Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Драйверы хранилища записей.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config содержит все параметры конфигурации Record Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8040-8049)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Хранилище записей ---

	// Драйвер: postgres или sqlite
	DBDriver string
	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Путь к файлу SQLite (для драйвера sqlite)
	SQLitePath string

	// --- Файлы ---

	// Корневая директория файловых артефактов
	MediaDir string
	// Максимальный размер одного загружаемого файла в байтах
	MaxUploadSize int64
	// Удалять файлы записи до удаления строки (по умолчанию — после commit)
	DeleteFilesBeforeCommit bool
	// Размер LRU-кэша типов содержимого файлов
	TypeCacheSize int
	// TTL записи кэша типов содержимого
	TypeCacheTTL time.Duration

	// --- Пагинация ---

	// Лимит по умолчанию для списков (0 — без пагинации)
	DefaultPageLimit int

	// --- topologymetrics ---

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (RM_DEPHEALTH_GROUP)
	DephealthGroup string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// RM_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("RM_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("RM_PORT: %w", err)
	}
	if cfg.Port < 8040 || cfg.Port > 8049 {
		return nil, fmt.Errorf("RM_PORT: значение %d вне допустимого диапазона 8040-8049", cfg.Port)
	}

	// RM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RM_LOG_LEVEL: %w", err)
	}

	// RM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Хранилище записей ---

	// RM_DB_DRIVER — драйвер (по умолчанию postgres)
	cfg.DBDriver = strings.ToLower(getEnvDefault("RM_DB_DRIVER", DriverPostgres))
	switch cfg.DBDriver {
	case DriverPostgres:
		if err := loadPostgres(cfg); err != nil {
			return nil, err
		}
	case DriverSQLite:
		// RM_SQLITE_PATH — обязательный для sqlite
		cfg.SQLitePath, err = getEnvRequired("RM_SQLITE_PATH")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("RM_DB_DRIVER: недопустимое значение %q, допустимые: postgres, sqlite", cfg.DBDriver)
	}

	// --- Файлы ---

	// RM_MEDIA_DIR — обязательный
	cfg.MediaDir, err = getEnvRequired("RM_MEDIA_DIR")
	if err != nil {
		return nil, err
	}

	// RM_MAX_UPLOAD_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	cfg.MaxUploadSize, err = getEnvInt64("RM_MAX_UPLOAD_SIZE", 50*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("RM_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("RM_MAX_UPLOAD_SIZE: значение должно быть > 0, получено %d", cfg.MaxUploadSize)
	}

	// RM_DELETE_FILES_BEFORE_COMMIT — порядок удаления файлов (по умолчанию false)
	cfg.DeleteFilesBeforeCommit, err = getEnvBool("RM_DELETE_FILES_BEFORE_COMMIT", false)
	if err != nil {
		return nil, fmt.Errorf("RM_DELETE_FILES_BEFORE_COMMIT: %w", err)
	}

	// RM_TYPE_CACHE_SIZE — размер кэша типов содержимого (по умолчанию 1024)
	cfg.TypeCacheSize, err = getEnvInt("RM_TYPE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("RM_TYPE_CACHE_SIZE: %w", err)
	}
	if cfg.TypeCacheSize <= 0 {
		return nil, fmt.Errorf("RM_TYPE_CACHE_SIZE: значение должно быть > 0, получено %d", cfg.TypeCacheSize)
	}

	// RM_TYPE_CACHE_TTL — время жизни записи кэша (по умолчанию 10m)
	cfg.TypeCacheTTL, err = getEnvDuration("RM_TYPE_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RM_TYPE_CACHE_TTL: %w", err)
	}

	// --- Пагинация ---

	// RM_DEFAULT_PAGE_LIMIT — лимит по умолчанию (0 — без пагинации)
	cfg.DefaultPageLimit, err = getEnvInt("RM_DEFAULT_PAGE_LIMIT", 0)
	if err != nil {
		return nil, fmt.Errorf("RM_DEFAULT_PAGE_LIMIT: %w", err)
	}
	if cfg.DefaultPageLimit < 0 {
		return nil, fmt.Errorf("RM_DEFAULT_PAGE_LIMIT: значение должно быть >= 0, получено %d", cfg.DefaultPageLimit)
	}

	// --- topologymetrics ---

	// RM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("RM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	if cfg.DephealthCheckInterval <= 0 {
		return nil, fmt.Errorf("RM_DEPHEALTH_CHECK_INTERVAL: значение должно быть > 0, получено %s", cfg.DephealthCheckInterval)
	}

	// RM_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию "record-module")
	cfg.DephealthGroup = getEnvDefault("RM_DEPHEALTH_GROUP", "record-module")

	// --- Graceful shutdown ---

	// RM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadPostgres загружает параметры подключения к PostgreSQL.
func loadPostgres(cfg *Config) error {
	var err error

	// RM_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("RM_DB_HOST")
	if err != nil {
		return err
	}

	// RM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("RM_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("RM_DB_PORT: %w", err)
	}

	// RM_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("RM_DB_NAME")
	if err != nil {
		return err
	}

	// RM_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("RM_DB_USER")
	if err != nil {
		return err
	}

	// RM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("RM_DB_PASSWORD")
	if err != nil {
		return err
	}

	// RM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("RM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("RM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// MigrationURL возвращает URL базы данных в формате golang-migrate (pgx5://).
func (c *Config) MigrationURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// DependencyURL возвращает URL PostgreSQL без учётных данных.
// Используется только для меток метрик topologymetrics.
func (c *Config) DependencyURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool принимает true/false, 1/0, yes/no.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := strings.ToLower(os.Getenv(key))
	switch val {
	case "":
		return defaultVal, nil
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
