// Точка входа Record Module — сервис записей с файловыми артефактами.
// Загружает конфигурацию, подключается к хранилищу записей (PostgreSQL
// или SQLite), применяет миграции, включает мониторинг PostgreSQL
// (topologymetrics), создаёт файловое хранилище и движок сохранения,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/record-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/record-module/internal/config"
	"github.com/bigkaa/goartstore/record-module/internal/database"
	"github.com/bigkaa/goartstore/record-module/internal/persist"
	"github.com/bigkaa/goartstore/record-module/internal/server"
	"github.com/bigkaa/goartstore/record-module/internal/service"
	"github.com/bigkaa/goartstore/record-module/internal/storage/filestore"
	"github.com/bigkaa/goartstore/record-module/internal/store"
	"github.com/bigkaa/goartstore/record-module/internal/store/pgstore"
	"github.com/bigkaa/goartstore/record-module/internal/store/sqlitestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Record Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("db_driver", cfg.DBDriver),
	)

	// 3. Хранилище записей и миграции
	ctx := context.Background()
	be, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища записей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer be.close()

	// 3.1 topologymetrics — мониторинг PostgreSQL через пул
	if be.pool != nil {
		if os.Getenv("RM_DEPHEALTH_GROUP") == "" {
			logger.Warn("RM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
				slog.String("default", cfg.DephealthGroup),
			)
		}
		dephealthSvc, err := service.NewDephealthService(
			"record-module",
			cfg.DephealthGroup,
			be.pool,
			cfg.DependencyURL(),
			cfg.DephealthCheckInterval,
			logger,
		)
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
		} else if err := dephealthSvc.Start(ctx); err != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 4. Файловое хранилище артефактов
	files, err := filestore.New(cfg.MediaDir, cfg.MaxUploadSize)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Файловое хранилище готово",
		slog.String("media_dir", cfg.MediaDir),
		slog.Int64("max_upload_size", cfg.MaxUploadSize),
	)

	types := filestore.NewTypeCache(cfg.TypeCacheSize, cfg.TypeCacheTTL)

	// 5. Движок сохранения
	engine := persist.New(files, persist.Options{
		RemoveFilesBeforeCommit: cfg.DeleteFilesBeforeCommit,
	}, logger)

	// 6. API handlers
	healthHandler := handlers.NewHealthHandler(be.checker)
	apiHandler := handlers.NewAPIHandler(healthHandler, be.store, engine, files, types, cfg.DefaultPageLimit, logger)

	// 7. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Record Module остановлен")
}

// backend — подключённое хранилище записей.
type backend struct {
	store   *store.Store
	checker handlers.ReadinessChecker
	// pool задан только для драйвера postgres
	pool  *pgxpool.Pool
	close func()
}

// openStore подключает хранилище выбранного драйвера и применяет миграции.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateSQLite(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			store:   sqlitestore.New(db),
			checker: database.NewSQLiteReadinessChecker(db),
			close:   func() { db.Close() },
		}, nil
	}

	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &backend{
		store:   pgstore.New(pool),
		checker: database.NewReadinessChecker(pool),
		pool:    pool,
		close:   pool.Close,
	}, nil
}
