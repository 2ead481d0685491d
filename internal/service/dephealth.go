// dephealth.go — мониторинг хранилища записей через topologymetrics SDK.
//
// Record Module мониторит одну зависимость: PostgreSQL, SQL checker через
// существующий pgxpool (connection pool mode, critical). Для драйвера
// sqlite сервис не создаётся: база встроена в процесс.
//
// Метрики доступны на /metrics вместе с rm_* метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

// DependencyName — имя зависимости хранилища записей в метриках.
const DependencyName = "record-store"

// DephealthService — мониторинг хранилища записей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	db     *sql.DB
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга поверх пула pgx.
// Проверки идут через *sql.DB, полученный из пула stdlib.OpenDBFromPool,
// поэтому исчерпание пула видно в метриках. Метрики регистрируются
// в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения ("record-module")
//   - group — имя группы в метриках (RM_DEPHEALTH_GROUP)
//   - depURL — URL PostgreSQL без учётных данных, только для меток
//   - checkInterval — интервал проверки (RM_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	pool *pgxpool.Pool,
	depURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, pool, depURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	pool *pgxpool.Pool,
	depURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, pool, depURL, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	pool *pgxpool.Pool,
	depURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	db := stdlib.OpenDBFromPool(pool)

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency(DependencyName, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(depURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		),
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		db:     db,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку хранилища.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг хранилища записей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает проверки и закрывает адаптер *sql.DB.
// Сам пул pgx не закрывается.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	if err := ds.db.Close(); err != nil {
		ds.logger.Warn("Ошибка закрытия адаптера пула", slog.String("error", err.Error()))
	}
	ds.logger.Info("Мониторинг хранилища записей остановлен")
}

// Health возвращает текущее состояние зависимостей: true — ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
