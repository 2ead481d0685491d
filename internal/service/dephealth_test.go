package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/record-module/internal/config"
	"github.com/bigkaa/goartstore/record-module/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestPool запускает PostgreSQL в Docker-контейнере и возвращает
// конфигурацию и пул подключений.
func setupTestPool(t *testing.T) (*config.Config, *pgxpool.Pool) {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("records_test"),
		postgres.WithUsername("artstore"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, _ := container.Host(ctx)
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	cfg := &config.Config{
		DBHost: host, DBPort: port.Int(), DBName: "records_test",
		DBUser: "artstore", DBPassword: "test-password", DBSSLMode: "disable",
	}
	pool, err := database.Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return cfg, pool
}

// TestDephealthService_ReportsHealthyStore проверяет, что проверка через
// пул отмечает хранилище как доступное и публикует метрики в registry.
func TestDephealthService_ReportsHealthyStore(t *testing.T) {
	cfg, pool := setupTestPool(t)
	reg := prometheus.NewRegistry()

	svc, err := NewDephealthServiceWithRegisterer(
		"record-module", "record-module", pool, cfg.DependencyURL(),
		time.Second, testLogger(), reg,
	)
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(15 * time.Second)
	for {
		health := svc.Health()
		healthy := len(health) > 0
		for _, ok := range health {
			healthy = healthy && ok
		}
		if healthy {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("хранилище не отмечено доступным: %v", health)
		}
		time.Sleep(200 * time.Millisecond)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "app_dependency_health" {
			found = true
		}
	}
	if !found {
		t.Error("метрика app_dependency_health не зарегистрирована")
	}

	svc.Stop()

	// Пул остаётся рабочим после остановки мониторинга
	if err := pool.Ping(context.Background()); err != nil {
		t.Errorf("пул закрыт вместе с мониторингом: %v", err)
	}
}
