package persist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики движка сохранения
var (
	// operationsTotal — количество операций по типу и результату.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_operations_total",
		Help: "Общее количество операций сохранения записей",
	}, []string{"operation", "result"})

	// operationDuration — длительность операций.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rm_operation_duration_seconds",
		Help:    "Длительность операций сохранения записей в секундах",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})

	// artifactsTotal — загрузки и удаления файлов.
	artifactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_artifacts_total",
		Help: "Общее количество операций с файловыми артефактами",
	}, []string{"action", "result"})
)

// resultLabel возвращает метку результата операции.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "error"
}
