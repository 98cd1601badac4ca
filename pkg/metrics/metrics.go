package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"sql"},
	)

	// 登录尝试计数
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // success, invalid, forbidden, throttled
	)

	// 任务生命周期事件计数
	TaskEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_events_total",
			Help: "Category and task lifecycle events",
		},
		[]string{"event"},
	)

	// 备份任务计数
	BackupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Scheduled backup runs by status",
		},
		[]string{"status"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(sql string) {
	SlowQueryCount.WithLabelValues(sql).Inc()
}

// IncrementLoginAttempt 增加登录尝试计数
func IncrementLoginAttempt(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// IncrementTaskEvent 增加生命周期事件计数
func IncrementTaskEvent(event string) {
	TaskEvents.WithLabelValues(event).Inc()
}

// IncrementBackupRun 增加备份任务计数
func IncrementBackupRun(status string) {
	BackupRuns.WithLabelValues(status).Inc()
}
