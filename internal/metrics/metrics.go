package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 协议创建数
	protocolsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protocols_created_total",
			Help: "Total number of protocols created",
		},
	)

	// 协议提交数
	protocolsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protocols_submitted_total",
			Help: "Total number of protocols submitted for review",
		},
	)

	// 评审决定数
	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protocol_reviews_total",
			Help: "Total number of protocol review decisions",
		},
		[]string{"decision"}, // APPROVED, REJECTED, REVISION_REQUESTED...
	)

	// 加入申请处理数
	joinRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_join_requests_total",
			Help: "Total number of lab join request resolutions",
		},
		[]string{"resolution"}, // approved, rejected
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 协议状态分布
	protocolsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protocols_by_status",
			Help: "Number of protocols by status",
		},
		[]string{"status"},
	)
)

var once sync.Once

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(protocolsCreatedTotal)
	prometheus.MustRegister(protocolsSubmittedTotal)
	prometheus.MustRegister(reviewsTotal)
	prometheus.MustRegister(joinRequestsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(protocolsByStatus)

	// 注册 Go 运行时指标(只注册一次)
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordProtocolCreated 记录协议创建
func RecordProtocolCreated() {
	protocolsCreatedTotal.Inc()
}

// RecordProtocolSubmitted 记录协议提交
func RecordProtocolSubmitted() {
	protocolsSubmittedTotal.Inc()
}

// RecordReview 记录评审决定
func RecordReview(decision string) {
	reviewsTotal.WithLabelValues(decision).Inc()
}

// RecordJoinRequestResolution 记录加入申请处理
func RecordJoinRequestResolution(resolution string) {
	joinRequestsTotal.WithLabelValues(resolution).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateProtocolsByStatus 更新协议状态分布指标
func UpdateProtocolsByStatus(status string, count float64) {
	protocolsByStatus.WithLabelValues(status).Set(count)
}
