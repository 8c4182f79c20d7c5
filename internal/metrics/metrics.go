// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// セッション発行、食事の書き込み、HTTPリクエストを記録する。
type Collector struct {
	sessionsIssued  prometheus.Counter
	sessionsReused  prometheus.Counter
	mealWrites      *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dailydiet_sessions_issued_total",
			Help: "新規発行されたセッションの合計数",
		}),
		sessionsReused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dailydiet_sessions_reused_total",
			Help: "サインイン時に再利用されたセッションの合計数",
		}),
		mealWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydiet_meal_writes_total",
			Help: "操作別の食事の書き込み数",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailydiet_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dailydiet_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.sessionsIssued,
		c.sessionsReused,
		c.mealWrites,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordSessionIssued はセッションの新規発行を記録する。
func (c *Collector) RecordSessionIssued() {
	c.sessionsIssued.Inc()
}

// RecordSessionReused はセッションの再利用を記録する。
func (c *Collector) RecordSessionReused() {
	c.sessionsReused.Inc()
}

// RecordMealWrite は食事の書き込みを操作別に記録する。
func (c *Collector) RecordMealWrite(op string) {
	c.mealWrites.WithLabelValues(op).Inc()
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
// routeにはパスではなくルートパターンを渡すこと（ラベルの値が増え続けないように）。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
