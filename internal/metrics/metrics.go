// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordCartOperation(op string, outcome string)
	RecordOrder()
	RecordLoginFailure(role string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cartOps        *prometheus.CounterVec
	orders         prometheus.Counter
	loginFailures  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "denkiya_cart_operations_total",
			Help: "カート操作の合計数（操作種別・結果別）",
		}, []string{"op", "outcome"}),
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "denkiya_orders_total",
			Help: "作成された注文の合計数",
		}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "denkiya_login_failures_total",
			Help: "ログイン失敗の合計数（ロール別）",
		}, []string{"role"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "denkiya_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "denkiya_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.cartOps,
		c.orders,
		c.loginFailures,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordCartOperation はカート操作を記録する。
// opはadd/update/remove/clear、outcomeはok/rejected/error。
func (c *Collector) RecordCartOperation(op string, outcome string) {
	c.cartOps.WithLabelValues(op, outcome).Inc()
}

// RecordOrder は注文作成を記録する。
func (c *Collector) RecordOrder() {
	c.orders.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。roleはcustomer/admin。
func (c *Collector) RecordLoginFailure(role string) {
	c.loginFailures.WithLabelValues(role).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
