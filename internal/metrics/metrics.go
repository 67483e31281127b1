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
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSnapshotPersist(duration time.Duration, err error)
	RecordLogin(provider string)
	RecordNotificationAdded(notificationType string)
	RecordFeedServed(papers int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
	snapshotPersist    *prometheus.CounterVec
	snapshotLatency    prometheus.Histogram
	logins             *prometheus.CounterVec
	notificationsAdded *prometheus.CounterVec
	feedPapersServed   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperdeck_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotPersist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperdeck_snapshot_persist_total",
			Help: "スナップショット永続化の結果別合計数",
		}, []string{"result"}),
		snapshotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperdeck_snapshot_persist_latency_seconds",
			Help:    "スナップショット永続化のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperdeck_logins_total",
			Help: "プロバイダー別のログイン成功数",
		}, []string{"provider"}),
		notificationsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperdeck_notifications_added_total",
			Help: "種別ごとに積まれた通知の合計数",
		}, []string{"type"}),
		feedPapersServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperdeck_feed_papers_served_total",
			Help: "フィードとして返した論文の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.snapshotPersist,
		c.snapshotLatency,
		c.logins,
		c.notificationsAdded,
		c.feedPapersServed,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSnapshotPersist はスナップショット永続化の結果とレイテンシを記録する。
func (c *Collector) RecordSnapshotPersist(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.snapshotPersist.WithLabelValues(result).Inc()
	c.snapshotLatency.Observe(duration.Seconds())
}

// RecordLogin はログイン成功をプロバイダー別に記録する。
func (c *Collector) RecordLogin(provider string) {
	c.logins.WithLabelValues(provider).Inc()
}

// RecordNotificationAdded は積まれた通知を種別ごとに記録する。
func (c *Collector) RecordNotificationAdded(notificationType string) {
	c.notificationsAdded.WithLabelValues(notificationType).Inc()
}

// RecordFeedServed はフィードとして返した論文数を記録する。
func (c *Collector) RecordFeedServed(papers int) {
	c.feedPapersServed.Add(float64(papers))
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
