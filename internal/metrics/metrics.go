// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 上流APIの識別子。メトリクスとログのラベルに使用する。
const (
	UpstreamNostrSearch = "nostr_search"
	UpstreamCoinGecko   = "coingecko"
	UpstreamMempool     = "mempool"
	UpstreamLiveGolf    = "live_golf"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 上流クライアントと集約サービスから利用する。
type MetricsCollector interface {
	RecordUpstreamRequest(upstream string, statusCode int, duration time.Duration)
	RecordUpstreamFailure(upstream string, reason string)
	RecordDegraded(component string)
	RecordReplyProfiles(requested, resolved int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	degraded         *prometheus.CounterVec
	replyRequested   prometheus.Counter
	replyResolved    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bozentka_upstream_requests_total",
			Help: "上流APIへのリクエスト数（ステータスコード別）",
		}, []string{"upstream", "status_code"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bozentka_upstream_failures_total",
			Help: "上流APIの呼び出し失敗数（理由別）",
		}, []string{"upstream", "reason"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bozentka_upstream_latency_seconds",
			Help:    "上流APIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bozentka_degraded_total",
			Help: "任意データの取得失敗により空データへ縮退した回数",
		}, []string{"component"}),
		replyRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bozentka_reply_profiles_requested_total",
			Help: "リプライ先プロフィールの取得要求数",
		}),
		replyResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bozentka_reply_profiles_resolved_total",
			Help: "リプライ先プロフィールの取得成功数",
		}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamFailures,
		c.upstreamLatency,
		c.degraded,
		c.replyRequested,
		c.replyResolved,
	)

	return c
}

// RecordUpstreamRequest は上流APIのレスポンス受信を記録する。
func (c *Collector) RecordUpstreamRequest(upstream string, statusCode int, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(upstream, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordUpstreamFailure は上流APIの呼び出し失敗を記録する。
func (c *Collector) RecordUpstreamFailure(upstream string, reason string) {
	c.upstreamFailures.WithLabelValues(upstream, reason).Inc()
}

// RecordDegraded は空データへの縮退を記録する。
func (c *Collector) RecordDegraded(component string) {
	c.degraded.WithLabelValues(component).Inc()
}

// RecordReplyProfiles はリプライ先プロフィールの要求数と成功数を記録する。
func (c *Collector) RecordReplyProfiles(requested, resolved int) {
	c.replyRequested.Add(float64(requested))
	c.replyResolved.Add(float64(resolved))
}

// Nop は何も記録しないMetricsCollector。テストやCLI実行時に使用する。
type Nop struct{}

func (Nop) RecordUpstreamRequest(string, int, time.Duration) {}
func (Nop) RecordUpstreamFailure(string, string)             {}
func (Nop) RecordDegraded(string)                            {}
func (Nop) RecordReplyProfiles(int, int)                     {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
