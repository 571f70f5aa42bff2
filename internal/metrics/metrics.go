// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン・登録結果のラベル値
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordCartAdd()
	RecordCartRemove()
	RecordCheckout(amountMinor int64)
	RecordLogin(result string)
	RecordRegistration(result string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cartAdd        prometheus.Counter
	cartRemove     prometheus.Counter
	checkout       prometheus.Counter
	checkoutAmount prometheus.Histogram
	login          *prometheus.CounterVec
	registration   *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cartAdd: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_add_total",
			Help: "カートへの商品追加の合計数",
		}),
		cartRemove: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_remove_total",
			Help: "カートからの商品削除の合計数",
		}),
		checkout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkout_total",
			Help: "チェックアウトの合計数",
		}),
		checkoutAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "storefront_checkout_amount_minor",
			Help: "チェックアウト金額（最小通貨単位）",
			// 1.00から約1000.00まで
			Buckets: prometheus.ExponentialBuckets(100, 4, 6),
		}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_login_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		registration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_registration_total",
			Help: "結果別のユーザー登録試行数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.cartAdd,
		c.cartRemove,
		c.checkout,
		c.checkoutAmount,
		c.login,
		c.registration,
		c.httpStatus,
	)

	return c
}

// RecordCartAdd はカートへの追加を記録する。
func (c *Collector) RecordCartAdd() {
	c.cartAdd.Inc()
}

// RecordCartRemove はカートからの削除を記録する。
func (c *Collector) RecordCartRemove() {
	c.cartRemove.Inc()
}

// RecordCheckout はチェックアウトと合計金額を記録する。
func (c *Collector) RecordCheckout(amountMinor int64) {
	c.checkout.Inc()
	c.checkoutAmount.Observe(float64(amountMinor))
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.login.WithLabelValues(result).Inc()
}

// RecordRegistration はユーザー登録結果を記録する。
func (c *Collector) RecordRegistration(result string) {
	c.registration.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを使わないCLIサブコマンドやテストで使う。
type NopCollector struct{}

func (NopCollector) RecordCartAdd()            {}
func (NopCollector) RecordCartRemove()         {}
func (NopCollector) RecordCheckout(int64)      {}
func (NopCollector) RecordLogin(string)        {}
func (NopCollector) RecordRegistration(string) {}
func (NopCollector) RecordHTTPStatus(int)      {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
