// Package metrics は Prometheus メトリクスを提供します。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証処理の結果ラベル
const (
	ResultSuccess            = "success"
	ResultDuplicateEmail     = "duplicate_email"
	ResultInvalidInput       = "invalid_input"
	ResultUserNotFound       = "user_not_found"
	ResultInvalidCredentials = "invalid_credentials"
	ResultError              = "error"
)

// Metrics はアプリケーション固有のメトリクスをまとめた構造体です。
// nil のままでも各メソッドは何もしないので、テストでは省略できます。
type Metrics struct {
	registry      *prometheus.Registry
	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Requests      *prometheus.CounterVec
}

// New は専用レジストリを作り、メトリクスを登録します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionauth_registrations_total",
				Help: "Total number of registration attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionauth_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionauth_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(m.Registrations, m.Logins, m.Requests)
	return m
}

// ObserveRegistration は登録結果を記録します。
func (m *Metrics) ObserveRegistration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

// ObserveLogin はログイン結果を記録します。
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware はリクエスト数をルート単位で数えるミドルウェアです。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
