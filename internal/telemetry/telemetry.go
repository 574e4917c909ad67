// Package telemetry veri çekme ve türetme turları için prometheus metriklerini tutar.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restoran_analytics"

type Metrics struct {
	registry *prometheus.Registry

	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	FetchRows     *prometheus.CounterVec
	Superseded    prometheus.Counter
	MemoLookups   *prometheus.CounterVec
	Sessions      prometheus.Gauge
	IngestRows    *prometheus.CounterVec
	Logins        *prometheus.CounterVec
}

// New ayrı bir registry ile metrikleri kaydeder (testlerde global registry kirlenmez).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Ham tablo okuma süresi.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Başarısız tablo okumaları.",
		}, []string{"table"}),
		FetchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_rows_total",
			Help:      "Okunan ham satır sayısı.",
		}, []string{"table"}),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_superseded_total",
			Help:      "Daha yeni bir istek yüzünden atılan fetch sonuçları.",
		}),
		MemoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_lookups_total",
			Help:      "Türetme önbelleği sorguları.",
		}, []string{"node", "result"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Açık dashboard oturumları.",
		}),
		IngestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Veri girişi satırları (kabul/ret).",
		}, []string{"table", "result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Giriş denemeleri (success/failure).",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.FetchDuration, m.FetchErrors, m.FetchRows, m.Superseded,
		m.MemoLookups, m.Sessions, m.IngestRows, m.Logins,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveFetch tek bir tablo okumasını kaydeder.
func (m *Metrics) ObserveFetch(table string, start time.Time, rows int, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(table).Inc()
		return
	}
	m.FetchRows.WithLabelValues(table).Add(float64(rows))
}

func (m *Metrics) MemoHit(node string) {
	if m != nil {
		m.MemoLookups.WithLabelValues(node, "hit").Inc()
	}
}

func (m *Metrics) MemoMiss(node string) {
	if m != nil {
		m.MemoLookups.WithLabelValues(node, "miss").Inc()
	}
}

func (m *Metrics) FetchSuperseded() {
	if m != nil {
		m.Superseded.Inc()
	}
}

func (m *Metrics) SetSessions(n int) {
	if m != nil {
		m.Sessions.Set(float64(n))
	}
}

func (m *Metrics) Ingested(table string, accepted, rejected int) {
	if m == nil {
		return
	}
	m.IngestRows.WithLabelValues(table, "accepted").Add(float64(accepted))
	m.IngestRows.WithLabelValues(table, "rejected").Add(float64(rejected))
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.Logins.WithLabelValues(result).Inc()
}

// Handler /metrics için http.Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
