package infra

import (
	"github.com/prometheus/client_golang/prometheus"

	"license-service/internal/domain"
)

// Metrics はライセンス検証のPrometheusメトリクスを保持する。
type Metrics struct {
	verifications *prometheus.CounterVec
	catalogLoads  *prometheus.CounterVec
	catalogKeys   prometheus.Gauge
}

// NewMetrics はメトリクスを生成し registry に登録する。
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "license_verifications_total",
			Help: "Total number of evaluated license verifications by outcome",
		}, []string{"outcome"}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "license_catalog_loads_total",
			Help: "Total number of license key catalog loads by result",
		}, []string{"result"}),
		catalogKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "license_catalog_keys",
			Help: "Number of valid keys in the last successfully loaded catalog",
		}),
	}

	registry.MustRegister(
		m.verifications,
		m.catalogLoads,
		m.catalogKeys,
	)

	return m
}

// RecordVerification は検証結果を記録する。
func (m *Metrics) RecordVerification(outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(string(outcome)).Inc()
}

// RecordCatalogLoad はカタログ読み込み結果を記録する。
func (m *Metrics) RecordCatalogLoad(size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.catalogLoads.WithLabelValues("error").Inc()
		return
	}
	m.catalogLoads.WithLabelValues("success").Inc()
	m.catalogKeys.Set(float64(size))
}
