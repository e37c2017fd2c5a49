// Package metrics expone contadores Prometheus del dominio de integraciones.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	authorizationsTotal *prometheus.CounterVec
	callbacksTotal      *prometheus.CounterVec
	itemsFetchedTotal   *prometheus.CounterVec
)

// RegisterFlows registra las métricas del flujo en el registry dado.
// Idempotente; los duplicados se ignoran.
func RegisterFlows(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		authorizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integration_authorizations_total",
			Help: "Flujos de autorización iniciados por proveedor",
		}, []string{"provider"})

		callbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integration_callbacks_total",
			Help: "Callbacks OAuth procesados por proveedor y resultado",
		}, []string{"provider", "outcome"}) // outcome: ok|denied|rejected|invalid|error

		itemsFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integration_items_fetched_total",
			Help: "Items normalizados producidos por proveedor",
		}, []string{"provider"})
	})

	for _, c := range []prometheus.Collector{authorizationsTotal, callbacksTotal, itemsFetchedTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				// Un registry roto no debe tumbar el servicio; las métricas
				// quedan en el estado en que estén.
				return
			}
		}
	}
}

// RecordAuthorization registra un flujo iniciado.
func RecordAuthorization(provider string) {
	if authorizationsTotal != nil {
		authorizationsTotal.WithLabelValues(provider).Inc()
	}
}

// RecordCallback registra el resultado de un callback.
func RecordCallback(provider, outcome string) {
	if callbacksTotal != nil {
		callbacksTotal.WithLabelValues(provider, outcome).Inc()
	}
}

// RecordItemsFetched registra items producidos por un fetch.
func RecordItemsFetched(provider string, n int) {
	if itemsFetchedTotal != nil && n > 0 {
		itemsFetchedTotal.WithLabelValues(provider).Add(float64(n))
	}
}
