// Package telemetry exports run progress as Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/ecosim/internal/agent"
)

// Metrics is an agent.Hook that records barrier waits and the latest
// persisted month.
type Metrics struct {
	records     prometheus.Counter
	barrierWait *prometheus.HistogramVec
	population  *prometheus.GaugeVec
	height      prometheus.Gauge
	temperature prometheus.Gauge
	precip      prometheus.Gauge
	simYear     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		records: f.NewCounter(prometheus.CounterOpts{
			Name: "ecosim_records_total",
			Help: "Monthly records persisted by the observer",
		}),
		barrierWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecosim_barrier_wait_seconds",
			Help:    "Time an agent spent waiting at a barrier",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs to ~260ms
		}, []string{"role", "phase"}),
		population: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecosim_population",
			Help: "Population of each animal species in the last record",
		}, []string{"species"}),
		height: f.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_grass_height_inches",
			Help: "Rye grass height in the last record",
		}),
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_temperature_fahrenheit",
			Help: "Temperature in the last record",
		}),
		precip: f.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_precipitation_inches",
			Help: "Precipitation in the last record",
		}),
		simYear: f.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_simulated_year",
			Help: "Year of the last record",
		}),
	}
}

func (m *Metrics) OnEvent(ev agent.Event) {
	switch ev.Kind {
	case agent.EventDepart:
		m.barrierWait.WithLabelValues(ev.Role.String(), string(ev.Phase)).Observe(ev.Waited.Seconds())
	case agent.EventRecord:
		r := ev.Record
		m.records.Inc()
		m.population.WithLabelValues("rabbits").Set(float64(r.Rabbits))
		m.population.WithLabelValues("foxes").Set(float64(r.Foxes))
		m.height.Set(r.Height)
		m.temperature.Set(r.Temperature)
		m.precip.Set(r.Precipitation)
		m.simYear.Set(float64(r.Year))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
