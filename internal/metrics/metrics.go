// Package metrics exposes Prometheus counters for the statistics pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds the process-wide collectors.
//
// Metrics:
//   - rcstats_provider_calls_total{hook,provider,result}
//   - rcstats_collections_built_total{kind,group_by}
//   - rcstats_supplemental_writes_total{table,op,result}
//   - rcstats_ords_rows_exported_total
type Metrics struct {
	ProviderCalls     *prometheus.CounterVec
	CollectionsBuilt  *prometheus.CounterVec
	SupplementalWrite *prometheus.CounterVec
	ORDSRowsExported  prometheus.Counter
}

// Get returns the collectors, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "rcstats_provider_calls_total",
				Help: "External provider invocations by hook and outcome",
			}, []string{"hook", "provider", "result"}),
			CollectionsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "rcstats_collections_built_total",
				Help: "Statistics collections fully merged",
			}, []string{"kind", "group_by"}),
			SupplementalWrite: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "rcstats_supplemental_writes_total",
				Help: "Supplemental data writes by table, operation and outcome",
			}, []string{"table", "op", "result"}),
			ORDSRowsExported: promauto.NewCounter(prometheus.CounterOpts{
				Name: "rcstats_ords_rows_exported_total",
				Help: "Rows written to ORDS CSV exports",
			}),
		}
	})
	return global
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveProviderCall counts one provider invocation.
func ObserveProviderCall(hook, provider string, err error) {
	Get().ProviderCalls.WithLabelValues(hook, provider, result(err)).Inc()
}

// ObserveCollection counts one merged collection.
func ObserveCollection(kind, groupBy string) {
	Get().CollectionsBuilt.WithLabelValues(kind, groupBy).Inc()
}

// ObserveSupplementalWrite counts one supplemental write.
func ObserveSupplementalWrite(table, op string, err error) {
	Get().SupplementalWrite.WithLabelValues(table, op, result(err)).Inc()
}

// AddORDSRows counts exported ORDS rows.
func AddORDSRows(n int) {
	Get().ORDSRowsExported.Add(float64(n))
}
