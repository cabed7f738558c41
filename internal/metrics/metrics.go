package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GeoLookupAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coords_geo_lookup_attempts_total",
		Help: "Geolocation provider attempts by outcome",
	}, []string{"outcome"})
	GeoLookupDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coords_geo_lookup_duration_ms",
		Help:    "Geolocation lookup duration in milliseconds, all attempts included",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	})
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coords_resolutions_total",
		Help: "Resolution requests by outcome",
	}, []string{"outcome"})
	StorageForwardTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coords_storage_forward_total",
		Help: "Coordinate records forwarded to the storage service by result",
	}, []string{"result"})
	StoreOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coords_store_operations_total",
		Help: "Coordinate store operations by operation and result",
	}, []string{"operation", "result"})
	CorruptEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coords_store_corrupt_entries_total",
		Help: "Stored values skipped during listing because they could not be decoded",
	})
)

func init() {
	prometheus.MustRegister(GeoLookupAttemptsTotal)
	prometheus.MustRegister(GeoLookupDurationMs)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(StorageForwardTotal)
	prometheus.MustRegister(StoreOperationsTotal)
	prometheus.MustRegister(CorruptEntriesTotal)
}

// Result 把错误折算为 ok / error 标签值
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler 返回 Prometheus 指标抓取入口，挂载在 /metrics
func Handler() http.Handler { return promhttp.Handler() }
