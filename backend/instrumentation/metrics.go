package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRangedReads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "backend_ranged_reads_total",
		Help:      "Total number of coalesced range reads issued to the backend.",
	})
	metricRangedReadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "backend_ranged_read_bytes_total",
		Help:      "Total bytes fetched by coalesced range reads.",
	})
	metricRangedReadStreams = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "backend_ranged_read_streams_total",
		Help:      "Total number of streams satisfied by coalesced range reads.",
	})
)

// ObserveRangedRead records one coalesced read covering the given number of
// streams and bytes.
func ObserveRangedRead(streams, bytes int) {
	metricRangedReads.Inc()
	metricRangedReadStreams.Add(float64(streams))
	metricRangedReadBytes.Add(float64(bytes))
}
