package orc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStripesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "stripes_read_total",
		Help:      "Total number of stripes materialized.",
	})
	metricStripesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "stripes_pruned_total",
		Help:      "Total number of stripes fully pruned by the pushdown predicate.",
	})
	metricStripeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "stripe_checkpoint_fallbacks_total",
		Help:      "Total number of stripes degraded to a single row group because of invalid row-index checkpoints.",
	})
	metricRowGroupsSelected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orcdb",
		Name:      "row_groups_selected_total",
		Help:      "Total number of row groups that survived predicate evaluation.",
	})
)
