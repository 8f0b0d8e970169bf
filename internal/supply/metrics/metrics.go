package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MintsTotal          prometheus.Counter
	MintRejectionsTotal *prometheus.CounterVec
	CapSetsTotal        prometheus.Counter
	MintBatchSize       prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintledger_supply_mints_total",
			Help: "Total number of committed mint operations (single and batch)",
		}),
		MintRejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mintledger_supply_mint_rejections_total",
			Help: "Total number of rejected supply mutations by reason code",
		}, []string{"reason"}),
		CapSetsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintledger_supply_cap_sets_total",
			Help: "Total number of committed cap-set operations",
		}),
		MintBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mintledger_supply_mint_batch_size",
			Help:    "Number of token ids per batch mint call",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) IncrementMints() {
	m.MintsTotal.Inc()
}

func (m *Metrics) IncrementRejections(reason string) {
	m.MintRejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementCapSets() {
	m.CapSetsTotal.Inc()
}

func (m *Metrics) ObserveBatchSize(n int) {
	m.MintBatchSize.Observe(float64(n))
}
