package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// blockHeight prometheus metric.
	blockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Current index of processed block",
			Name:      "current_block_height",
			Namespace: "glowsphere",
		},
	)
	// txApplied prometheus metric.
	txApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of transactions applied to the chain",
			Name:      "transactions_applied_total",
			Namespace: "glowsphere",
		},
	)
	// failedCalls prometheus metric.
	failedCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of contract calls that didn't succeed",
			Name:      "failed_calls_total",
			Namespace: "glowsphere",
		},
		[]string{"kind"},
	)
	// mempoolUnsortedTx prometheus metric.
	mempoolUnsortedTx = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Mempool transactions",
			Name:      "mempool_unsorted_tx",
			Namespace: "glowsphere",
		},
	)
)

func init() {
	prometheus.MustRegister(
		blockHeight,
		txApplied,
		failedCalls,
		mempoolUnsortedTx,
	)
}

func updateBlockHeightMetric(bHeight uint32) {
	blockHeight.Set(float64(bHeight))
}

func updateMempoolMetrics(unsortedTxnLen int) {
	mempoolUnsortedTx.Set(float64(unsortedTxnLen))
}

func updateReceiptMetrics(r receiptKind) {
	txApplied.Inc()
	switch r {
	case receiptErr:
		failedCalls.WithLabelValues("err").Inc()
	case receiptFault:
		failedCalls.WithLabelValues("fault").Inc()
	}
}
