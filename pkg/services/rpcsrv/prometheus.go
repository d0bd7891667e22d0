package rpcsrv

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var rpcTimes = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Help:      "RPC call handling time",
		Name:      "rpc_call_time",
		Namespace: "glowsphere",
	},
	[]string{"method"},
)

func init() {
	prometheus.MustRegister(rpcTimes)
}

// addReqTimeMetric records the handling time of known methods only, so
// that arbitrary method names can't inflate the label set.
func addReqTimeMetric(name string, t time.Duration) {
	_, ok := rpcHandlers[name]
	if !ok {
		_, ok = rpcWsHandlers[name]
	}
	if ok {
		rpcTimes.WithLabelValues(name).Observe(t.Seconds())
	}
}
