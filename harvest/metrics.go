package harvest

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

type harvesterMetrics struct {
	accepted *metrics.Counter
	rejected *metrics.Counter
}

func newHarvesterMetrics(name string) *harvesterMetrics {
	return &harvesterMetrics{
		accepted: metrics.GetOrCreateCounter(fmt.Sprintf(`portrand_harvester_chunks_total{harvester=%q,result="accepted"}`, name)),
		rejected: metrics.GetOrCreateCounter(fmt.Sprintf(`portrand_harvester_chunks_total{harvester=%q,result="rejected"}`, name)),
	}
}
