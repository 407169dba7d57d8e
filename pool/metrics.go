package pool

import (
	"errors"

	"github.com/VictoriaMetrics/metrics"
)

var (
	opensOK        = metrics.NewCounter(`portrand_pool_opens_total{result="ok"}`)
	opensUnseeded  = metrics.NewCounter(`portrand_pool_opens_total{result="unseeded"}`)
	opensCorrupted = metrics.NewCounter(`portrand_pool_opens_total{result="corrupted"}`)
	opensFailed    = metrics.NewCounter(`portrand_pool_opens_total{result="error"}`)
)

func countOpen(err error) {
	switch {
	case err == nil:
		opensOK.Inc()
	case errors.Is(err, ErrUnseeded):
		opensUnseeded.Inc()
	case errors.Is(err, ErrCorrupted):
		opensCorrupted.Inc()
	default:
		opensFailed.Inc()
	}
}
