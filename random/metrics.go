package random

import "github.com/VictoriaMetrics/metrics"

var (
	slowBytes   = metrics.NewCounter("portrand_slow_bytes_total")
	fastBytes   = metrics.NewCounter("portrand_fast_bytes_total")
	syncReseeds = metrics.NewCounter(`portrand_fast_reseeds_total{mode="sync"}`)
	asyncReseed = metrics.NewCounter(`portrand_fast_reseeds_total{mode="async"}`)
	duplicates  = metrics.NewCounter("portrand_duplicates_total")
)
