// Package info provides version information and the -version flag.
package info

import (
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/VictoriaMetrics/metrics"

	"github.com/safing/portrand/modules"
)

var showVersion bool

func init() {
	modules.Register("info", prep, nil, nil)

	flag.BoolVar(&showVersion, "version", false, "show version and exit")
}

func prep() error {
	if showVersion {
		fmt.Println(FullVersion())
		return modules.ErrCleanExit
	}

	registerInfoMetric()
	return nil
}

// registerInfoMetric exposes the version as a constant gauge.
func registerInfoMetric() {
	meta := GetInfo()
	metrics.GetOrCreateGauge(fmt.Sprintf(
		`portrand_info{version=%q,commit=%q,go_os=%q,go_arch=%q,go_version=%q}`,
		checkUnknown(Version()),
		checkUnknown(meta.Commit),
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
	), func() float64 {
		return 1
	})
}

func checkUnknown(s string) string {
	if strings.Contains(s, "unknown") {
		return "unknown"
	}
	return s
}
