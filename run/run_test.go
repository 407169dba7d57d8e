package run

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safing/portrand/modules"
)

func TestRun(t *testing.T) {
	// Modules can only be started once per process, so all cases share one run.
	signalCh := make(chan os.Signal, 1)

	var ran bool
	code := run(func(ctx context.Context) error {
		ran = true
		return errors.New("action failed")
	}, signalCh)
	assert.True(t, ran)
	assert.Equal(t, ExitFailure, code)
}

func TestPrintPanicReports(t *testing.T) {
	t.Parallel()

	reports := make(chan *modules.ModuleError, 1)
	reports <- &modules.ModuleError{
		ModuleName: "random",
		TaskName:   "bind pool",
		TaskType:   "worker",
		Message:    "panic in random worker bind pool: boom",
		StackTrace: "goroutine 1 [running]:",
	}
	close(reports)

	var buf bytes.Buffer
	printPanicReports(&buf, reports)
	assert.Contains(t, buf.String(), "PANIC in random worker bind pool")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "goroutine 1 [running]:")
}
