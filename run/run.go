// Package run executes a program action within the module lifecycle.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safing/portrand/log"
	"github.com/safing/portrand/modules"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitInterrupted is returned when the action was interrupted by a signal.
	ExitInterrupted = 130
)

// ShutdownTimeout is the time after which a hanging shutdown is aborted.
var ShutdownTimeout = time.Minute

// Run starts all modules, runs the action and shuts down again. An interrupt
// cancels the context of the action and shuts down without waiting for the
// action to return, as random draws cannot be interrupted.
func Run(action func(ctx context.Context) error) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	reports := make(chan *modules.ModuleError, 8)
	modules.SetErrorReportingChannel(reports)
	go printPanicReports(os.Stderr, reports)

	return run(action, signalCh)
}

// printPanicReports prints recovered worker panics with their stack trace
// until reports is closed.
func printPanicReports(w io.Writer, reports <-chan *modules.ModuleError) {
	for me := range reports {
		fmt.Fprintf(w, "===== PANIC in %s %s %s =====\n%s\n%s\n", me.ModuleName, me.TaskType, me.TaskName, me.Message, me.StackTrace)
	}
}

func run(action func(ctx context.Context) error, signalCh <-chan os.Signal) int {
	err := modules.Start()
	if err != nil {
		if errors.Is(err, modules.ErrCleanExit) {
			return ExitOK
		}
		_ = modules.Shutdown()
		return ExitFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- action(ctx)
	}()

	var code int
	select {
	case err := <-done:
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			code = ExitFailure
		}
	case <-signalCh:
		fmt.Fprintln(os.Stderr, " <INTERRUPT>")
		log.Warning("main: program was interrupted, shutting down")
		cancel()
		code = ExitInterrupted
	case <-modules.ShuttingDown():
		code = ExitFailure
	}

	shutdownDone := make(chan struct{})
	go func() {
		select {
		case <-shutdownDone:
		case <-time.After(ShutdownTimeout):
			fmt.Fprintln(os.Stderr, "===== TAKING TOO LONG FOR SHUTDOWN =====")
			os.Exit(ExitFailure)
		}
	}()

	if err := modules.Shutdown(); err != nil && code == ExitOK {
		fmt.Fprintf(os.Stderr, "error: shutdown failed: %s\n", err)
		code = ExitFailure
	}
	close(shutdownDone)
	return code
}
