package modules

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"

	"github.com/safing/portrand/log"
)

var (
	shutdownSignal       = make(chan struct{})
	shutdownSignalClosed = abool.NewBool(false)

	// ErrShutdownInProgress is returned when Shutdown is called a second time.
	ErrShutdownInProgress = errors.New("shutdown already initiated")
)

// ShuttingDown returns a channel read on the global shutdown signal.
func ShuttingDown() <-chan struct{} {
	return shutdownSignal
}

// Shutdown stops all started modules in reverse dependency order. Stop errors of all modules are collected and returned together.
func Shutdown() error {
	if shutdownSignalClosed.SetToIf(false, true) {
		close(shutdownSignal)
	} else {
		// shutdown was already issued
		return ErrShutdownInProgress
	}

	if startComplete.IsSet() {
		log.Warning("modules: starting shutdown...")
	} else {
		log.Warning("modules: aborting, shutting down...")
	}

	modulesLock.Lock()
	defer modulesLock.Unlock()

	err := stopModules()
	if err != nil {
		log.Errorf("modules: shutdown completed with errors: %s", err)
	} else {
		log.Info("modules: shutdown complete")
	}

	log.Shutdown()
	return err
}

func stopModules() error {
	var rep *report
	var result *multierror.Error
	reports := make(chan *report)
	execCnt := 0
	reportCnt := 0

	// count modules that need stopping
	toStop := 0
	for _, m := range modules {
		if m.Started.IsSet() && !m.Stopped.IsSet() {
			toStop++
		}
	}

	for reportCnt < toStop {
		// find modules to exec
		for _, m := range modules {
			if m.ReadyToStop() {
				execCnt++
				m.inTransition.Set()

				execM := m
				go func() {
					reports <- &report{
						module: execM,
						err:    execM.shutdown(),
					}
				}()
			}
		}

		// check for dep loop
		if execCnt == reportCnt {
			return multierror.Append(result, fmt.Errorf("modules: dependency loop detected, cannot continue"))
		}

		// wait for reports
		rep = <-reports
		rep.module.inTransition.UnSet()
		if rep.err != nil {
			result = multierror.Append(result, fmt.Errorf("modules: could not stop module %s: %w", rep.module.Name, rep.err))
		}
		reportCnt++
		rep.module.Stopped.Set()
		log.Debugf("modules: stopped %s", rep.module.Name)
	}

	return result.ErrorOrNil()
}
