// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the AGPL license that can be found in the LICENSE file.

package log

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"
)

// concept
/*
- Logging function:
  - check if level is active
  - send data to backend via big buffered channel
- Backend:
  - wait until there is time for writing logs
  - write logs to the configured output (stdout by default)
- Channel overbuffering protection:
  - if buffer is full, trigger write
- Anti-Importing-Loop:
  - everything imports logging
  - logging does not import anything of this module
*/

// Severity describes a log level.
type Severity uint32

type logLine struct {
	msg       string
	level     Severity
	timestamp time.Time
	file      string
	line      int
}

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logBuffer             chan *logLine
	forceEmptyingOfBuffer chan struct{}

	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt

	logsWaiting     = make(chan struct{}, 1)
	logsWaitingFlag = abool.NewBool(false)

	shutdownSignal = make(chan struct{})
	shutdownOnce   sync.Once
	shutdownWait   sync.WaitGroup

	// started is set when the writer is running.
	started = abool.NewBool(false)

	// ErrAlreadyStarted is returned by Start if logging was already started.
	ErrAlreadyStarted = errors.New("logging already started")
)

func init() {
	logBuffer = make(chan *logLine, 1024)
	forceEmptyingOfBuffer = make(chan struct{}, 16)
}

// SetLogLevel sets a new log level.
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// ParseLevel returns the level severity of a log level name.
func ParseLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// Start starts the logging system. Must be called in order to see logs.
func Start() error {
	if !started.SetToIf(false, true) {
		return ErrAlreadyStarted
	}

	if logLevelFlag != "" {
		initialLogLevel := ParseLevel(logLevelFlag)
		if initialLogLevel == 0 {
			fmt.Fprintf(os.Stderr, "log warning: invalid log level \"%s\", falling back to level info\n", logLevelFlag)
			initialLogLevel = InfoLevel
		}
		SetLogLevel(initialLogLevel)
	}

	shutdownWait.Add(1)
	go writer()
	return nil
}

// Shutdown writes remaining log lines and then stops writing.
func Shutdown() {
	shutdownOnce.Do(func() {
		close(shutdownSignal)
	})
	shutdownWait.Wait()
}
