package modules

import (
	"fmt"
	"runtime/debug"
)

var errorReportingChannel chan *ModuleError

// ModuleError wraps a panic, error or message into an error that can be reported.
type ModuleError struct {
	Message string

	ModuleName string
	TaskName   string
	TaskType   string // one of "worker", "service-worker", "module-control" or custom
	Severity   string // one of "info", "error", "panic" or custom

	PanicValue interface{}
	StackTrace string
}

// NewPanicError creates a new, reportable, panic error message (including a stack trace).
func (m *Module) NewPanicError(taskName, taskType string, panicValue interface{}) *ModuleError {
	return &ModuleError{
		Message:    fmt.Sprintf("panic in %s %s %s: %v", m.Name, taskType, taskName, panicValue),
		ModuleName: m.Name,
		TaskName:   taskName,
		TaskType:   taskType,
		Severity:   "panic",
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Error returns the string representation of the error.
func (me *ModuleError) Error() string {
	return me.Message
}

// Report reports the error through the configured reporting channel.
func (me *ModuleError) Report() {
	if errorReportingChannel != nil {
		select {
		case errorReportingChannel <- me:
		default:
		}
	}
}

// IsPanic returns whether the given error is a wrapped panic by the modules package and additionally returns it, if true.
func IsPanic(err error) (bool, *ModuleError) {
	switch val := err.(type) { //nolint:errorlint // Panic errors are never wrapped.
	case *ModuleError:
		return true, val
	default:
		return false, nil
	}
}

// SetErrorReportingChannel sets the channel to report module errors through. By default only panics are reported, all other errors need to be manually wrapped into a *ModuleError and reported.
func SetErrorReportingChannel(reportingChannel chan *ModuleError) {
	if errorReportingChannel == nil {
		errorReportingChannel = reportingChannel
	}
}
