package modules

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tevino/abool"
)

var (
	orderLock     sync.Mutex
	startOrder    string
	shutdownOrder string
)

func testPrep(t *testing.T, name string) func() error {
	t.Helper()
	return func() error {
		t.Logf("prep %s\n", name)
		return nil
	}
}

func testStart(t *testing.T, name string) func() error {
	t.Helper()
	return func() error {
		orderLock.Lock()
		defer orderLock.Unlock()
		t.Logf("start %s\n", name)
		startOrder = fmt.Sprintf("%s>%s", startOrder, name)
		return nil
	}
}

func testStop(t *testing.T, name string) func() error {
	t.Helper()
	return func() error {
		orderLock.Lock()
		defer orderLock.Unlock()
		t.Logf("stop %s\n", name)
		shutdownOrder = fmt.Sprintf("%s>%s", shutdownOrder, name)
		return nil
	}
}

func testFail() error {
	return errors.New("test error")
}

func testCleanExit() error {
	return ErrCleanExit
}

func resetModules() {
	modulesLock.Lock()
	defer modulesLock.Unlock()

	modules = make(map[string]*Module)
	startComplete.UnSet()
	shutdownSignal = make(chan struct{})
	shutdownSignalClosed = abool.NewBool(false)
}

func TestModules(t *testing.T) { //nolint:paralleltest // Modules are global state.
	t.Run("TestModuleOrder", testModuleOrder)
	t.Run("TestModuleErrors", testModuleErrors)
}

func testModuleOrder(t *testing.T) {
	resetModules()

	Register("database", testPrep(t, "database"), testStart(t, "database"), testStop(t, "database"))
	Register("stats", testPrep(t, "stats"), testStart(t, "stats"), testStop(t, "stats"), "database")
	Register("service", testPrep(t, "service"), testStart(t, "service"), testStop(t, "service"), "database")
	Register("analytics", testPrep(t, "analytics"), testStart(t, "analytics"), testStop(t, "analytics"), "stats", "database")

	err := Start()
	if err != nil {
		t.Error(err)
	}

	if startOrder != ">database>service>stats>analytics" &&
		startOrder != ">database>stats>service>analytics" &&
		startOrder != ">database>stats>analytics>service" {
		t.Errorf("start order mismatch, was %s", startOrder)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		select {
		case <-ShuttingDown():
		case <-time.After(1 * time.Second):
			t.Error("did not receive shutdown signal")
		}
		wg.Done()
	}()
	err = Shutdown()
	if err != nil {
		t.Error(err)
	}

	if shutdownOrder != ">analytics>service>stats>database" &&
		shutdownOrder != ">analytics>stats>service>database" &&
		shutdownOrder != ">service>analytics>stats>database" {
		t.Errorf("shutdown order mismatch, was %s", shutdownOrder)
	}

	wg.Wait()

	if !errors.Is(Shutdown(), ErrShutdownInProgress) {
		t.Error("second shutdown should fail")
	}
}

func testModuleErrors(t *testing.T) {
	// test prep error
	resetModules()
	Register("prepfail", testFail, testStart(t, "prepfail"), testStop(t, "prepfail"))
	err := Start()
	if err == nil {
		t.Error("should fail")
	}

	// test prep clean exit
	resetModules()
	Register("prepcleanexit", testCleanExit, testStart(t, "prepcleanexit"), testStop(t, "prepcleanexit"))
	err = Start()
	if !errors.Is(err, ErrCleanExit) {
		t.Error("should fail with clean exit")
	}

	// test invalid dependency
	resetModules()
	Register("database", nil, testStart(t, "database"), testStop(t, "database"), "invalid")
	err = Start()
	if err == nil {
		t.Error("should fail")
	}

	// test dependency loop
	resetModules()
	Register("database", nil, testStart(t, "database"), testStop(t, "database"), "helper")
	Register("helper", nil, testStart(t, "helper"), testStop(t, "helper"), "database")
	err = Start()
	if err == nil {
		t.Error("should fail")
	}

	// test failing module start
	resetModules()
	Register("startfail", nil, testFail, testStop(t, "startfail"))
	err = Start()
	if err == nil {
		t.Error("should fail")
	}

	// test panicking module start
	resetModules()
	Register("startpanic", nil, func() error { panic("oh no") }, nil)
	err = Start()
	if err == nil {
		t.Error("should fail")
	}

	// test failing module stop
	resetModules()
	Register("stopfail", nil, testStart(t, "stopfail"), testFail)
	err = Start()
	if err != nil {
		t.Error("should not fail")
	}
	err = Shutdown()
	if err == nil {
		t.Error("should fail")
	}

	// test help flag
	resetModules()
	HelpFlag = true
	err = Start()
	if !errors.Is(err, ErrCleanExit) {
		t.Error("should fail with clean exit")
	}
	HelpFlag = false

	resetModules()
}
