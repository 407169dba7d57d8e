// Package modules provides a small module lifecycle to cleanly put all the
// moving parts of the randomness engine together.
//
// Modules are started in a multi-stage process and may depend on other
// modules:
// - Go's init(): register flags
// - prep: check flags, register config variables
// - start: start actual work, access config
// - stop: gracefully shut down
//
// **Workers**
// A simple function that is run by the module while catching
// panics and reporting them. Ideal for long running (possibly) idle goroutines,
// such as entropy harvesters. Can be automatically restarted if execution ends
// with an error.
package modules
