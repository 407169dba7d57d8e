package modules

import "flag"

// HelpFlag triggers printing flag.Usage. It's exported for custom help handling.
var HelpFlag bool

func init() {
	flag.BoolVar(&HelpFlag, "help", false, "print help")
}

func parseFlags() error {
	// parse flags, unless the caller already did
	if !flag.Parsed() {
		flag.Parse()
	}

	if HelpFlag {
		flag.Usage()
		return ErrCleanExit
	}

	return nil
}
