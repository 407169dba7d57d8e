// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the AGPL license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"io"
	"os"
	"time"
)

var output io.Writer = os.Stdout

// SetOutput sets the writer for log lines. It must be called before Start.
func SetOutput(w io.Writer) {
	output = w
}

func writeLine(line *logLine) {
	fmt.Fprintln(output, formatLine(line, true))
}

func writer() {
	defer shutdownWait.Done()

	var line *logLine
	for {
		// wait until logs need to be processed
		select {
		case <-logsWaiting:
			logsWaitingFlag.UnSet()
		case <-forceEmptyingOfBuffer:
		case <-time.After(1 * time.Second):
		case <-shutdownSignal:
			// write everything that is left, then stop
			for {
				select {
				case line = <-logBuffer:
					writeLine(line)
				default:
					writeLine(&logLine{
						msg:       "===== LOGGING STOPPED =====",
						level:     WarningLevel,
						timestamp: time.Now(),
					})
					return
				}
			}
		}

		// write all the logs!
	writeLoop:
		for {
			select {
			case line = <-logBuffer:
				writeLine(line)
			default:
				break writeLoop
			}
		}
	}
}
