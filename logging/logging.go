// Package logging is the minimal formatted-logging façade shared by the
// simulation drivers and the reference CLI, lifted in idiom from the
// teacher's game.Logf/SetLogWriter pair.
package logging

import (
	"fmt"
	"io"
)

var logWriter io.Writer

// SetLogWriter sets the log output destination. A nil writer restores
// the default of stdout.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message followed by a newline.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}
