// Package monitoring holds the process-wide request and handler logger.
package monitoring

import (
	"fmt"
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger or SetWriter.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetWriter sends one unprefixed line per call to w. The caller serialises
// access to w if it is shared.
func SetWriter(w io.Writer) {
	Logf = func(format string, v ...any) {
		fmt.Fprintf(w, format+"\n", v...)
	}
}

// Reset restores the default log.Printf logger.
func Reset() {
	Logf = log.Printf
}
