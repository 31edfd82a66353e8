package capture

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams for the capture package.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger("[capture] ", w.Ops)
	diagLogger = newLogger("[capture] ", w.Diag)
	traceLogger = newLogger("[capture] ", w.Trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func logf(l **log.Logger, format string, args ...interface{}) {
	logMu.RLock()
	lg := *l
	logMu.RUnlock()
	if lg != nil {
		lg.Printf(format, args...)
	}
}

// opsf logs to the ops stream (device open and close failures).
func opsf(format string, args ...interface{}) { logf(&opsLogger, format, args...) }

// diagf logs to the diag stream (device properties).
func diagf(format string, args ...interface{}) { logf(&diagLogger, format, args...) }

// tracef logs to the trace stream (per-frame reads).
func tracef(format string, args ...interface{}) { logf(&traceLogger, format, args...) }
