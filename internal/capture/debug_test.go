package capture

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogWriters(t *testing.T) {
	var ops, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Trace: &trace})
	defer SetLogWriters(LogWriters{})

	opsf("open %q failed", "rtsp://bench")
	diagf("buffer size %d", 1)
	tracef("frame %d read", 42)

	assert.True(t, strings.HasPrefix(ops.String(), "[capture] "))
	assert.Contains(t, ops.String(), `open "rtsp://bench" failed`)
	assert.Contains(t, trace.String(), "frame 42 read")
	assert.NotContains(t, ops.String(), "buffer size")

	SetLogWriters(LogWriters{})
	opsf("silenced")
	assert.NotContains(t, ops.String(), "silenced")
}
