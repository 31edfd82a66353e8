package monitoring

import (
	"bytes"
	"testing"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(Reset)

	var got string
	SetLogger(func(format string, v ...any) { got = format })
	Logf("session %s started", "s-1")
	if got != "session %s started" {
		t.Errorf("custom logger got %q", got)
	}

	got = ""
	SetLogger(nil)
	Logf("dropped")
	if got != "" {
		t.Errorf("no-op logger reached previous logger: %q", got)
	}
}

func TestSetWriter(t *testing.T) {
	t.Cleanup(Reset)

	var buf bytes.Buffer
	SetWriter(&buf)
	Logf("[%d] %s", 200, "/api/modes")
	Logf("second")
	if want := "[200] /api/modes\nsecond\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestReset(t *testing.T) {
	SetLogger(nil)
	Reset()
	if Logf == nil {
		t.Fatal("Logf is nil after Reset")
	}
}
