package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stabil-sim/stabil/internal/skill"
)

func TestDeviceIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{" 2 ", 2, true},
		{"-1", 0, false},
		{"rtsp://10.0.0.4:554/side", 0, false},
		{"/tmp/session.mp4", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := DeviceIndex(tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
	}
}

func TestInterfaces(t *testing.T) {
	t.Parallel()

	var _ skill.SourceOpener = Opener{}
	var _ skill.Locator = BlobLocator{}
	var _ skill.Frame = &Frame{}
}
