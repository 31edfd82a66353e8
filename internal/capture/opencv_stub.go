//go:build nocv

package capture

import (
	"fmt"

	"github.com/stabil-sim/stabil/internal/skill"
)

// Frame is never produced without OpenCV.
type Frame struct{}

// Close is a no-op.
func (*Frame) Close() error { return nil }

// Opener reports every source as unavailable when OpenCV support is disabled.
// Build without -tags=nocv to enable capture.
type Opener struct {
	MirrorRef string
}

// Open always fails with ErrUnavailable.
func (Opener) Open(ref string) (skill.FrameSource, error) {
	opsf("open %q: built without OpenCV", ref)
	return nil, fmt.Errorf("%w: %q: OpenCV support not enabled", ErrUnavailable, ref)
}

// BlobLocator locates nothing when OpenCV support is disabled.
type BlobLocator struct{}

// Locate always fails with ErrUnavailable.
func (BlobLocator) Locate(skill.Frame) ([]skill.Candidate, error) {
	return nil, fmt.Errorf("%w: OpenCV support not enabled", ErrUnavailable)
}
