// Package capture opens camera feeds with OpenCV and locates the tracked
// instrument tip in each frame.
//
// Build with -tags=nocv to drop the OpenCV dependency; the stub then reports
// every source as unavailable.
package capture

import (
	"errors"
	"image"
	"strconv"
	"strings"
)

// ErrUnavailable is returned when a source cannot be opened or read.
var ErrUnavailable = errors.New("capture source unavailable")

// FrameSize is the size every captured frame is resized to.
var FrameSize = image.Pt(640, 480)

// Tip colour band in OpenCV HSV units (H 0..180).
var (
	TipLowerHSV = [3]float64{100, 120, 70}
	TipUpperHSV = [3]float64{140, 255, 255}
)

// MorphKernelSize is the side of the square erode/dilate kernel.
const MorphKernelSize = 5

// DeviceIndex reports whether ref names a local camera by index.
func DeviceIndex(ref string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
