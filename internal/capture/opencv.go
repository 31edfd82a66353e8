//go:build !nocv

package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/stabil-sim/stabil/internal/skill"
)

// Frame is one resized BGR image.
type Frame struct {
	Mat gocv.Mat
}

// Close releases the native image buffer.
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Opener opens OpenCV video captures. Frames from MirrorRef are flipped
// horizontally so the trainee sees a mirror image.
type Opener struct {
	MirrorRef string
}

// Open opens a device index or a URL/file path.
func (o Opener) Open(ref string) (skill.FrameSource, error) {
	var device interface{} = ref
	if idx, ok := DeviceIndex(ref); ok {
		device = idx
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnavailable, ref, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %q not opened", ErrUnavailable, ref)
	}
	vc.Set(gocv.VideoCaptureBufferSize, 1)
	diagf("opened %q (mirror=%v)", ref, ref == o.MirrorRef)
	return &Source{ref: ref, vc: vc, mirror: ref == o.MirrorRef}, nil
}

// Source reads frames from one VideoCapture.
type Source struct {
	ref    string
	vc     *gocv.VideoCapture
	mirror bool
}

// Read grabs the next frame, resized to FrameSize.
func (s *Source) Read() (skill.Frame, error) {
	raw := gocv.NewMat()
	defer raw.Close()
	if ok := s.vc.Read(&raw); !ok || raw.Empty() {
		tracef("read %q failed", s.ref)
		return nil, fmt.Errorf("%w: read %q", ErrUnavailable, s.ref)
	}

	out := gocv.NewMat()
	gocv.Resize(raw, &out, FrameSize, 0, 0, gocv.InterpolationLinear)
	if s.mirror {
		gocv.Flip(out, &out, 1)
	}
	return &Frame{Mat: out}, nil
}

// Close releases the capture device.
func (s *Source) Close() error {
	if err := s.vc.Close(); err != nil {
		opsf("close %q: %v", s.ref, err)
		return err
	}
	return nil
}

// BlobLocator finds saturated blue blobs.
type BlobLocator struct{}

// Locate returns one candidate per external contour of the tip colour mask.
func (BlobLocator) Locate(f skill.Frame) ([]skill.Candidate, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("capture: unexpected frame type %T", f)
	}
	return locateBlobs(frame.Mat), nil
}

func locateBlobs(img gocv.Mat) []skill.Candidate {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	lo, hi := TipLowerHSV, TipUpperHSV
	gocv.InRangeWithScalar(hsv, gocv.NewScalar(lo[0], lo[1], lo[2], 0), gocv.NewScalar(hi[0], hi[1], hi[2], 0), &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(MorphKernelSize, MorphKernelSize))
	defer kernel.Close()
	gocv.Erode(mask, &mask, kernel)
	gocv.Dilate(mask, &mask, kernel)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	cands := make([]skill.Candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		x, y, radius := gocv.MinEnclosingCircle(c)
		cands = append(cands, skill.Candidate{
			X:    int(x),
			Y:    int(y),
			Size: float64(radius),
			Area: gocv.ContourArea(c),
		})
	}
	return cands
}
