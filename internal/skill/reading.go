package skill

import "gonum.org/v1/gonum/spatial/r2"

// NoiseFloor is the blob size a reading must exceed to be evaluated.
const NoiseFloor = 5.0

// Candidate is one blob found in a frame by a Locator.
type Candidate struct {
	X    int
	Y    int
	Size float64 // enclosing-circle radius
	Area float64 // contour area
}

// SelectLargest returns the candidate with the largest area. Ties keep the
// earliest candidate. ok is false when cands is empty.
func SelectLargest(cands []Candidate) (best Candidate, ok bool) {
	for i, c := range cands {
		if i == 0 || c.Area > best.Area {
			best = c
		}
	}
	return best, len(cands) > 0
}

// Reading is the instrument-tip observation for one frame.
type Reading struct {
	X    float64
	Y    float64
	Z    *float64 // secondary-view coordinate, nil when no secondary reading
	Size float64
	Area float64
}

// ReadingFrom converts a located candidate into a Reading without depth.
func ReadingFrom(c Candidate) Reading {
	return Reading{X: float64(c.X), Y: float64(c.Y), Size: c.Size, Area: c.Area}
}

// WithDepth returns a copy of r carrying the secondary coordinate z.
func (r Reading) WithDepth(z float64) Reading {
	r.Z = &z
	return r
}

// Depth is the secondary coordinate when present, otherwise the apparent size.
func (r Reading) Depth() float64 {
	if r.Z != nil {
		return *r.Z
	}
	return r.Size
}

// Pos returns the planar position of the reading.
func (r Reading) Pos() r2.Vec {
	return r2.Vec{X: r.X, Y: r.Y}
}

// Valid reports whether the reading clears the noise floor.
func (r Reading) Valid() bool {
	return r.Size > NoiseFloor
}
