package skill

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame geometry shared by all modes.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

var frameCentre = r2.Vec{X: FrameWidth / 2, Y: FrameHeight / 2}

// segmentDistance is the shortest distance from p to the segment ab.
func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}

// polylineDistance is the distance from p to an open polyline.
func polylineDistance(p r2.Vec, path []r2.Vec) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return r2.Norm(r2.Sub(p, path[0]))
	}
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		if d := segmentDistance(p, path[i-1], path[i]); d < best {
			best = d
		}
	}
	return best
}

// insideStrict reports whether p lies strictly inside b. r2.Box.Contains is
// inclusive of the edges, which the restricted zone must not be.
func insideStrict(b r2.Box, p r2.Vec) bool {
	return p.X > b.Min.X && p.X < b.Max.X && p.Y > b.Min.Y && p.Y < b.Max.Y
}

// samplePolyline walks path emitting a point every step units, always
// including the vertices.
func samplePolyline(path []r2.Vec, step float64) []r2.Vec {
	if len(path) == 0 {
		return nil
	}
	out := []r2.Vec{path[0]}
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		seg := r2.Sub(b, a)
		n := int(math.Ceil(r2.Norm(seg) / step))
		for k := 1; k <= n; k++ {
			out = append(out, r2.Add(a, r2.Scale(float64(k)/float64(n), seg)))
		}
	}
	return out
}

// sampleCircle returns points on a circle roughly step units apart.
func sampleCircle(c r2.Vec, radius, step float64) []r2.Vec {
	n := int(math.Ceil(2 * math.Pi * radius / step))
	if n < 8 {
		n = 8
	}
	out := make([]r2.Vec, 0, n)
	for k := 0; k < n; k++ {
		theta := 2 * math.Pi * float64(k) / float64(n)
		out = append(out, r2.Vec{X: c.X + radius*math.Cos(theta), Y: c.Y + radius*math.Sin(theta)})
	}
	return out
}

func boxOutline(b r2.Box) []r2.Vec {
	return []r2.Vec{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
		b.Min,
	}
}

func closed(ring []r2.Vec) []r2.Vec {
	if len(ring) == 0 {
		return ring
	}
	return append(ring, ring[0])
}
