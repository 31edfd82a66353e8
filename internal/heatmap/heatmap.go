// Package heatmap classifies recorded trajectories against a mode's ideal
// path for replay, and renders the result as PNG or HTML.
package heatmap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/stabil-sim/stabil/internal/skill"
)

// Class grades a trajectory point by its distance to the ideal path.
type Class string

const (
	ClassGood    Class = "good"
	ClassCaution Class = "caution"
	ClassPoor    Class = "poor"
)

const (
	// GoodDistance and CautionDistance are exclusive upper bounds in pixels.
	GoodDistance    = 10.0
	CautionDistance = 25.0

	// SampleStep is the spacing of ideal-path samples in pixels.
	SampleStep = 5.0
)

// Cell is one classified trajectory point.
type Cell struct {
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Depth    float64          `json:"depth"`
	State    skill.PointState `json:"state"`
	Distance float64          `json:"distance"`
	Class    Class            `json:"class"`
}

// IdealPath returns the sampled ideal path of mode. Modes without a planar
// target return an empty path.
func IdealPath(mode skill.ModeID) ([]r2.Vec, error) {
	m, err := skill.LookupMode(mode)
	if err != nil {
		return nil, err
	}
	return m.IdealPath(SampleStep), nil
}

// Classify grades each point by its distance to the nearest ideal-path
// sample. An empty ideal path classifies nothing.
func Classify(points []skill.TrajectoryPoint, ideal []r2.Vec) []Cell {
	cells := []Cell{}
	if len(ideal) == 0 {
		return cells
	}
	for _, p := range points {
		d := nearest(r2.Vec{X: p.X, Y: p.Y}, ideal)
		cells = append(cells, Cell{
			X:        p.X,
			Y:        p.Y,
			Depth:    p.Depth,
			State:    p.State,
			Distance: d,
			Class:    classOf(d),
		})
	}
	return cells
}

func nearest(p r2.Vec, ideal []r2.Vec) float64 {
	best := math.Inf(1)
	for _, q := range ideal {
		if d := r2.Norm(r2.Sub(p, q)); d < best {
			best = d
		}
	}
	return best
}

func classOf(d float64) Class {
	switch {
	case d < GoodDistance:
		return ClassGood
	case d < CautionDistance:
		return ClassCaution
	default:
		return ClassPoor
	}
}

// Summary counts cells per class.
type Summary struct {
	Good      int     `json:"good"`
	Caution   int     `json:"caution"`
	Poor      int     `json:"poor"`
	GoodShare float64 `json:"good_share"`
}

// Summarize counts cells per class.
func Summarize(cells []Cell) Summary {
	var s Summary
	for _, c := range cells {
		switch c.Class {
		case ClassGood:
			s.Good++
		case ClassCaution:
			s.Caution++
		case ClassPoor:
			s.Poor++
		}
	}
	if len(cells) > 0 {
		s.GoodShare = float64(s.Good) / float64(len(cells))
	}
	return s
}

// byClass splits cells in class order good, caution, poor.
func byClass(cells []Cell) map[Class][]Cell {
	out := map[Class][]Cell{}
	for _, c := range cells {
		out[c.Class] = append(out[c.Class], c)
	}
	return out
}

var classOrder = []Class{ClassGood, ClassCaution, ClassPoor}

// flipY converts image rows (origin top-left) to chart rows (origin
// bottom-left).
func flipY(y float64) float64 {
	return skill.FrameHeight - y
}
