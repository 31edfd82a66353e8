package skill

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinSamples is the smallest sequence length a statistic is computed on.
	// Shorter sequences report 0.
	MinSamples = 6

	// PressureScale converts blob area into a pressure sample.
	PressureScale = 500.0

	// OverPenetrationPressure is the pressure above which a sample counts
	// as over-penetration.
	OverPenetrationPressure = 1.3
)

// Accumulator collects the per-frame motion sequences for one session.
// The zero value is ready to use.
type Accumulator struct {
	tremor    []float64
	errors    []float64
	depth     []float64
	pressure  []float64
	stitch    []float64
	targeting []float64

	restrictedHits int

	prev    r2.Vec
	hasPrev bool
}

// Add records an accepted reading and its instantaneous error. It returns
// the tremor delta for this reading (0 for the first).
func (a *Accumulator) Add(r Reading, instErr float64) float64 {
	var tremor float64
	pos := r.Pos()
	if a.hasPrev {
		tremor = r2.Norm(r2.Sub(pos, a.prev))
		a.tremor = append(a.tremor, tremor)
	}
	a.prev, a.hasPrev = pos, true

	a.errors = append(a.errors, instErr)
	a.depth = append(a.depth, r.Depth())
	a.pressure = append(a.pressure, r.Area/PressureScale)
	return tremor
}

// AddStitch records a stitch-spacing sample.
func (a *Accumulator) AddStitch(v float64) { a.stitch = append(a.stitch, v) }

// AddTargeting records a targeting-error sample.
func (a *Accumulator) AddTargeting(v float64) { a.targeting = append(a.targeting, v) }

// HitRestricted counts one restricted-zone violation.
func (a *Accumulator) HitRestricted() { a.restrictedHits++ }

// Summary is the finalised view of an Accumulator.
type Summary struct {
	Samples        int
	TremorStd      float64
	ErrorMean      float64
	DepthStd       float64
	PressureStd    float64
	OverPen        int
	RestrictedHits int

	// StitchMean and TargetingMean are nil when no sample was recorded.
	StitchMean    *float64
	TargetingMean *float64
}

// Summary computes the session statistics.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Samples:        len(a.errors),
		TremorStd:      dispersion(a.tremor),
		ErrorMean:      centre(a.errors),
		DepthStd:       dispersion(a.depth),
		PressureStd:    dispersion(a.pressure),
		RestrictedHits: a.restrictedHits,
	}
	for _, p := range a.pressure {
		if p > OverPenetrationPressure {
			s.OverPen++
		}
	}
	if len(a.stitch) > 0 {
		m := stat.Mean(a.stitch, nil)
		s.StitchMean = &m
	}
	if len(a.targeting) > 0 {
		m := stat.Mean(a.targeting, nil)
		s.TargetingMean = &m
	}
	return s
}

// dispersion is the population standard deviation, or 0 below MinSamples.
func dispersion(xs []float64) float64 {
	if len(xs) < MinSamples {
		return 0
	}
	return stat.PopStdDev(xs, nil)
}

// centre is the arithmetic mean, or 0 below MinSamples.
func centre(xs []float64) float64 {
	if len(xs) < MinSamples {
		return 0
	}
	return stat.Mean(xs, nil)
}
