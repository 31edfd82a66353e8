package skill

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorInsufficientData(t *testing.T) {
	t.Parallel()

	var a Accumulator
	for i := 0; i < 5; i++ {
		a.Add(Reading{X: float64(i * 7), Y: 0, Size: float64(10 + i), Area: float64(100 * i)}, float64(i))
	}
	s := a.Summary()
	assert.Equal(t, 5, s.Samples)
	assert.Zero(t, s.TremorStd)
	assert.Zero(t, s.ErrorMean)
	assert.Zero(t, s.DepthStd)
	assert.Zero(t, s.PressureStd)
}

func TestAccumulatorTremorNeedsOneMoreReading(t *testing.T) {
	t.Parallel()

	var a Accumulator
	xs := []float64{0, 1, 3, 6, 10, 15}
	for i, x := range xs {
		a.Add(Reading{X: x, Size: 10, Area: 500}, float64(i))
	}
	s := a.Summary()
	// six readings give six errors but only five tremor deltas
	assert.Zero(t, s.TremorStd)
	assert.InDelta(t, 2.5, s.ErrorMean, 1e-9)

	a.Add(Reading{X: 21, Size: 10, Area: 500}, 6)
	s = a.Summary()
	// deltas 1..6
	assert.InDelta(t, math.Sqrt(35.0/12.0), s.TremorStd, 1e-9)
}

func TestAccumulatorDepthAndPressure(t *testing.T) {
	t.Parallel()

	var a Accumulator
	for i := 0; i < 6; i++ {
		r := Reading{X: 0, Y: 0, Size: 10, Area: 500}
		if i%2 == 1 {
			r = r.WithDepth(20)
			r.Area = 1000
		}
		tremor := a.Add(r, 0)
		assert.Zero(t, tremor)
	}
	s := a.Summary()
	// depth alternates 10 (size) and 20 (secondary)
	assert.InDelta(t, 5, s.DepthStd, 1e-9)
	// pressure alternates 1.0 and 2.0
	assert.InDelta(t, 0.5, s.PressureStd, 1e-9)
	assert.Equal(t, 3, s.OverPen)
}

func TestAccumulatorExtraSequences(t *testing.T) {
	t.Parallel()

	var a Accumulator
	s := a.Summary()
	assert.Nil(t, s.StitchMean)
	assert.Nil(t, s.TargetingMean)

	a.AddStitch(4)
	a.AddStitch(6)
	a.AddTargeting(0)
	a.HitRestricted()
	a.HitRestricted()

	s = a.Summary()
	require.NotNil(t, s.StitchMean)
	require.NotNil(t, s.TargetingMean)
	assert.InDelta(t, 5, *s.StitchMean, 1e-9)
	assert.Zero(t, *s.TargetingMean)
	assert.Equal(t, 2, s.RestrictedHits)
}

func TestProgress(t *testing.T) {
	t.Parallel()

	p := NewProgress(0)
	assert.Equal(t, CompletionThreshold, p.Threshold)

	p = NewProgress(3)
	assert.False(t, p.Advance())
	assert.False(t, p.Advance())
	assert.InDelta(t, 2.0/3.0, p.Fraction(), 1e-9)
	assert.True(t, p.Advance())
	assert.True(t, p.Advance())
	assert.Equal(t, 3, p.Counter)
	assert.Equal(t, 1.0, p.Fraction())
}
