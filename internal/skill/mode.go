package skill

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// ModeID names an exercise mode.
type ModeID string

const (
	ModeLine         ModeID = "line"
	ModeCircle       ModeID = "circle"
	ModeMicro        ModeID = "micro"
	ModeBrain        ModeID = "brain"
	ModeAngle        ModeID = "angle"
	ModeSuturing     ModeID = "suturing"
	ModeDepthDrill   ModeID = "depth_drill"
	ModeNeedleTarget ModeID = "needle_target"
)

// ErrUnknownMode is returned when a mode id is not in the registry.
var ErrUnknownMode = errors.New("unknown mode")

// Effect selects which optional sequence an accepted reading feeds.
type Effect int

const (
	EffectNone Effect = iota
	EffectStitchSpacing
	EffectTargeting
)

// Mode is one exercise variant: its target geometry and the pure functions
// that judge a reading against it.
type Mode struct {
	ID ModeID

	// Error returns the instantaneous error for a reading.
	Error func(r Reading) float64

	// OnTarget gates progress. Nil means the mode never advances progress.
	OnTarget func(r Reading, instErr float64) bool

	// InZone reports restricted-zone violations. Nil means no zone.
	InZone func(r Reading) bool

	Effect Effect

	// ReportsDepthVariation exposes depth dispersion as its own result field.
	ReportsDepthVariation bool

	// Strokes are the open polylines making up the ideal planar target, used
	// for replay classification. Empty for modes without one.
	Strokes [][]r2.Vec
}

// IdealPath returns the mode's target strokes sampled every step pixels and
// concatenated.
func (m *Mode) IdealPath(step float64) []r2.Vec {
	if m == nil {
		return nil
	}
	var out []r2.Vec
	for _, s := range m.Strokes {
		if len(s) == 1 || step <= 0 {
			out = append(out, s...)
			continue
		}
		out = append(out, samplePolyline(s, step)...)
	}
	return out
}

// Mode geometry.
const (
	lineY       = 240
	lineXMin    = 50
	lineXMax    = 590
	lineTol     = 12
	circleR     = 100
	circleTol   = 12
	microR      = 40
	brainTol    = 15
	stitchPitch = 60
	stitchTol   = 10
	guideUpperY = 220
	guideLowerY = 280
	guideXMin   = 100
	guideXMax   = 540
	drillMin    = 15
	drillMax    = 40
	needleTol   = 12
)

var (
	brainPath = []r2.Vec{{X: 80, Y: 300}, {X: 200, Y: 180}, {X: 350, Y: 260}, {X: 520, Y: 160}}
	brainZone = r2.Box{Min: r2.Vec{X: 300, Y: 130}, Max: r2.Vec{X: 420, Y: 240}}
	angleRect = r2.Box{Min: r2.Vec{X: 260, Y: 200}, Max: r2.Vec{X: 380, Y: 300}}
)

func zero(Reading) float64 { return 0 }

func errorBelow(tol float64) func(Reading, float64) bool {
	return func(_ Reading, e float64) bool { return e < tol }
}

func newRegistry() map[ModeID]*Mode {
	circlePath := closed(sampleCircle(frameCentre, circleR, 5))
	microPath := closed(sampleCircle(frameCentre, microR, 5))

	modes := []*Mode{
		{
			ID:       ModeLine,
			Error:    func(r Reading) float64 { return math.Abs(r.Y - lineY) },
			OnTarget: errorBelow(lineTol),
			Strokes:  [][]r2.Vec{{{X: lineXMin, Y: lineY}, {X: lineXMax, Y: lineY}}},
		},
		{
			ID: ModeCircle,
			Error: func(r Reading) float64 {
				return math.Abs(r2.Norm(r2.Sub(r.Pos(), frameCentre)) - circleR)
			},
			OnTarget: errorBelow(circleTol),
			Strokes:  [][]r2.Vec{circlePath},
		},
		{
			ID:    ModeMicro,
			Error:   zero,
			Strokes: [][]r2.Vec{microPath},
		},
		{
			ID: ModeBrain,
			Error: func(r Reading) float64 {
				return math.Max(0, polylineDistance(r.Pos(), brainPath)-brainTol)
			},
			OnTarget: func(r Reading, _ float64) bool {
				return polylineDistance(r.Pos(), brainPath) < brainTol
			},
			InZone:  func(r Reading) bool { return insideStrict(brainZone, r.Pos()) },
			Strokes: [][]r2.Vec{brainPath},
		},
		{
			ID:    ModeAngle,
			Error:   zero,
			Strokes: [][]r2.Vec{boxOutline(angleRect)},
		},
		{
			ID:       ModeSuturing,
			Error:    stitchSpacing,
			OnTarget: errorBelow(stitchTol),
			Effect:   EffectStitchSpacing,
			Strokes:  suturingGuides(),
		},
		{
			ID:    ModeDepthDrill,
			Error: zero,
			OnTarget: func(r Reading, _ float64) bool {
				return r.Size > drillMin && r.Size < drillMax
			},
			ReportsDepthVariation: true,
		},
		{
			ID:       ModeNeedleTarget,
			Error:    func(r Reading) float64 { return r2.Norm(r2.Sub(r.Pos(), frameCentre)) },
			OnTarget: errorBelow(needleTol),
			Effect:   EffectTargeting,
			Strokes:  [][]r2.Vec{{frameCentre}},
		},
	}

	reg := make(map[ModeID]*Mode, len(modes))
	for _, m := range modes {
		reg[m.ID] = m
	}
	return reg
}

// stitchSpacing is the horizontal offset from the nearest stitch centre.
// Stitch centres sit at 30 + 60k along the guide lines.
func stitchSpacing(r Reading) float64 {
	m := math.Mod(r.X, stitchPitch)
	if m < 0 {
		m += stitchPitch
	}
	return math.Abs(m - stitchPitch/2)
}

// suturingGuides returns the two guide lines drawn for the suturing mode.
func suturingGuides() [][]r2.Vec {
	return [][]r2.Vec{
		{{X: guideXMin, Y: guideUpperY}, {X: guideXMax, Y: guideUpperY}},
		{{X: guideXMin, Y: guideLowerY}, {X: guideXMax, Y: guideLowerY}},
	}
}

var registry = newRegistry()

// LookupMode returns the registered mode for id.
func LookupMode(id ModeID) (*Mode, error) {
	m, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(id))
	}
	return m, nil
}

// ParseModeID validates s as a registered mode id.
func ParseModeID(s string) (ModeID, error) {
	m, err := LookupMode(ModeID(s))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// Modes lists the registered mode ids in lexical order.
func Modes() []ModeID {
	ids := make([]ModeID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
