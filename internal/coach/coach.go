// Package coach turns finished sessions into trainee feedback: per-session
// threshold checks, a next-exercise recommendation from the session history,
// and a PSI trend forecast.
package coach

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/stabil-sim/stabil/internal/skill"
)

// Metrics is the part of a session the coach looks at.
type Metrics struct {
	PSI         float64
	Tremor      float64
	Error       float64
	DepthError  float64
	PressureDev float64
}

// FromResult extracts Metrics from a session result.
func FromResult(r *skill.SessionResult) Metrics {
	return Metrics{
		PSI:         r.PSI,
		Tremor:      r.Tremor,
		Error:       r.Error,
		DepthError:  r.DepthError,
		PressureDev: r.PressureDev,
	}
}

// Feedback thresholds.
const (
	MaxTremor      = 5.0
	MaxError       = 40.0
	MaxDepthError  = 8.0
	MaxPressureDev = 1.0
)

// Report is the feedback for one session.
type Report struct {
	Percentage float64  `json:"percentage"`
	Feedback   []string `json:"feedback"`
	Mistakes   []string `json:"mistakes"`
}

// Analyze checks one session against the feedback thresholds.
func Analyze(m Metrics) Report {
	r := Report{Percentage: m.PSI, Feedback: []string{}, Mistakes: []string{}}
	if m.Tremor > MaxTremor {
		r.Feedback = append(r.Feedback, "Reduce hand tremor. Practice slow steady movements.")
		r.Mistakes = append(r.Mistakes, "High tremor detected")
	}
	if m.Error > MaxError {
		r.Feedback = append(r.Feedback, "Improve trajectory accuracy. Follow guide path carefully.")
		r.Mistakes = append(r.Mistakes, "High path deviation")
	}
	if m.DepthError > MaxDepthError {
		r.Feedback = append(r.Feedback, "Maintain consistent penetration depth.")
		r.Mistakes = append(r.Mistakes, "Depth instability")
	}
	if m.PressureDev > MaxPressureDev {
		r.Feedback = append(r.Feedback, "Apply uniform pressure while tracing.")
		r.Mistakes = append(r.Mistakes, "Pressure variation")
	}
	if len(r.Feedback) == 0 {
		r.Feedback = append(r.Feedback, "Excellent surgical control. Maintain consistency.")
	}
	return r
}

// Trend describes the direction of the PSI history.
type Trend string

const (
	TrendCollecting Trend = "Collecting Data"
	TrendImproving  Trend = "Steady Improvement"
	TrendPlateau    Trend = "Plateau Detected"
	TrendDeclining  Trend = "Declining Performance"
)

// MinHistory is the number of sessions needed for recommendations and
// forecasts.
const MinHistory = 3

// Slope thresholds, PSI points per session.
const (
	improvingSlope = 0.5
	decliningSlope = -0.5
)

// Recommendation suggests the next exercise.
type Recommendation struct {
	RecommendedMode skill.ModeID `json:"recommended_mode"`
	FocusMetric     string       `json:"focus_metric"`
	Goal            string       `json:"goal"`
	Trend           Trend        `json:"trend"`
}

// weakness maps a metric to the mode that drills it, in tie-break order.
var weakness = []struct {
	metric string
	mode   skill.ModeID
	value  func(Metrics) float64
}{
	{"tremor", skill.ModeMicro, func(m Metrics) float64 { return m.Tremor }},
	{"error", skill.ModeCircle, func(m Metrics) float64 { return m.Error }},
	{"depth", skill.ModeDepthDrill, func(m Metrics) float64 { return m.DepthError }},
}

// Recommend picks the metric with the largest population variance across
// history (oldest first) and the mode that trains it.
func Recommend(history []Metrics) Recommendation {
	if len(history) < MinHistory {
		return Recommendation{
			RecommendedMode: skill.ModeLine,
			FocusMetric:     "Consistency",
			Goal:            "Build baseline stability (5 sessions)",
			Trend:           TrendCollecting,
		}
	}

	best, bestVar := 0, math.Inf(-1)
	for i, w := range weakness {
		xs := make([]float64, len(history))
		for j, m := range history {
			xs[j] = w.value(m)
		}
		if v := stat.PopVariance(xs, nil); v > bestVar {
			best, bestVar = i, v
		}
	}
	w := weakness[best]
	return Recommendation{
		RecommendedMode: w.mode,
		FocusMetric:     strings.ToUpper(w.metric),
		Goal:            "Reduce variance in " + w.metric,
		Trend:           classifyTrend(fit(psiSeries(history))),
	}
}

func classifyTrend(_, slope float64) Trend {
	switch {
	case slope > improvingSlope:
		return TrendImproving
	case slope > decliningSlope:
		return TrendPlateau
	default:
		return TrendDeclining
	}
}

// Predict extends the least-squares PSI line n sessions past history,
// clamped to [0, 100] and rounded to one decimal.
func Predict(history []Metrics, n int) []float64 {
	out := []float64{}
	if len(history) < MinHistory || n <= 0 {
		return out
	}
	intercept, slope := fit(psiSeries(history))
	for k := 0; k < n; k++ {
		x := float64(len(history) + k)
		v := math.Max(0, math.Min(100, intercept+slope*x))
		out = append(out, math.Round(v*10)/10)
	}
	return out
}

// AveragePSI is the mean PSI of history, 0 when empty.
func AveragePSI(history []Metrics) float64 {
	if len(history) == 0 {
		return 0
	}
	return stat.Mean(psiSeries(history), nil)
}

func psiSeries(history []Metrics) []float64 {
	ys := make([]float64, len(history))
	for i, m := range history {
		ys[i] = m.PSI
	}
	return ys
}

// fit regresses ys on their index.
func fit(ys []float64) (intercept, slope float64) {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

// Progress bundles the history views served to the trainee.
type Progress struct {
	Sessions       int            `json:"sessions"`
	AveragePSI     float64        `json:"average_psi"`
	Recommendation Recommendation `json:"recommendation"`
	Predictions    []float64      `json:"predictions"`
}

// Summarize builds Progress with a forecast of horizon sessions.
func Summarize(history []Metrics, horizon int) Progress {
	return Progress{
		Sessions:       len(history),
		AveragePSI:     math.Round(AveragePSI(history)*10) / 10,
		Recommendation: Recommend(history),
		Predictions:    Predict(history, horizon),
	}
}
