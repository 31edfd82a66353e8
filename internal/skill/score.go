package skill

import (
	"math"
	"time"
)

// SkillTier is the banded classification of a PSI.
type SkillTier string

const (
	TierExpert       SkillTier = "Expert"
	TierIntermediate SkillTier = "Intermediate"
	TierBeginner     SkillTier = "Beginner"
	TierCameraError  SkillTier = "Camera Error"
)

// PSI weights.
const (
	weightTremor     = 0.35
	weightError      = 0.35
	weightDepth      = 0.15
	weightPressure   = 5.0
	weightRestricted = 0.2

	expertPSI       = 80.0
	intermediatePSI = 60.0
)

// SessionResult is the immutable record of a finished session.
type SessionResult struct {
	ID                  string            `json:"id"`
	Mode                ModeID            `json:"mode"`
	Outcome             Phase             `json:"outcome"`
	Reason              string            `json:"reason,omitempty"`
	PSI                 float64           `json:"psi"`
	Tremor              float64           `json:"tremor"`
	Error               float64           `json:"error"`
	DepthError          float64           `json:"depth_error"`
	PressureDev         float64           `json:"pressure_dev"`
	OverPen             int               `json:"over_pen"`
	RestrictedHits      int               `json:"restricted_hits"`
	SkillTier           SkillTier         `json:"skill_tier"`
	Progress            int               `json:"progress"`
	Frames              int               `json:"frames"`
	DroppedFrames       int               `json:"dropped_frames"`
	StartedAt           time.Time         `json:"started_at"`
	EndedAt             time.Time         `json:"ended_at"`
	Trajectory          []TrajectoryPoint `json:"trajectory"`
	StitchAccuracy      *float64          `json:"stitch_accuracy,omitempty"`
	TargetingAccuracy   *float64          `json:"targeting_accuracy,omitempty"`
	DepthVariationIndex *float64          `json:"depth_variation_index,omitempty"`
}

// ComputePSI returns the unrounded performance index in [0, 100].
func ComputePSI(s Summary) float64 {
	penalty := s.TremorStd*weightTremor +
		s.ErrorMean*weightError +
		s.DepthStd*weightDepth +
		s.PressureStd*weightPressure +
		float64(s.RestrictedHits)*weightRestricted
	return math.Max(0, math.Min(100, 100-penalty))
}

// ClassifySkill bands a PSI into a tier.
func ClassifySkill(psi float64) SkillTier {
	switch {
	case psi >= expertPSI:
		return TierExpert
	case psi >= intermediatePSI:
		return TierIntermediate
	default:
		return TierBeginner
	}
}

// Finalize produces the result for a terminated assessment. Identity and
// timestamps are left for the caller.
func Finalize(a *Assessment) SessionResult {
	if a.phase == PhaseError {
		res := CameraErrorResult(a.mode.ID)
		res.Reason = a.reason
		res.Frames = a.frames
		res.DroppedFrames = a.dropped
		return res
	}

	s := a.acc.Summary()
	psi := ComputePSI(s)
	res := SessionResult{
		Mode:           a.mode.ID,
		Outcome:        a.phase,
		Reason:         a.reason,
		PSI:            round2(psi),
		Tremor:         round2(s.TremorStd),
		Error:          round2(s.ErrorMean),
		DepthError:     round2(s.DepthStd),
		PressureDev:    round2(s.PressureStd),
		OverPen:        s.OverPen,
		RestrictedHits: s.RestrictedHits,
		SkillTier:      ClassifySkill(psi),
		Progress:       a.progress.Counter,
		Frames:         a.frames,
		DroppedFrames:  a.dropped,
		Trajectory:     a.traj.Points(),
	}
	if s.StitchMean != nil {
		res.StitchAccuracy = ptr(round2(100 - *s.StitchMean))
	}
	if s.TargetingMean != nil {
		res.TargetingAccuracy = ptr(round2(100 - *s.TargetingMean))
	}
	if a.mode.ReportsDepthVariation {
		res.DepthVariationIndex = ptr(round2(s.DepthStd))
	}
	diagf("finalized %s session: outcome=%s psi=%.2f tier=%s frames=%d dropped=%d progress=%d",
		res.Mode, res.Outcome, res.PSI, res.SkillTier, res.Frames, res.DroppedFrames, res.Progress)
	return res
}

// CameraErrorResult is the zero-filled result for a session whose primary
// source could not be opened.
func CameraErrorResult(mode ModeID) SessionResult {
	return SessionResult{
		Mode:       mode,
		Outcome:    PhaseError,
		Reason:     ReasonPrimaryUnavail,
		SkillTier:  TierCameraError,
		Trajectory: []TrajectoryPoint{},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr[T any](v T) *T { return &v }
