package skill

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseCancelled Phase = "cancelled"
	PhaseError     Phase = "error"
)

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled || p == PhaseError
}

// Termination reasons recorded on results.
const (
	ReasonCompleted      = "progress threshold reached"
	ReasonCancelled      = "cancelled"
	ReasonDeadline       = "session duration exceeded"
	ReasonDropBudget     = "consecutive frame drop budget exhausted"
	ReasonPrimaryUnavail = "primary source unavailable"
)

// StepResult describes what one Step did with a reading.
type StepResult struct {
	Accepted  bool
	Error     float64
	Tremor    float64
	State     PointState
	Advanced  bool
	Completed bool
}

// Assessment holds all mutable state of one session. It is driven by a
// single goroutine and is not safe for concurrent use.
type Assessment struct {
	mode     *Mode
	phase    Phase
	reason   string
	acc      Accumulator
	progress Progress
	traj     Trajectory

	frames   int // frames acquired
	dropped  int // acquisition failures
	accepted int // readings that cleared the noise floor
	last     PointState
}

// NewAssessment creates idle session state for mode. A non-positive
// threshold selects CompletionThreshold.
func NewAssessment(mode *Mode, threshold int) *Assessment {
	return &Assessment{
		mode:     mode,
		phase:    PhaseIdle,
		progress: NewProgress(threshold),
	}
}

// Start moves an idle assessment to Running.
func (a *Assessment) Start() {
	if a.phase == PhaseIdle {
		a.phase = PhaseRunning
	}
}

// Phase returns the current lifecycle phase.
func (a *Assessment) Phase() Phase { return a.phase }

// Reason returns why the assessment terminated, if it has.
func (a *Assessment) Reason() string { return a.reason }

// Mode returns the mode being assessed.
func (a *Assessment) Mode() *Mode { return a.mode }

// Progress returns the current progress.
func (a *Assessment) Progress() Progress { return a.progress }

// Step evaluates one acquired frame's reading. Readings at or below the
// noise floor are counted as frames but otherwise ignored.
func (a *Assessment) Step(r Reading) StepResult {
	if a.phase != PhaseRunning {
		return StepResult{}
	}
	a.frames++
	if !r.Valid() {
		return StepResult{}
	}
	a.accepted++

	m := a.mode
	instErr := m.Error(r)
	tremor := a.acc.Add(r, instErr)

	var inZone bool
	if m.InZone != nil && m.InZone(r) {
		inZone = true
		a.acc.HitRestricted()
	}
	switch m.Effect {
	case EffectStitchSpacing:
		a.acc.AddStitch(instErr)
	case EffectTargeting:
		a.acc.AddTargeting(instErr)
	}

	state := classifyPoint(tremor, instErr, inZone)
	a.last = state
	a.traj.Append(TrajectoryPoint{X: r.X, Y: r.Y, Depth: r.Depth(), State: state})

	res := StepResult{Accepted: true, Error: instErr, Tremor: tremor, State: state}
	if m.OnTarget != nil && m.OnTarget(r, instErr) {
		res.Advanced = true
		if a.progress.Advance() {
			res.Completed = true
			a.terminate(PhaseCompleted, ReasonCompleted)
		}
	}
	return res
}

// Miss records an acquired frame in which nothing was located.
func (a *Assessment) Miss() {
	if a.phase == PhaseRunning {
		a.frames++
	}
}

// Drop records an acquisition failure.
func (a *Assessment) Drop() {
	if a.phase == PhaseRunning {
		a.dropped++
	}
}

// Cancel ends a running assessment with reason.
func (a *Assessment) Cancel(reason string) {
	if a.phase == PhaseRunning {
		a.terminate(PhaseCancelled, reason)
	}
}

// Fail ends an idle or running assessment in the Error phase.
func (a *Assessment) Fail(reason string) {
	if !a.phase.Terminal() {
		a.terminate(PhaseError, reason)
	}
}

func (a *Assessment) terminate(p Phase, reason string) {
	a.phase = p
	a.reason = reason
}

// Snapshot is a point-in-time view of a session for observers.
type Snapshot struct {
	Mode      ModeID     `json:"mode"`
	Phase     Phase      `json:"phase"`
	Progress  Progress   `json:"progress"`
	Frames    int        `json:"frames"`
	Dropped   int        `json:"dropped_frames"`
	Accepted  int        `json:"accepted"`
	LastState PointState `json:"last_state,omitempty"`
}

// Snapshot returns the current view of the assessment.
func (a *Assessment) Snapshot() Snapshot {
	return Snapshot{
		Mode:      a.mode.ID,
		Phase:     a.phase,
		Progress:  a.progress,
		Frames:    a.frames,
		Dropped:   a.dropped,
		Accepted:  a.accepted,
		LastState: a.last,
	}
}
