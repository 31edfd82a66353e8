package skill

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stabil-sim/stabil/internal/timeutil"
)

// Frame is one captured image. Implementations own native buffers and must
// be closed after use.
type Frame interface {
	Close() error
}

// FrameSource yields frames from one camera or feed. Read blocks until a
// frame is available or acquisition fails.
type FrameSource interface {
	Read() (Frame, error)
	Close() error
}

// SourceOpener opens a frame source from a reference such as a device index
// or a URL.
type SourceOpener interface {
	Open(ref string) (FrameSource, error)
}

// Locator finds candidate instrument tips in a frame.
type Locator interface {
	Locate(f Frame) ([]Candidate, error)
}

// DropPolicy bounds how long a degraded feed may run. Zero values mean
// unbounded.
type DropPolicy struct {
	MaxConsecutiveDrops int
	MaxDuration         time.Duration
}

// SessionRequest selects the mode and sources for one session. An empty
// Secondary runs without depth precision.
type SessionRequest struct {
	Mode      ModeID
	Primary   string
	Secondary string
}

// Runner drives sessions from frame sources to a SessionResult.
type Runner struct {
	Opener  SourceOpener
	Locator Locator
	Policy  DropPolicy

	// Threshold overrides CompletionThreshold when positive. Tests only;
	// stored sessions are always gated at CompletionThreshold.
	Threshold int

	// Clock defaults to the wall clock.
	Clock timeutil.Clock

	// NewID defaults to random UUIDs.
	NewID func() string

	// Observe, when set, receives a snapshot after every iteration.
	Observe func(Snapshot)
}

func (r *Runner) clock() timeutil.Clock {
	if r.Clock == nil {
		return timeutil.RealClock{}
	}
	return r.Clock
}

func (r *Runner) newID() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}

// Run executes one session to a terminal phase. The only error is an unknown
// mode, reported before any source is opened; every other failure is folded
// into the returned result. Cancellation of ctx is observed once per
// iteration, after the blocking frame read returns.
func (r *Runner) Run(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	mode, err := LookupMode(req.Mode)
	if err != nil {
		return nil, err
	}
	clock := r.clock()
	id := r.newID()
	started := clock.Now()
	a := NewAssessment(mode, r.Threshold)

	primary, err := r.Opener.Open(req.Primary)
	if err != nil {
		opsf("session %s: primary source %q: %v", id, req.Primary, err)
		a.Fail(ReasonPrimaryUnavail)
		r.observe(a)
		return r.finish(a, id, started), nil
	}
	defer closeSource(id, "primary", primary)

	var secondary FrameSource
	if req.Secondary != "" {
		secondary, err = r.Opener.Open(req.Secondary)
		if err != nil {
			opsf("session %s: secondary source %q unavailable, continuing without depth: %v", id, req.Secondary, err)
			secondary = nil
		} else {
			defer closeSource(id, "secondary", secondary)
		}
	}

	opsf("session %s: started mode=%s primary=%q secondary=%q", id, mode.ID, req.Primary, req.Secondary)
	a.Start()
	consecutive := 0
	for a.Phase() == PhaseRunning {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				a.Cancel(ReasonDeadline)
			} else {
				a.Cancel(ReasonCancelled)
			}
			break
		}
		if limit := r.Policy.MaxDuration; limit > 0 && clock.Since(started) >= limit {
			a.Cancel(ReasonDeadline)
			break
		}

		frame, err := primary.Read()
		if err != nil {
			a.Drop()
			consecutive++
			tracef("session %s: primary frame dropped (%d consecutive): %v", id, consecutive, err)
			if limit := r.Policy.MaxConsecutiveDrops; limit > 0 && consecutive >= limit {
				opsf("session %s: %d consecutive drops, cancelling", id, consecutive)
				a.Cancel(ReasonDropBudget)
			}
			r.observe(a)
			continue
		}
		consecutive = 0

		depth, hasDepth := r.secondaryDepth(id, secondary)
		reading, ok := r.locate(id, frame)
		if err := frame.Close(); err != nil {
			tracef("session %s: release frame: %v", id, err)
		}
		if !ok {
			a.Miss()
			r.observe(a)
			continue
		}
		if hasDepth {
			reading = reading.WithDepth(depth)
		}
		step := a.Step(reading)
		if step.Accepted {
			tracef("session %s: x=%.0f y=%.0f err=%.2f tremor=%.2f state=%s progress=%d",
				id, reading.X, reading.Y, step.Error, step.Tremor, step.State, a.Progress().Counter)
		}
		r.observe(a)
	}

	opsf("session %s: %s (%s)", id, a.Phase(), a.Reason())
	return r.finish(a, id, started), nil
}

func (r *Runner) finish(a *Assessment, id string, started time.Time) *SessionResult {
	res := Finalize(a)
	res.ID = id
	res.StartedAt = started
	res.EndedAt = r.clock().Now()
	return &res
}

func (r *Runner) observe(a *Assessment) {
	if r.Observe != nil {
		r.Observe(a.Snapshot())
	}
}

// locate returns the reading for the largest candidate in f.
func (r *Runner) locate(id string, f Frame) (Reading, bool) {
	cands, err := r.Locator.Locate(f)
	if err != nil {
		tracef("session %s: locate: %v", id, err)
		return Reading{}, false
	}
	c, ok := SelectLargest(cands)
	if !ok {
		return Reading{}, false
	}
	return ReadingFrom(c), true
}

// secondaryDepth reads one secondary frame and returns the located
// candidate's X coordinate.
func (r *Runner) secondaryDepth(id string, src FrameSource) (float64, bool) {
	if src == nil {
		return 0, false
	}
	f, err := src.Read()
	if err != nil {
		tracef("session %s: secondary frame dropped: %v", id, err)
		return 0, false
	}
	defer func() {
		if err := f.Close(); err != nil {
			tracef("session %s: release secondary frame: %v", id, err)
		}
	}()
	rd, ok := r.locate(id, f)
	if !ok {
		return 0, false
	}
	return rd.X, true
}

func closeSource(id, name string, src FrameSource) {
	if err := src.Close(); err != nil {
		opsf("session %s: close %s source: %v", id, name, err)
	}
}
