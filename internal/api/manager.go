package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stabil-sim/stabil/internal/coach"
	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/monitoring"
	"github.com/stabil-sim/stabil/internal/skill"
)

var (
	// ErrBusy is returned when a session is already running.
	ErrBusy = errors.New("a session is already running")
	// ErrIdle is returned when there is no running session to cancel.
	ErrIdle = errors.New("no session is running")
)

// Store is the session history used by the manager and handlers.
type Store interface {
	SaveSession(userID string, res *skill.SessionResult) error
	GetSession(id string) (*db.Session, error)
	LastSession(userID string) (*db.Session, error)
	ListSessions(userID string, limit int) ([]db.Session, error)
}

// SourceResolver maps a mode to its primary and secondary source refs.
type SourceResolver func(mode skill.ModeID) (primary, secondary string)

// FixedSources uses the same pair of sources for every mode.
func FixedSources(primary, secondary string) SourceResolver {
	return func(skill.ModeID) (string, string) { return primary, secondary }
}

// Outcome is a finished session together with its coaching report.
type Outcome struct {
	UserID   string               `json:"user_id"`
	Result   *skill.SessionResult `json:"result"`
	Coaching coach.Report         `json:"coaching"`
	Saved    bool                 `json:"saved"`
}

// Status is the view served for the current session.
type Status struct {
	Active   bool            `json:"active"`
	UserID   string          `json:"user_id,omitempty"`
	Snapshot *skill.Snapshot `json:"snapshot,omitempty"`
	Last     *Outcome        `json:"last,omitempty"`
}

type activeSession struct {
	userID string
	cancel context.CancelFunc
	snap   skill.Snapshot
}

// Manager runs at most one session at a time in the background and keeps
// the latest snapshot and outcome for polling clients.
type Manager struct {
	runner  skill.Runner
	sources SourceResolver
	store   Store

	mu     sync.Mutex
	active *activeSession
	last   *Outcome
	wg     sync.WaitGroup
}

// NewManager returns a manager that copies runner for every session. The
// runner's Observe hook is owned by the manager.
func NewManager(runner skill.Runner, sources SourceResolver, store Store) *Manager {
	return &Manager{runner: runner, sources: sources, store: store}
}

// Start launches a session for userID. It fails fast on an unknown mode or
// when another session is running.
func (m *Manager) Start(userID string, mode skill.ModeID) error {
	if _, err := skill.LookupMode(mode); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	as := &activeSession{
		userID: userID,
		cancel: cancel,
		snap:   skill.Snapshot{Mode: mode, Phase: skill.PhaseIdle},
	}
	m.active = as

	runner := m.runner
	runner.Observe = func(s skill.Snapshot) {
		m.mu.Lock()
		as.snap = s
		m.mu.Unlock()
	}
	primary, secondary := m.sources(mode)
	req := skill.SessionRequest{Mode: mode, Primary: primary, Secondary: secondary}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.finish(userID, m.run(ctx, &runner, req))
	}()
	monitoring.Logf("session started: user=%s mode=%s primary=%q secondary=%q", userID, mode, primary, secondary)
	return nil
}

func (m *Manager) run(ctx context.Context, runner *skill.Runner, req skill.SessionRequest) *skill.SessionResult {
	res, err := runner.Run(ctx, req)
	if err != nil {
		// Start validated the mode, so this only happens if the registry changed.
		monitoring.Logf("session run failed: %v", err)
		r := skill.CameraErrorResult(req.Mode)
		r.Reason = err.Error()
		return &r
	}
	return res
}

func (m *Manager) finish(userID string, res *skill.SessionResult) {
	out := &Outcome{
		UserID:   userID,
		Result:   res,
		Coaching: coach.Analyze(coach.FromResult(res)),
	}
	if res.ID == "" {
		monitoring.Logf("session for %s has no id, not saved", userID)
	} else if err := m.store.SaveSession(userID, res); err != nil {
		monitoring.Logf("failed to save session %s: %v", res.ID, err)
	} else {
		out.Saved = true
	}
	monitoring.Logf("session %s finished: outcome=%s psi=%.2f tier=%s", res.ID, res.Outcome, res.PSI, res.SkillTier)

	m.mu.Lock()
	m.last = out
	m.active = nil
	m.mu.Unlock()
}

// Cancel raises the cancellation signal of the running session. The session
// finishes in the background once the in-flight frame read returns.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrIdle
	}
	m.active.cancel()
	return nil
}

// Status returns the running session's snapshot and the last outcome.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Last: m.last}
	if m.active != nil {
		snap := m.active.snap
		st.Active = true
		st.UserID = m.active.userID
		st.Snapshot = &snap
	}
	return st
}

// Wait blocks until every started session has been finalized and stored.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown cancels the running session, if any, and waits for it.
func (m *Manager) Shutdown(ctx context.Context) error {
	_ = m.Cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session to finish: %w", ctx.Err())
	}
}
