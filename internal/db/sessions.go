package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stabil-sim/stabil/internal/skill"
)

// Session is one stored session. The trajectory is kept raw and decoded on
// demand with Trajectory.
type Session struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Mode                skill.ModeID    `json:"mode"`
	Outcome             skill.Phase     `json:"outcome"`
	Reason              string          `json:"reason,omitempty"`
	PSI                 float64         `json:"psi"`
	Tremor              float64         `json:"tremor"`
	Error               float64         `json:"error"`
	DepthError          float64         `json:"depth_error"`
	PressureDev         float64         `json:"pressure_dev"`
	OverPen             int             `json:"over_pen"`
	RestrictedHits      int             `json:"restricted_hits"`
	SkillTier           skill.SkillTier `json:"skill_tier"`
	Progress            int             `json:"progress"`
	Frames              int             `json:"frames"`
	DroppedFrames       int             `json:"dropped_frames"`
	StitchAccuracy      *float64        `json:"stitch_accuracy,omitempty"`
	TargetingAccuracy   *float64        `json:"targeting_accuracy,omitempty"`
	DepthVariationIndex *float64        `json:"depth_variation_index,omitempty"`
	StartedAt           time.Time       `json:"started_at"`
	EndedAt             time.Time       `json:"ended_at"`

	RawTrajectory string `json:"-"`
}

// Trajectory decodes the stored trajectory. Failures carry the session id.
func (s *Session) Trajectory() ([]skill.TrajectoryPoint, error) {
	pts, err := DecodeTrajectory(s.RawTrajectory)
	var de *DecodeError
	if errors.As(err, &de) {
		de.SessionID = s.ID
	}
	return pts, err
}

// Result rebuilds the full session result including its trajectory.
func (s *Session) Result() (*skill.SessionResult, error) {
	pts, err := s.Trajectory()
	if err != nil {
		return nil, err
	}
	return &skill.SessionResult{
		ID:                  s.ID,
		Mode:                s.Mode,
		Outcome:             s.Outcome,
		Reason:              s.Reason,
		PSI:                 s.PSI,
		Tremor:              s.Tremor,
		Error:               s.Error,
		DepthError:          s.DepthError,
		PressureDev:         s.PressureDev,
		OverPen:             s.OverPen,
		RestrictedHits:      s.RestrictedHits,
		SkillTier:           s.SkillTier,
		Progress:            s.Progress,
		Frames:              s.Frames,
		DroppedFrames:       s.DroppedFrames,
		StartedAt:           s.StartedAt,
		EndedAt:             s.EndedAt,
		Trajectory:          pts,
		StitchAccuracy:      s.StitchAccuracy,
		TargetingAccuracy:   s.TargetingAccuracy,
		DepthVariationIndex: s.DepthVariationIndex,
	}, nil
}

// SaveSession stores a finished session for userID.
func (db *DB) SaveSession(userID string, res *skill.SessionResult) error {
	if res == nil || res.ID == "" {
		return errors.New("failed to save session: missing session id")
	}
	traj, err := encodeTrajectory(res.Trajectory)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO sessions (
			id, user_id, mode, outcome, reason, psi, tremor, error,
			depth_error, pressure, over_pen, restricted_hits, skill_tier,
			progress, frames, dropped_frames, stitch_accuracy,
			targeting_accuracy, depth_variation_index, trajectory,
			started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, userID, string(res.Mode), string(res.Outcome), res.Reason,
		res.PSI, res.Tremor, res.Error, res.DepthError, res.PressureDev,
		res.OverPen, res.RestrictedHits, string(res.SkillTier),
		res.Progress, res.Frames, res.DroppedFrames, res.StitchAccuracy,
		res.TargetingAccuracy, res.DepthVariationIndex, traj,
		toMicros(res.StartedAt), toMicros(res.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", res.ID, err)
	}
	return nil
}

const sessionColumns = `
	id, user_id, mode, outcome, reason, psi, tremor, error, depth_error,
	pressure, over_pen, restricted_hits, skill_tier, progress, frames,
	dropped_frames, stitch_accuracy, targeting_accuracy,
	depth_variation_index, trajectory, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s                  Session
		mode, outcome      string
		tier               string
		stitch, targeting  sql.NullFloat64
		depthVariation     sql.NullFloat64
		startedAt, endedAt int64
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &mode, &outcome, &s.Reason, &s.PSI, &s.Tremor,
		&s.Error, &s.DepthError, &s.PressureDev, &s.OverPen,
		&s.RestrictedHits, &tier, &s.Progress, &s.Frames, &s.DroppedFrames,
		&stitch, &targeting, &depthVariation, &s.RawTrajectory,
		&startedAt, &endedAt,
	); err != nil {
		return nil, err
	}
	s.Mode = skill.ModeID(mode)
	s.Outcome = skill.Phase(outcome)
	s.SkillTier = skill.SkillTier(tier)
	s.StitchAccuracy = nullable(stitch)
	s.TargetingAccuracy = nullable(targeting)
	s.DepthVariationIndex = nullable(depthVariation)
	s.StartedAt = fromMicros(startedAt)
	s.EndedAt = fromMicros(endedAt)
	return &s, nil
}

// GetSession returns the session with id.
func (db *DB) GetSession(id string) (*Session, error) {
	s, err := scanSession(db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return s, nil
}

// LastSession returns the most recently finished session for userID.
func (db *DB) LastSession(userID string) (*Session, error) {
	s, err := scanSession(db.QueryRow(`SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? ORDER BY ended_at DESC, rowid DESC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sessions for user %q", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last session for %q: %w", userID, err)
	}
	return s, nil
}

// ListSessions returns the sessions of userID oldest first. A positive limit
// keeps only the most recent limit sessions.
func (db *DB) ListSessions(userID string, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM (
		SELECT rowid AS rid, * FROM sessions WHERE user_id = ?
		ORDER BY ended_at DESC, rowid DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	query += `) ORDER BY ended_at ASC, rid ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for %q: %w", userID, err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Users returns every user id with at least one stored session.
func (db *DB) Users() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT user_id FROM sessions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
