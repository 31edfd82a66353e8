package db

import (
	"encoding/json"
	"fmt"

	"github.com/stabil-sim/stabil/internal/skill"
)

// ErrorKind classifies a DecodeError.
type ErrorKind string

// KindDeserialization marks persisted data that could not be parsed.
const KindDeserialization ErrorKind = "deserialization"

// DecodeError reports a stored value that could not be decoded.
type DecodeError struct {
	Kind      ErrorKind
	SessionID string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s error in session %s: %v", e.Kind, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeTrajectory parses a stored trajectory. A successfully parsed empty
// trajectory returns an empty, non-nil slice; anything unparsable returns a
// *DecodeError with KindDeserialization.
func DecodeTrajectory(raw string) ([]skill.TrajectoryPoint, error) {
	var pts []skill.TrajectoryPoint
	if err := json.Unmarshal([]byte(raw), &pts); err != nil {
		return nil, &DecodeError{Kind: KindDeserialization, Err: err}
	}
	if pts == nil {
		pts = []skill.TrajectoryPoint{}
	}
	return pts, nil
}

func encodeTrajectory(pts []skill.TrajectoryPoint) (string, error) {
	if pts == nil {
		pts = []skill.TrajectoryPoint{}
	}
	b, err := json.Marshal(pts)
	if err != nil {
		return "", fmt.Errorf("failed to encode trajectory: %w", err)
	}
	return string(b), nil
}
