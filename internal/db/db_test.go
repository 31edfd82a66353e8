package db

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stabil-sim/stabil/internal/skill"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 {
	return &f
}

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func sampleResult(id string, mode skill.ModeID, psi float64, ended time.Time) *skill.SessionResult {
	return &skill.SessionResult{
		ID:             id,
		Mode:           mode,
		Outcome:        skill.PhaseCompleted,
		Reason:         skill.ReasonCompleted,
		PSI:            psi,
		Tremor:         1.25,
		Error:          3.5,
		DepthError:     0.4,
		PressureDev:    0.02,
		OverPen:        1,
		RestrictedHits: 2,
		SkillTier:      skill.ClassifySkill(psi),
		Progress:       180,
		Frames:         212,
		DroppedFrames:  3,
		StartedAt:      ended.Add(-time.Minute),
		EndedAt:        ended,
		Trajectory: []skill.TrajectoryPoint{
			{X: 100, Y: 240, Depth: 10, State: skill.StateOnTarget},
			{X: 130, Y: 262, Depth: 11.5, State: skill.StateHighTremor},
		},
		TargetingAccuracy: floatPtr(96.5),
	}
}

func TestPragmasApplied(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestMigrationsApplyOnFreshDatabase(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp(), "re-running up is a no-op")

	require.NoError(t, db.MigrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, db.MigrateTo(2))
	require.NoError(t, db.SaveSession("ana", sampleResult("s1", skill.ModeLine, 91, base)))
}

func TestSaveAndGetSession(t *testing.T) {
	db := setupTestDB(t)

	want := sampleResult("s1", skill.ModeNeedleTarget, 85.25, base)
	require.NoError(t, db.SaveSession("ana", want))

	s, err := db.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "ana", s.UserID)

	got, err := s.Result()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, db.SaveSession("ana", want), "duplicate id")
	assert.Error(t, db.SaveSession("ana", &skill.SessionResult{}))
}

func TestSaveCameraErrorSession(t *testing.T) {
	db := setupTestDB(t)

	res := skill.CameraErrorResult(skill.ModeCircle)
	res.ID = "cam"
	res.StartedAt, res.EndedAt = base, base
	require.NoError(t, db.SaveSession("ana", &res))

	s, err := db.GetSession("cam")
	require.NoError(t, err)
	assert.Equal(t, skill.TierCameraError, s.SkillTier)
	assert.Equal(t, "[]", s.RawTrajectory)
	pts, err := s.Trajectory()
	require.NoError(t, err)
	assert.NotNil(t, pts)
	assert.Empty(t, pts)
}

func TestGetSessionNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.LastSession("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndLastSession(t *testing.T) {
	db := setupTestDB(t)

	for i, psi := range []float64{50, 60, 70, 80} {
		id := string(rune('a' + i))
		require.NoError(t, db.SaveSession("ana", sampleResult(id, skill.ModeLine, psi, base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, db.SaveSession("ben", sampleResult("z", skill.ModeCircle, 10, base.Add(10*time.Hour))))

	all, err := db.ListSessions("ana", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(all))

	recent, err := db.ListSessions("ana", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(recent))

	none, err := db.ListSessions("carla", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	last, err := db.LastSession("ana")
	require.NoError(t, err)
	assert.Equal(t, "d", last.ID)
	assert.Equal(t, 80.0, last.PSI)

	users, err := db.Users()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "ben"}, users)
}

func ids(ss []Session) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestMalformedStoredTrajectory(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveSession("ana", sampleResult("s1", skill.ModeLine, 90, base)))
	_, err := db.Exec(`UPDATE sessions SET trajectory = ? WHERE id = ?`, `[[1,2`, "s1")
	require.NoError(t, err)

	s, err := db.GetSession("s1")
	require.NoError(t, err, "the row itself still loads")

	_, err = s.Trajectory()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindDeserialization, de.Kind)
	assert.Equal(t, "s1", de.SessionID)
	assert.Contains(t, de.Error(), "s1")

	_, err = s.Result()
	assert.Error(t, err)
}

func TestDecodeTrajectory(t *testing.T) {
	t.Parallel()

	pts, err := DecodeTrajectory("[]")
	require.NoError(t, err)
	assert.NotNil(t, pts)
	assert.Empty(t, pts)

	pts, err = DecodeTrajectory(`[[1,2,3,"off_path"]]`)
	require.NoError(t, err)
	assert.Equal(t, []skill.TrajectoryPoint{{X: 1, Y: 2, Depth: 3, State: skill.StateOffPath}}, pts)

	for _, raw := range []string{"", "not json", `[[1,2,3]]`, `{"x":1}`} {
		_, err := DecodeTrajectory(raw)
		var de *DecodeError
		if assert.True(t, errors.As(err, &de), raw) {
			assert.Equal(t, KindDeserialization, de.Kind)
		}
	}
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"status"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 0")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2 (dirty: false)")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "1"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"force", "2"}, path, &out))
	assert.Contains(t, out.String(), "forced to 2")

	assert.Error(t, RunMigrateCommand([]string{"force"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"version", "x"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
	assert.Error(t, RunMigrateCommand(nil, path, &out))

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
	assert.Contains(t, out.String(), "Usage: stabil migrate")
}

func TestAttachAdminRoutesBackup(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.SaveSession("ana", sampleResult("s1", skill.ModeLine, 90, base)))

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "127.0.0.1:4321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("SQLite format 3")))
}
