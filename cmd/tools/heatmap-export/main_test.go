package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/skill"
	"github.com/stabil-sim/stabil/internal/testutil"
)

func TestExport(t *testing.T) {
	store, err := db.NewDB(testutil.TempDBPath(t))
	testutil.AssertNoError(t, err)
	defer store.Close()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	res := &skill.SessionResult{
		ID:        "session/1",
		Mode:      skill.ModeCircle,
		Outcome:   skill.PhaseCompleted,
		StartedAt: at,
		EndedAt:   at.Add(time.Minute),
		Trajectory: []skill.TrajectoryPoint{
			{X: 420, Y: 240, Depth: 10, State: skill.StateOnTarget},
			{X: 435, Y: 240, Depth: 10, State: skill.StateOnTarget},
			{X: 470, Y: 240, Depth: 10, State: skill.StateOffPath},
		},
	}
	if err := store.SaveSession("alice", res); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := filepath.Join(os.TempDir(), "heatmap-export-test.png")
	t.Cleanup(func() { os.Remove(out) })
	path, summary, err := export(store, "", "alice", out, false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != out {
		t.Errorf("path = %q, want %q", path, out)
	}
	if summary.Good != 1 || summary.Caution != 1 || summary.Poor != 1 {
		t.Errorf("summary = %+v, want one of each class", summary)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	_, _, err = export(store, "missing", "", out, false)
	testutil.AssertError(t, err)
	_, _, err = export(store, "session/1", "", "/proc/heatmap.png", false)
	testutil.AssertError(t, err)
}

func TestExportDefaultName(t *testing.T) {
	store, err := db.NewDB(testutil.TempDBPath(t))
	testutil.AssertNoError(t, err)
	defer store.Close()
	res := &skill.SessionResult{ID: "s-42", Mode: skill.ModeLine, Outcome: skill.PhaseCompleted, Trajectory: []skill.TrajectoryPoint{}}
	if err := store.SaveSession("bob", res); err != nil {
		t.Fatalf("save: %v", err)
	}

	path, _, err := export(store, "s-42", "", "", true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	t.Cleanup(func() { os.Remove(path) })
	if path != "s-42.html" {
		t.Errorf("path = %q, want s-42.html", path)
	}
}
