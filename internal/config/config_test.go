package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/skill"
)

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := Empty()

	if got := cfg.GetPrimarySource(); got != "0" {
		t.Errorf("GetPrimarySource() = %q, want \"0\"", got)
	}
	if got := cfg.GetSecondarySource(); got != "1" {
		t.Errorf("GetSecondarySource() = %q, want \"1\"", got)
	}
	if !cfg.GetMirrorPrimary() {
		t.Error("GetMirrorPrimary() = false, want true")
	}
	if got := cfg.DropPolicy(); got != (skill.DropPolicy{}) {
		t.Errorf("DropPolicy() = %+v, want unbounded", got)
	}
	if got := cfg.GetDBPath(); got != "sessions.db" {
		t.Errorf("GetDBPath() = %q", got)
	}
	if got := cfg.GetListen(); got != ":8080" {
		t.Errorf("GetListen() = %q", got)
	}
	if got := cfg.GetUserID(); got != "trainee" {
		t.Errorf("GetUserID() = %q", got)
	}
	if !cfg.GetLogOps() || cfg.GetLogDiag() || cfg.GetLogTrace() {
		t.Errorf("log streams = %v/%v/%v, want ops only", cfg.GetLogOps(), cfg.GetLogDiag(), cfg.GetLogTrace())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	body := `{
  "primary_source": "rtsp://bench/primary",
  "secondary_source": "",
  "mirror_primary": false,
  "max_consecutive_drops": 30,
  "max_session_duration": "5m",
  "db_path": "/var/lib/stabil/sessions.db",
  "user_id": "resident-7",
  "log_trace": true
}`
	if err := fsys.WriteFile("config/stabil.json", []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fsys, "config/stabil.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.GetPrimarySource(); got != "rtsp://bench/primary" {
		t.Errorf("GetPrimarySource() = %q", got)
	}
	if got := cfg.GetSecondarySource(); got != "" {
		t.Errorf("GetSecondarySource() = %q, want disabled", got)
	}
	if cfg.GetMirrorPrimary() {
		t.Error("GetMirrorPrimary() = true, want false")
	}
	want := skill.DropPolicy{MaxConsecutiveDrops: 30, MaxDuration: 5 * time.Minute}
	if got := cfg.DropPolicy(); got != want {
		t.Errorf("DropPolicy() = %+v, want %+v", got, want)
	}
	if got := cfg.GetUserID(); got != "resident-7" {
		t.Errorf("GetUserID() = %q", got)
	}
	if !cfg.GetLogTrace() {
		t.Error("GetLogTrace() = false, want true")
	}
	// Unset fields keep their defaults.
	if got := cfg.GetListen(); got != ":8080" {
		t.Errorf("GetListen() = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	files := map[string]string{
		"bad.json":      `{"max_consecutive_drops": `,
		"negative.json": `{"max_consecutive_drops": -1}`,
		"duration.json": `{"max_session_duration": "soon"}`,
		"primary.json":  `{"primary_source": ""}`,
		"config.yaml":   `{}`,
		"huge.json":     `{"user_id": "` + strings.Repeat("x", maxFileSize) + `"}`,
	}
	for name, body := range files {
		if err := fsys.WriteFile(name, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want string
	}{
		{"bad.json", "failed to parse config JSON"},
		{"negative.json", "max_consecutive_drops must be non-negative"},
		{"duration.json", "invalid max_session_duration"},
		{"primary.json", "primary_source must not be empty"},
		{"config.yaml", ".json extension"},
		{"huge.json", "config file too large"},
		{"missing.json", "failed to stat config file"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Load(fsys, tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load(%q) error = %v, want containing %q", tt.path, err, tt.want)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()

	cfg, err := LoadOptional(fsys, DefaultConfigPath)
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if cfg.PrimarySource != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}

	if err := fsys.WriteFile(DefaultConfigPath, []byte(`{"listen": ":9090"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(fsys, DefaultConfigPath)
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if got := cfg.GetListen(); got != ":9090" {
		t.Errorf("GetListen() = %q, want :9090", got)
	}
}

func TestGetMaxSessionDurationParseError(t *testing.T) {
	bad := "later"
	cfg := &Config{MaxSessionDuration: &bad}
	if got := cfg.GetMaxSessionDuration(); got != 0 {
		t.Errorf("GetMaxSessionDuration() = %v, want 0", got)
	}
}
