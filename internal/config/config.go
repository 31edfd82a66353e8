// Package config loads the stabil JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/skill"
)

// DefaultConfigPath is where commands look for a config file when no -config
// flag is given.
const DefaultConfigPath = "config/stabil.json"

// maxFileSize caps config files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration. Every field is optional; the Get*
// methods supply defaults for anything left out.
type Config struct {
	// Sources
	PrimarySource   *string `json:"primary_source,omitempty"`   // device index or URL
	SecondarySource *string `json:"secondary_source,omitempty"` // "" runs without depth
	MirrorPrimary   *bool   `json:"mirror_primary,omitempty"`
	FixtureDir      *string `json:"fixture_dir,omitempty"`

	// Session policy
	MaxConsecutiveDrops *int    `json:"max_consecutive_drops,omitempty"`
	MaxSessionDuration  *string `json:"max_session_duration,omitempty"` // duration string like "5m"

	// Service
	DBPath *string `json:"db_path,omitempty"`
	Listen *string `json:"listen,omitempty"`
	UserID *string `json:"user_id,omitempty"`

	// Log streams
	LogOps   *bool `json:"log_ops,omitempty"`
	LogDiag  *bool `json:"log_diag,omitempty"`
	LogTrace *bool `json:"log_trace,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from path on fsys. The file must have a .json
// extension and be under 1MB.
func Load(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOptional loads path when it exists and returns an empty config
// otherwise.
func LoadOptional(fsys fsutil.FileSystem, path string) (*Config, error) {
	if !fsys.Exists(filepath.Clean(path)) {
		return Empty(), nil
	}
	return Load(fsys, path)
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.MaxConsecutiveDrops != nil && *c.MaxConsecutiveDrops < 0 {
		return fmt.Errorf("max_consecutive_drops must be non-negative, got %d", *c.MaxConsecutiveDrops)
	}
	if c.MaxSessionDuration != nil && *c.MaxSessionDuration != "" {
		d, err := time.ParseDuration(*c.MaxSessionDuration)
		if err != nil {
			return fmt.Errorf("invalid max_session_duration '%s': %w", *c.MaxSessionDuration, err)
		}
		if d < 0 {
			return fmt.Errorf("max_session_duration must be non-negative, got %s", d)
		}
	}
	if c.PrimarySource != nil && *c.PrimarySource == "" {
		return fmt.Errorf("primary_source must not be empty")
	}
	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	return nil
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GetPrimarySource returns the primary source ref, device 0 by default.
func (c *Config) GetPrimarySource() string { return stringOr(c.PrimarySource, "0") }

// GetSecondarySource returns the secondary source ref, device 1 by default.
// An explicit empty string disables the secondary source.
func (c *Config) GetSecondarySource() string { return stringOr(c.SecondarySource, "1") }

// GetMirrorPrimary reports whether primary frames are mirrored.
func (c *Config) GetMirrorPrimary() bool { return boolOr(c.MirrorPrimary, true) }

// GetFixtureDir returns the replay fixture directory.
func (c *Config) GetFixtureDir() string { return stringOr(c.FixtureDir, "fixtures") }

// GetMaxConsecutiveDrops returns the drop budget, 0 (unbounded) by default.
func (c *Config) GetMaxConsecutiveDrops() int { return intOr(c.MaxConsecutiveDrops, 0) }

// GetMaxSessionDuration parses MaxSessionDuration, 0 (unbounded) by default.
func (c *Config) GetMaxSessionDuration() time.Duration {
	if c.MaxSessionDuration == nil || *c.MaxSessionDuration == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.MaxSessionDuration)
	if err != nil {
		return 0 // default on parse error
	}
	return d
}

// GetDBPath returns the session database path.
func (c *Config) GetDBPath() string { return stringOr(c.DBPath, "sessions.db") }

// GetListen returns the HTTP listen address.
func (c *Config) GetListen() string { return stringOr(c.Listen, ":8080") }

// GetUserID returns the default trainee id.
func (c *Config) GetUserID() string { return stringOr(c.UserID, "trainee") }

// GetLogOps reports whether the ops stream is enabled (default on).
func (c *Config) GetLogOps() bool { return boolOr(c.LogOps, true) }

// GetLogDiag reports whether the diag stream is enabled.
func (c *Config) GetLogDiag() bool { return boolOr(c.LogDiag, false) }

// GetLogTrace reports whether the per-frame trace stream is enabled.
func (c *Config) GetLogTrace() bool { return boolOr(c.LogTrace, false) }

// DropPolicy builds the session drop policy.
func (c *Config) DropPolicy() skill.DropPolicy {
	return skill.DropPolicy{
		MaxConsecutiveDrops: c.GetMaxConsecutiveDrops(),
		MaxDuration:         c.GetMaxSessionDuration(),
	}
}
