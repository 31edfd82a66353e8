package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stabil-sim/stabil/internal/api"
	"github.com/stabil-sim/stabil/internal/capture"
	"github.com/stabil-sim/stabil/internal/config"
	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/replay"
	"github.com/stabil-sim/stabil/internal/skill"
)

// devFrameInterval paces dev replays at camera rate.
var devFrameInterval = 33 * time.Millisecond

var osFS fsutil.FileSystem = fsutil.OSFileSystem{}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(osFS, *configPath)
	} else {
		cfg, err = config.LoadOptional(osFS, config.DefaultConfigPath)
	}
	if err != nil {
		return nil, err
	}
	override(&cfg.Listen, *listen)
	override(&cfg.DBPath, *dbPath)
	override(&cfg.UserID, *userID)
	return cfg, nil
}

func override(field **string, v string) {
	if v != "" {
		*field = &v
	}
}

// configureLogs routes the package log streams to stderr per the config.
func configureLogs(cfg *config.Config) {
	pick := func(on bool) io.Writer {
		if on {
			return os.Stderr
		}
		return nil
	}
	ops, diag, trace := pick(cfg.GetLogOps()), pick(cfg.GetLogDiag()), pick(cfg.GetLogTrace())
	skill.SetLogWriters(skill.LogWriters{Ops: ops, Diag: diag, Trace: trace})
	capture.SetLogWriters(capture.LogWriters{Ops: ops, Diag: diag, Trace: trace})
}

// sourceOpener routes replay refs to fixtures and everything else to
// capture devices.
type sourceOpener struct {
	capture skill.SourceOpener
	replay  *replay.Opener
}

func (o sourceOpener) Open(ref string) (skill.FrameSource, error) {
	if replay.IsRef(ref) {
		return o.replay.Open(ref)
	}
	return o.capture.Open(ref)
}

// frameLocator picks the locator matching the frame's origin.
type frameLocator struct {
	blob   skill.Locator
	replay skill.Locator
}

func (l frameLocator) Locate(f skill.Frame) ([]skill.Candidate, error) {
	if _, ok := f.(*replay.Frame); ok {
		return l.replay.Locate(f)
	}
	return l.blob.Locate(f)
}

// environment is everything needed to run sessions.
type environment struct {
	runner  skill.Runner
	sources api.SourceResolver
}

func newEnvironment(cfg *config.Config, dev bool) (*environment, error) {
	fixtures := &replay.Opener{FS: osFS, Dir: cfg.GetFixtureDir()}
	primary, secondary := cfg.GetPrimarySource(), cfg.GetSecondarySource()
	sources := api.FixedSources(primary, secondary)

	if dev {
		fixtures.FrameInterval = devFrameInterval
		synth := replay.DefaultSyntheticConfig()
		synth.Depth = true
		for _, mode := range skill.Modes() {
			f, err := replay.Synthesize(mode, synth)
			if err != nil {
				return nil, fmt.Errorf("synthesize %s fixture: %w", mode, err)
			}
			fixtures.Register(f)
		}
		sources = func(mode skill.ModeID) (string, string) {
			return replay.PrimaryRef(string(mode)), replay.DepthRef(string(mode))
		}
	}

	mirror := ""
	if cfg.GetMirrorPrimary() {
		mirror = primary
	}
	policy := cfg.DropPolicy()
	if dev && policy.MaxConsecutiveDrops == 0 {
		// Replays end by exhaustion, which surfaces as a run of drops.
		policy.MaxConsecutiveDrops = 3
	}
	return &environment{
		runner: skill.Runner{
			Opener:  sourceOpener{capture: capture.Opener{MirrorRef: mirror}, replay: fixtures},
			Locator: frameLocator{blob: capture.BlobLocator{}, replay: replay.Locator{}},
			Policy:  policy,
		},
		sources: sources,
	}, nil
}
