package replay

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/stabil-sim/stabil/internal/skill"
)

// SyntheticConfig controls generated fixtures.
type SyntheticConfig struct {
	Frames    int     // entries to generate
	Jitter    float64 // standard deviation of positional noise, pixels
	DropEvery int     // insert a drop entry every n frames; 0 disables
	Depth     bool    // attach z values
	Seed      int64
}

// DefaultSyntheticConfig produces a steady trainee that completes most
// modes.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Frames:    skill.CompletionThreshold * 2,
		Jitter:    1.5,
		DropEvery: 50,
		Seed:      1,
	}
}

// Synthesize walks the ideal path of mode with Gaussian jitter. Modes
// without a planar target hover around the frame centre.
func Synthesize(mode skill.ModeID, cfg SyntheticConfig) (*Fixture, error) {
	m, err := skill.LookupMode(mode)
	if err != nil {
		return nil, err
	}
	if cfg.Frames <= 0 {
		return nil, fmt.Errorf("synthetic fixture needs a positive frame count, got %d", cfg.Frames)
	}

	path := m.IdealPath(2)
	if len(path) == 0 {
		path = []r2.Vec{{X: skill.FrameWidth / 2, Y: skill.FrameHeight / 2}}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	size := 10.0
	if m.ID == skill.ModeDepthDrill {
		size = 25
	}

	f := &Fixture{Name: string(mode)}
	for i := 0; i < cfg.Frames; i++ {
		if cfg.DropEvery > 0 && i > 0 && i%cfg.DropEvery == 0 {
			f.Entries = append(f.Entries, Entry{Drop: true})
			continue
		}
		p := path[i%len(path)]
		s := &Sample{
			X:    clampInt(p.X+rng.NormFloat64()*cfg.Jitter, skill.FrameWidth-1),
			Y:    clampInt(p.Y+rng.NormFloat64()*cfg.Jitter, skill.FrameHeight-1),
			Size: math.Max(0, size+rng.NormFloat64()*cfg.Jitter/2),
			Area: math.Max(0, 500+rng.NormFloat64()*cfg.Jitter*20),
		}
		if cfg.Depth {
			z := clampInt(100+rng.NormFloat64()*cfg.Jitter, skill.FrameWidth-1)
			s.Z = &z
		}
		f.Entries = append(f.Entries, Entry{Sample: s})
	}
	return f, nil
}

func clampInt(v float64, hi int) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > hi {
		return hi
	}
	return n
}
