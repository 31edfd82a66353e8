package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/replay"
	"github.com/stabil-sim/stabil/internal/security"
	"github.com/stabil-sim/stabil/internal/skill"
)

func runFixtures(args []string, out io.Writer) error {
	def := replay.DefaultSyntheticConfig()
	fs := flag.NewFlagSet("fixtures", flag.ContinueOnError)
	mode := fs.String("mode", string(skill.ModeLine), "Exercise mode to synthesize")
	frames := fs.Int("frames", def.Frames, "Number of frames")
	jitter := fs.Float64("jitter", def.Jitter, "Positional jitter (px, std dev)")
	dropEvery := fs.Int("drop-every", def.DropEvery, "Insert a dropped frame every N frames (0 = never)")
	depth := fs.Bool("depth", false, "Include secondary depth readings")
	seed := fs.Int64("seed", def.Seed, "Random seed")
	output := fs.String("out", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := replay.SyntheticConfig{Frames: *frames, Jitter: *jitter, DropEvery: *dropEvery, Depth: *depth, Seed: *seed}
	return exportFixture(osFS, skill.ModeID(*mode), cfg, *output, out)
}

// exportFixture writes a synthesized fixture to path on fsys, or to out when
// path is empty.
func exportFixture(fsys fsutil.FileSystem, mode skill.ModeID, cfg replay.SyntheticConfig, path string, out io.Writer) error {
	f, err := replay.Synthesize(mode, cfg)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := f.WriteTo(out)
		return err
	}

	if err := security.ValidateOutputPath(path); err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fixture file: %w", err)
	}
	n, err := f.WriteTo(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	fmt.Fprintf(out, "wrote %d entries (%d bytes) to %s\n", len(f.Entries), n, path)
	return nil
}
