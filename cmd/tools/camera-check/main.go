// Command camera-check opens the configured primary and secondary sources,
// reads one frame from each and reports the first located tip candidate.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/stabil-sim/stabil/internal/capture"
	"github.com/stabil-sim/stabil/internal/config"
	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/skill"
)

func main() {
	var configPath, primary, secondary string

	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "path to JSON config")
	flag.StringVar(&primary, "primary", "", "primary source (overrides config)")
	flag.StringVar(&secondary, "secondary", "", "secondary source (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOptional(fsutil.OSFileSystem{}, configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if primary == "" {
		primary = cfg.GetPrimarySource()
	}
	if secondary == "" {
		secondary = cfg.GetSecondarySource()
	}
	capture.SetLogWriters(capture.LogWriters{Ops: os.Stderr})

	opener := capture.Opener{}
	if cfg.GetMirrorPrimary() {
		opener.MirrorRef = primary
	}
	failed := 0
	for _, src := range []struct{ name, ref string }{
		{"primary", primary},
		{"secondary", secondary},
	} {
		if src.ref == "" {
			fmt.Printf("%-9s disabled\n", src.name)
			continue
		}
		line, ok := check(opener, capture.BlobLocator{}, src.ref)
		fmt.Printf("%-9s %s\n", src.name, line)
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// check opens ref, reads a single frame and locates candidates in it. ok is
// false when the source could not be opened or read.
func check(opener skill.SourceOpener, locator skill.Locator, ref string) (line string, ok bool) {
	src, err := opener.Open(ref)
	if err != nil {
		return fmt.Sprintf("%q: open failed: %v", ref, err), false
	}
	defer src.Close()

	frame, err := src.Read()
	if err != nil {
		return fmt.Sprintf("%q: read failed: %v", ref, err), false
	}
	defer frame.Close()

	cands, err := locator.Locate(frame)
	if err != nil {
		return fmt.Sprintf("%q: ok, locate failed: %v", ref, err), true
	}
	if len(cands) == 0 {
		return fmt.Sprintf("%q: ok, no tip in view", ref), true
	}
	c := cands[0]
	return fmt.Sprintf("%q: ok, %d candidate(s), first at (%d,%d) r=%.1f area=%.1f",
		ref, len(cands), c.X, c.Y, c.Size, c.Area), true
}
