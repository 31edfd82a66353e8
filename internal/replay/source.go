package replay

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stabil-sim/stabil/internal/fsutil"
	"github.com/stabil-sim/stabil/internal/skill"
	"github.com/stabil-sim/stabil/internal/timeutil"
)

var (
	// ErrDropped is returned for "drop" entries.
	ErrDropped = errors.New("replay frame dropped")
	// ErrExhausted is returned once every entry has been served.
	ErrExhausted = errors.New("replay fixture exhausted")
	// ErrUnknownFixture is returned when a ref names no fixture.
	ErrUnknownFixture = errors.New("unknown replay fixture")
)

// Ref prefixes and suffixes understood by Opener.
const (
	Scheme      = "replay:"
	DepthSuffix = "#depth"
)

// PrimaryRef returns the ref that replays name as a primary feed.
func PrimaryRef(name string) string { return Scheme + name }

// DepthRef returns the ref that replays the z values of name as a secondary
// feed.
func DepthRef(name string) string { return Scheme + name + DepthSuffix }

// IsRef reports whether ref is a replay ref.
func IsRef(ref string) bool { return strings.HasPrefix(ref, Scheme) }

// Frame carries the candidates recorded for one entry.
type Frame struct {
	Candidates []skill.Candidate
}

// Close is a no-op.
func (*Frame) Close() error { return nil }

// Locator returns the candidates stored in replay frames.
type Locator struct{}

// Locate implements skill.Locator.
func (Locator) Locate(f skill.Frame) ([]skill.Candidate, error) {
	rf, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("replay: unexpected frame type %T", f)
	}
	return rf.Candidates, nil
}

// Opener resolves replay refs against registered fixtures first, then
// against Dir/<name>.jsonl on FS.
type Opener struct {
	FS  fsutil.FileSystem
	Dir string

	// FrameInterval paces primary feeds; zero serves frames back to back.
	FrameInterval time.Duration
	// Clock defaults to the wall clock.
	Clock timeutil.Clock

	mu       sync.RWMutex
	fixtures map[string]*Fixture
}

// Register makes f available under its name.
func (o *Opener) Register(f *Fixture) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fixtures == nil {
		o.fixtures = make(map[string]*Fixture)
	}
	o.fixtures[f.Name] = f
}

// Open implements skill.SourceOpener.
func (o *Opener) Open(ref string) (skill.FrameSource, error) {
	name := strings.TrimPrefix(ref, Scheme)
	depth := strings.HasSuffix(name, DepthSuffix)
	name = strings.TrimSuffix(name, DepthSuffix)

	f, err := o.lookup(name)
	if err != nil {
		return nil, err
	}
	if depth {
		return newDepthSource(f), nil
	}
	src := &Source{entries: f.Entries}
	if o.FrameInterval > 0 {
		clock := o.Clock
		if clock == nil {
			clock = timeutil.RealClock{}
		}
		src.pace = func() { clock.Sleep(o.FrameInterval) }
	}
	return src, nil
}

func (o *Opener) lookup(name string) (*Fixture, error) {
	o.mu.RLock()
	f, ok := o.fixtures[name]
	o.mu.RUnlock()
	if ok {
		return f, nil
	}
	if o.FS == nil || name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixture, name)
	}
	path := filepath.Join(o.Dir, name+".jsonl")
	if !o.FS.Exists(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixture, name)
	}
	return Load(o.FS, path)
}

// Source serves fixture entries in order.
type Source struct {
	entries []Entry
	pos     int
	closed  bool
	pace    func()
}

// Read implements skill.FrameSource.
func (s *Source) Read() (skill.Frame, error) {
	if s.closed || s.pos >= len(s.entries) {
		return nil, ErrExhausted
	}
	if s.pace != nil {
		s.pace()
	}
	e := s.entries[s.pos]
	s.pos++
	if e.Drop {
		return nil, ErrDropped
	}
	if e.Sample == nil {
		return &Frame{}, nil
	}
	c := e.Sample
	return &Frame{Candidates: []skill.Candidate{{X: c.X, Y: c.Y, Size: c.Size, Area: c.Area}}}, nil
}

// Close implements skill.FrameSource.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

// newDepthSource replays the z values of f as candidates whose X is the
// depth. Drop entries are skipped because the controller does not read the
// secondary feed when the primary read fails.
func newDepthSource(f *Fixture) *Source {
	var entries []Entry
	for _, e := range f.Entries {
		if e.Drop {
			continue
		}
		if e.Sample == nil || e.Sample.Z == nil {
			entries = append(entries, Entry{})
			continue
		}
		entries = append(entries, Entry{Sample: &Sample{X: *e.Sample.Z, Size: e.Sample.Size, Area: e.Sample.Area}})
	}
	return &Source{entries: entries}
}
