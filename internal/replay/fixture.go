// Package replay serves recorded or synthesised tip readings as frame sources,
// so sessions can run without cameras in dev mode and in tests.
//
// A fixture is JSON lines. Each line is a reading object
// {"x":..,"y":..,"z":..,"size":..,"area":..} (z optional), null when the
// frame was captured but nothing was located, or the string "drop" for an
// acquisition failure. Blank lines and lines starting with # are ignored.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/stabil-sim/stabil/internal/fsutil"
)

// maxFixtureBytes bounds fixture files read from disk.
const maxFixtureBytes = 16 << 20

// Sample is one located tip. Z is the side camera's pixel column, an
// integer like X and Y; fractional values are rejected on decode.
type Sample struct {
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Z    *int    `json:"z,omitempty"`
	Size float64 `json:"size"`
	Area float64 `json:"area"`
}

// Entry is one fixture line.
type Entry struct {
	Drop   bool
	Sample *Sample // nil when nothing was located
}

const dropToken = `"drop"`

// MarshalJSON encodes the entry as a fixture line.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Drop {
		return []byte(dropToken), nil
	}
	return json.Marshal(e.Sample)
}

// UnmarshalJSON decodes one fixture line.
func (e *Entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == dropToken:
		*e = Entry{Drop: true}
		return nil
	case string(b) == "null":
		*e = Entry{}
		return nil
	case len(b) > 0 && b[0] == '{':
		var s Sample
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Entry{Sample: &s}
		return nil
	}
	return fmt.Errorf("unrecognised fixture entry %s", b)
}

// Fixture is a named sequence of entries.
type Fixture struct {
	Name    string
	Entries []Entry
}

// Parse reads a fixture from r.
func Parse(name string, r io.Reader) (*Fixture, error) {
	f := &Fixture{Name: name}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("fixture %s line %d: %w", name, lineNo, err)
		}
		f.Entries = append(f.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return f, nil
}

// Load reads a fixture file through fsys. The fixture is named after the
// file without its extension.
func Load(fsys fsutil.FileSystem, path string) (*Fixture, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat fixture %s: %w", path, err)
	}
	if info.Size() > maxFixtureBytes {
		return nil, fmt.Errorf("fixture %s too large: %d bytes (max %d)", path, info.Size(), maxFixtureBytes)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, bytes.NewReader(data))
}

// WriteTo writes the fixture as JSON lines.
func (f *Fixture) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range f.Entries {
		b, err := json.Marshal(e)
		if err != nil {
			return n, err
		}
		m, err := bw.Write(append(b, '\n'))
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
