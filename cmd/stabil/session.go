package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/stabil-sim/stabil/internal/api"
	"github.com/stabil-sim/stabil/internal/skill"
	"github.com/stabil-sim/stabil/internal/timeutil"
)

// pollInterval is how often watch polls the server.
const pollInterval = 500 * time.Millisecond

// remoteSession is the part of api.Client used by `stabil session`.
type remoteSession interface {
	Start(mode skill.ModeID, userID string) error
	Status() (api.Status, error)
	Cancel() error
}

func runRemote(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "Server base URL")
	mode := fs.String("mode", string(skill.ModeLine), "Exercise mode for start")
	user := fs.String("user", "", "Trainee id (default: server default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: stabil session [-server URL] start|status|watch|cancel|progress")
	}
	c := api.NewClient(*server)

	switch action := fs.Arg(0); action {
	case "progress":
		p, err := c.Progress(*user)
		if err != nil {
			return err
		}
		return writeJSON(out, p)
	default:
		return remoteAction(c, action, skill.ModeID(*mode), *user, timeutil.RealClock{}, out)
	}
}

func remoteAction(c remoteSession, action string, mode skill.ModeID, user string, clock timeutil.Clock, out io.Writer) error {
	switch action {
	case "start":
		if err := c.Start(mode, user); err != nil {
			return err
		}
		fmt.Fprintf(out, "started %s session\n", mode)
		return nil
	case "status":
		st, err := c.Status()
		if err != nil {
			return err
		}
		return writeJSON(out, st)
	case "cancel":
		if err := c.Cancel(); err != nil {
			return err
		}
		fmt.Fprintln(out, "cancellation requested")
		return nil
	case "watch":
		return watch(c, clock, out)
	default:
		return fmt.Errorf("unknown session action %q", action)
	}
}

// watch prints progress until the running session finishes.
func watch(c remoteSession, clock timeutil.Clock, out io.Writer) error {
	last := -1
	for {
		st, err := c.Status()
		if err != nil {
			return err
		}
		if !st.Active {
			if st.Last == nil {
				fmt.Fprintln(out, "no session")
				return nil
			}
			r := st.Last.Result
			fmt.Fprintf(out, "%s: psi=%.2f tier=%s\n", r.Outcome, r.PSI, r.SkillTier)
			return nil
		}
		if s := st.Snapshot; s != nil && s.Progress.Counter != last {
			last = s.Progress.Counter
			fmt.Fprintf(out, "%s %d/%d frames=%d dropped=%d\n", s.Mode, s.Progress.Counter, s.Progress.Threshold, s.Frames, s.Dropped)
		}
		clock.Sleep(pollInterval)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var _ remoteSession = (*api.Client)(nil)
