package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/stabil-sim/stabil/internal/coach"
	"github.com/stabil-sim/stabil/internal/config"
	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/skill"
)

// runReport is the JSON printed by `stabil run`.
type runReport struct {
	Result   *skill.SessionResult `json:"result"`
	Coaching coach.Report         `json:"coaching"`
}

func runSession(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	mode := fs.String("mode", string(skill.ModeLine), "Exercise mode")
	save := fs.Bool("save", false, "Store the result in the session database")
	timeout := fs.Duration("timeout", 0, "Cancel the session after this long (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	configureLogs(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	return runOnce(ctx, cfg, *devMode, skill.ModeID(*mode), *save, out)
}

func runOnce(ctx context.Context, cfg *config.Config, dev bool, mode skill.ModeID, save bool, out io.Writer) error {
	env, err := newEnvironment(cfg, dev)
	if err != nil {
		return err
	}
	primary, secondary := env.sources(mode)
	res, err := env.runner.Run(ctx, skill.SessionRequest{Mode: mode, Primary: primary, Secondary: secondary})
	if err != nil {
		return err
	}

	if save {
		store, err := db.NewDB(cfg.GetDBPath())
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
		defer store.Close()
		if err := store.SaveSession(cfg.GetUserID(), res); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(runReport{Result: res, Coaching: coach.Analyze(coach.FromResult(res))})
}
