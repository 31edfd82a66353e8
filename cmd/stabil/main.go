// Command stabil runs the motor-skill assessment service: the HTTP API and
// dashboards, one-off local sessions, remote session control, fixture export
// and schema migrations.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/version"
)

var (
	configPath = flag.String("config", "", "Config file (default "+defaultConfigHint+")")
	devMode    = flag.Bool("dev", false, "Replay synthesized fixtures instead of opening cameras")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "Session database path (overrides config)")
	userID     = flag.String("user", "", "Default trainee id (overrides config)")
)

const defaultConfigHint = "config/stabil.json if present"

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	command := "serve"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	if err := dispatch(command, args, os.Stdout); err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func dispatch(command string, args []string, out io.Writer) error {
	switch command {
	case "serve":
		return runServe(args)
	case "run":
		return runSession(args, out)
	case "session":
		return runRemote(args, out)
	case "fixtures":
		return runFixtures(args, out)
	case "migrate":
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return db.RunMigrateCommand(args, cfg.GetDBPath(), out)
	case "version":
		fmt.Fprintln(out, version.Current())
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `stabil - motor-skill session assessment

Usage: stabil [global flags] <command> [options]

Commands:
  serve      Serve the HTTP API and dashboards (default)
  run        Run one session locally and print the result as JSON
  session    Control a running server: start, status, cancel, progress
  fixtures   Export a synthesized replay fixture
  migrate    Manage the session database schema
  version    Show version information
  help       Show this help message

Global flags:
`)
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
}
