// Command heatmap-export renders a stored session's trajectory, classified
// against its mode's ideal path, as a PNG (or HTML with -html).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/heatmap"
	"github.com/stabil-sim/stabil/internal/security"
)

func main() {
	var dbPath, sessionID, userID, outPath string
	var html bool

	flag.StringVar(&dbPath, "db", "sessions.db", "path to sqlite db")
	flag.StringVar(&sessionID, "id", "", "session id (default: latest session of -user)")
	flag.StringVar(&userID, "user", "trainee", "trainee id used when -id is empty")
	flag.StringVar(&outPath, "out", "", "output file (default <session-id>.png)")
	flag.BoolVar(&html, "html", false, "write an interactive HTML page instead of PNG")
	flag.Parse()

	store, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	path, summary, err := export(store, sessionID, userID, outPath, html)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("wrote %s: good=%d caution=%d poor=%d (%.0f%% good)\n",
		path, summary.Good, summary.Caution, summary.Poor, summary.GoodShare*100)
}

func loadSession(store *db.DB, sessionID, userID string) (*db.Session, error) {
	if sessionID != "" {
		return store.GetSession(sessionID)
	}
	return store.LastSession(userID)
}

func export(store *db.DB, sessionID, userID, outPath string, html bool) (string, heatmap.Summary, error) {
	sess, err := loadSession(store, sessionID, userID)
	if err != nil {
		return "", heatmap.Summary{}, err
	}
	pts, err := sess.Trajectory()
	if err != nil {
		return "", heatmap.Summary{}, err
	}
	ideal, err := heatmap.IdealPath(sess.Mode)
	if err != nil {
		return "", heatmap.Summary{}, err
	}
	cells := heatmap.Classify(pts, ideal)

	if outPath == "" {
		ext := ".png"
		if html {
			ext = ".html"
		}
		outPath = security.SanitizeFilename(sess.ID) + ext
	}
	if err := security.ValidateOutputPath(outPath); err != nil {
		return "", heatmap.Summary{}, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", heatmap.Summary{}, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", heatmap.Summary{}, err
	}
	defer f.Close()

	title := fmt.Sprintf("%s %s", sess.Mode, sess.EndedAt.Format("2006-01-02 15:04"))
	if html {
		err = heatmap.RenderHTML(f, cells, ideal, title)
	} else {
		err = heatmap.RenderPNG(f, cells, ideal, title)
	}
	if err != nil {
		return "", heatmap.Summary{}, err
	}
	return outPath, heatmap.Summarize(cells), f.Close()
}
