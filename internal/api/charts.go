package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/stabil-sim/stabil/internal/coach"
	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/heatmap"
	"github.com/stabil-sim/stabil/internal/httputil"
	"github.com/stabil-sim/stabil/internal/monitoring"
	"github.com/stabil-sim/stabil/internal/skill"
)

// history returns the coaching metrics of a user's sessions, oldest first.
// Sessions that never ran (camera errors) carry no metrics and are skipped.
func (s *Server) history(user string) ([]coach.Metrics, []db.Session, error) {
	sessions, err := s.store.ListSessions(user, DefaultHistoryLimit)
	if err != nil {
		return nil, nil, err
	}
	kept := sessions[:0]
	metrics := make([]coach.Metrics, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Outcome == skill.PhaseError {
			continue
		}
		kept = append(kept, sess)
		metrics = append(metrics, coach.Metrics{
			PSI:         sess.PSI,
			Tremor:      sess.Tremor,
			Error:       sess.Error,
			DepthError:  sess.DepthError,
			PressureDev: sess.PressureDev,
		})
	}
	return metrics, kept, nil
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	metrics, _, err := s.history(s.userID(r))
	if err != nil {
		monitoring.Logf("failed to load history: %v", err)
		httputil.InternalServerError(w, "failed to load history")
		return
	}
	httputil.WriteJSONOK(w, coach.Summarize(metrics, ForecastSessions))
}

// sessionFor resolves ?id= or else the user's latest session.
func (s *Server) sessionFor(r *http.Request) (*db.Session, error) {
	if id := r.URL.Query().Get("id"); id != "" {
		return s.store.GetSession(id)
	}
	return s.store.LastSession(s.userID(r))
}

type heatmapResponse struct {
	SessionID string          `json:"session_id,omitempty"`
	Mode      skill.ModeID    `json:"mode,omitempty"`
	Summary   heatmap.Summary `json:"summary"`
	Cells     []heatmap.Cell  `json:"cells"`
}

func (s *Server) classified(sess *db.Session) ([]heatmap.Cell, error) {
	ideal, err := heatmap.IdealPath(sess.Mode)
	if err != nil {
		return nil, err
	}
	return heatmap.Classify(trajectory(sess), ideal), nil
}

func (s *Server) heatmapData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sess, err := s.sessionFor(r)
	if errors.Is(err, db.ErrNotFound) {
		if r.URL.Query().Get("id") != "" {
			httputil.NotFound(w, "session not found")
			return
		}
		// Nothing recorded yet for this user.
		httputil.WriteJSONOK(w, heatmapResponse{Cells: []heatmap.Cell{}})
		return
	}
	if err != nil {
		monitoring.Logf("failed to load session: %v", err)
		httputil.InternalServerError(w, "failed to load session")
		return
	}
	cells, err := s.classified(sess)
	if err != nil {
		monitoring.Logf("session %s: %v", sess.ID, err)
		httputil.InternalServerError(w, "failed to classify session")
		return
	}
	httputil.WriteJSONOK(w, heatmapResponse{
		SessionID: sess.ID,
		Mode:      sess.Mode,
		Summary:   heatmap.Summarize(cells),
		Cells:     cells,
	})
}

func (s *Server) replayPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sess, err := s.sessionFor(r)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "no session recorded")
		return
	}
	if err != nil {
		monitoring.Logf("failed to load session: %v", err)
		httputil.InternalServerError(w, "failed to load session")
		return
	}
	ideal, err := heatmap.IdealPath(sess.Mode)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	cells := heatmap.Classify(trajectory(sess), ideal)

	var buf bytes.Buffer
	title := fmt.Sprintf("Replay %s (%s)", sess.Mode, sess.EndedAt.Format("2006-01-02 15:04"))
	if err := heatmap.RenderHTML(&buf, cells, ideal, title); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) dashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	user := s.userID(r)
	metrics, sessions, err := s.history(user)
	if err != nil {
		monitoring.Logf("failed to load history: %v", err)
		httputil.InternalServerError(w, "failed to load history")
		return
	}

	x := make([]string, len(sessions))
	for i, sess := range sessions {
		x[i] = strconv.Itoa(i+1) + " " + string(sess.Mode)
	}
	series := func(f func(coach.Metrics) float64) []opts.LineData {
		out := make([]opts.LineData, len(metrics))
		for i, m := range metrics {
			out[i] = opts.LineData{Value: f(m)}
		}
		return out
	}

	prog := coach.Summarize(metrics, ForecastSessions)
	psi := charts.NewLine()
	psi.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: heatmap.AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Performance index",
			Subtitle: fmt.Sprintf("user=%s sessions=%d avg=%.1f trend=%s", user, prog.Sessions, prog.AveragePSI, prog.Recommendation.Trend),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	psi.SetXAxis(x).
		AddSeries("psi", series(func(m coach.Metrics) float64 { return m.PSI }),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	detail := charts.NewLine()
	detail.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: heatmap.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Motion metrics"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	detail.SetXAxis(x).
		AddSeries("tremor", series(func(m coach.Metrics) float64 { return m.Tremor })).
		AddSeries("error", series(func(m coach.Metrics) float64 { return m.Error })).
		AddSeries("depth", series(func(m coach.Metrics) float64 { return m.DepthError }))

	page := components.NewPage()
	page.SetAssetsHost(heatmap.AssetsHost)
	page.AddCharts(psi, detail)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
