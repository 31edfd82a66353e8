// Package api serves the session HTTP surface: starting and cancelling
// sessions, session history, heatmap data, progress coaching and the
// dashboard pages.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/httputil"
	"github.com/stabil-sim/stabil/internal/monitoring"
	"github.com/stabil-sim/stabil/internal/skill"
	"github.com/stabil-sim/stabil/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultHistoryLimit caps list and chart queries without an explicit limit.
const DefaultHistoryLimit = 200

// ForecastSessions is the number of sessions /api/progress predicts ahead.
const ForecastSessions = 5

type Server struct {
	manager     *Manager
	store       Store
	defaultUser string
}

func NewServer(manager *Manager, store Store, defaultUser string) *Server {
	return &Server{
		manager:     manager,
		store:       store,
		defaultUser: defaultUser,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.sessions)
	mux.HandleFunc("/api/sessions/current", s.currentSession)
	mux.HandleFunc("/api/sessions/{id}", s.getSession)
	mux.HandleFunc("/api/heatmap", s.heatmapData)
	mux.HandleFunc("/api/progress", s.progress)
	mux.HandleFunc("/api/modes", s.listModes)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/dashboard", s.dashboardPage)
	mux.HandleFunc("/replay", s.replayPage)
	return mux
}

// userID returns the user_id query parameter or the server default.
func (s *Server) userID(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return s.defaultUser
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.startSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

type startRequest struct {
	Mode   string `json:"mode"`
	UserID string `json:"user_id,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	mode, err := skill.ParseModeID(req.Mode)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	user := req.UserID
	if user == "" {
		user = s.defaultUser
	}

	if err := s.manager.Start(user, mode); err != nil {
		switch {
		case errors.Is(err, ErrBusy):
			httputil.Conflict(w, err.Error())
		case errors.Is(err, skill.ErrUnknownMode):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.InternalServerError(w, err.Error())
		}
		return
	}
	httputil.Accepted(w, map[string]string{
		"status":  "started",
		"mode":    string(mode),
		"user_id": user,
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := s.store.ListSessions(s.userID(r), limit)
	if err != nil {
		monitoring.Logf("failed to list sessions: %v", err)
		httputil.InternalServerError(w, "failed to list sessions")
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.manager.Status())
	case http.MethodDelete:
		if err := s.manager.Cancel(); err != nil {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.Accepted(w, map[string]string{"status": "cancelling"})
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sess, err := s.store.GetSession(r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "session not found")
		return
	}
	if err != nil {
		monitoring.Logf("failed to load session: %v", err)
		httputil.InternalServerError(w, "failed to load session")
		return
	}
	res, err := sess.Result()
	if err != nil {
		logDecodeError(err)
		fallback := resultWithoutTrajectory(sess)
		res = &fallback
	}
	httputil.WriteJSONOK(w, res)
}

// resultWithoutTrajectory rebuilds a result whose stored trajectory could
// not be decoded.
func resultWithoutTrajectory(sess *db.Session) skill.SessionResult {
	clean := *sess
	clean.RawTrajectory = "[]"
	res, _ := clean.Result()
	return *res
}

// trajectory decodes a session's trajectory, substituting an empty one when
// the stored text is malformed.
func trajectory(sess *db.Session) []skill.TrajectoryPoint {
	pts, err := sess.Trajectory()
	if err != nil {
		logDecodeError(err)
		return []skill.TrajectoryPoint{}
	}
	return pts
}

func logDecodeError(err error) {
	var de *db.DecodeError
	if errors.As(err, &de) {
		monitoring.Logf("session %s: stored trajectory unreadable (%s): %v", de.SessionID, de.Kind, de.Err)
		return
	}
	monitoring.Logf("stored trajectory unreadable: %v", err)
}

func (s *Server) listModes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, skill.Modes())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
