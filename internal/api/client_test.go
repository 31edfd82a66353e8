package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stabil-sim/stabil/internal/coach"
	"github.com/stabil-sim/stabil/internal/httputil"
	"github.com/stabil-sim/stabil/internal/skill"
)

func TestClientRequests(t *testing.T) {
	t.Parallel()

	mock := httputil.NewMockHTTPClient().
		AddResponse(http.StatusAccepted, `{"status":"started"}`).
		AddResponse(http.StatusOK, `{"active":true,"user_id":"alice","snapshot":{"mode":"line","phase":"running","progress":{"counter":12,"threshold":180},"frames":20,"dropped_frames":1,"accepted":15}}`).
		AddResponse(http.StatusAccepted, `{"status":"cancelling"}`).
		AddResponse(http.StatusOK, `{"sessions":2,"average_psi":81.5,"recommendation":{"recommended_mode":"line","focus_metric":"Consistency","goal":"Build baseline stability (5 sessions)","trend":"Collecting Data"},"predictions":[]}`)
	c := &Client{BaseURL: "http://bench:8080", HTTP: mock}

	require.NoError(t, c.Start(skill.ModeLine, "alice"))
	st, err := c.Status()
	require.NoError(t, err)
	require.NoError(t, c.Cancel())
	prog, err := c.Progress("alice smith")
	require.NoError(t, err)

	assert.True(t, st.Active)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 12, st.Snapshot.Progress.Counter)
	assert.Equal(t, 1, st.Snapshot.Dropped)
	assert.Equal(t, coach.TrendCollecting, prog.Recommendation.Trend)

	req, body := mock.Request(0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://bench:8080/api/sessions", req.URL.String())
	assert.JSONEq(t, `{"mode":"line","user_id":"alice"}`, body)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	req, _ = mock.Request(2)
	assert.Equal(t, http.MethodDelete, req.Method)
	req, _ = mock.Request(3)
	assert.Equal(t, "/api/progress", req.URL.Path)
	assert.Equal(t, "alice smith", req.URL.Query().Get("user_id"))
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	mock := httputil.NewMockHTTPClient().
		AddResponse(http.StatusConflict, `{"error":"a session is already running"}`).
		AddResponse(http.StatusBadGateway, "upstream down\n").
		AddErrorResponse(errors.New("connection refused")).
		AddResponse(http.StatusOK, `not json`)
	c := &Client{BaseURL: "http://bench", HTTP: mock}

	var se *StatusError
	err := c.Start(skill.ModeCircle, "")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "a session is already running", se.Message)

	err = c.Cancel()
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream down", se.Message)

	_, err = c.Status()
	assert.ErrorContains(t, err, "connection refused")

	_, err = c.Status()
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestNewClientTrimsSlash(t *testing.T) {
	t.Parallel()

	c := NewClient("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.NotNil(t, c.HTTP)
}
