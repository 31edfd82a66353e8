package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stabil-sim/stabil/internal/coach"
	"github.com/stabil-sim/stabil/internal/httputil"
	"github.com/stabil-sim/stabil/internal/skill"
)

// Client talks to a running stabil server.
type Client struct {
	BaseURL string
	HTTP    httputil.HTTPClient
}

// NewClient returns a client for baseURL using http.DefaultClient.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httputil.NewStandardClient(nil)}
}

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) do(method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Start asks the server to start a session.
func (c *Client) Start(mode skill.ModeID, userID string) error {
	return c.do(http.MethodPost, "/api/sessions", startRequest{Mode: string(mode), UserID: userID}, nil)
}

// Status fetches the current session status.
func (c *Client) Status() (Status, error) {
	var st Status
	err := c.do(http.MethodGet, "/api/sessions/current", nil, &st)
	return st, err
}

// Cancel raises the cancellation signal of the running session.
func (c *Client) Cancel() error {
	return c.do(http.MethodDelete, "/api/sessions/current", nil, nil)
}

// Progress fetches the coaching summary for userID.
func (c *Client) Progress(userID string) (coach.Progress, error) {
	var p coach.Progress
	err := c.do(http.MethodGet, "/api/progress?user_id="+url.QueryEscape(userID), nil, &p)
	return p, err
}
