package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcweaver997/Kiwi/pkg/options"
)

type fakeRobot struct {
	ready     bool
	mode      string
	paused    bool
	checklist error
}

func (f *fakeRobot) Ready() bool  { return f.ready }
func (f *fakeRobot) Mode() string { return f.mode }
func (f *fakeRobot) Pause()       { f.paused = true }
func (f *fakeRobot) Resume()      { f.paused = false }
func (f *fakeRobot) Status() any  { return map[string]any{"mode": f.mode, "paused": f.paused} }

func (f *fakeRobot) RunChecklist() error { return f.checklist }

func (f *fakeRobot) SetMode(_ context.Context, mode string) error {
	if mode != "autonomous" && mode != "disabled" {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	f.mode = mode
	return nil
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	robot := &fakeRobot{}
	h := NewServer(options.NewHttpOptions(), robot).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/readyz").Code)
	robot.ready = true
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz").Code)

	rec := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestModeAndPause(t *testing.T) {
	robot := &fakeRobot{mode: "disabled"}
	h := NewServer(options.NewHttpOptions(), robot).Handler()

	rec := do(t, h, http.MethodPut, "/api/v1/mode/autonomous")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "autonomous", robot.mode)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/v1/mode/flying").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/mode/autonomous").Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/pause").Code)
	assert.True(t, robot.paused)

	rec = do(t, h, http.MethodGet, "/api/v1/state")
	var state map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, true, state["paused"])

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/resume").Code)
	assert.False(t, robot.paused)
}

func TestWrongMethodAndUnknownPath(t *testing.T) {
	h := NewServer(options.NewHttpOptions(), &fakeRobot{mode: "disabled"}).Handler()

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/pause").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/v1/state").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/missing").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v2/state").Code)
}

func TestChecklist(t *testing.T) {
	robot := &fakeRobot{}
	h := NewServer(options.NewHttpOptions(), robot).Handler()
	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/v1/checklist").Code)

	robot.checklist = errors.New("busy")
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/v1/checklist").Code)
}
