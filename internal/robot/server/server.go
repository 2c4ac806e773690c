// Package server is the robot's HTTP surface: health checks, metrics and a small
// control API for switching robot modes and pausing scripts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	httpmw "github.com/jcweaver997/Kiwi/internal/pkg/middleware/http"
	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/options"
)

// ErrInvalidMode is returned by Robot.SetMode for an unknown mode name.
var ErrInvalidMode = errors.New("invalid robot mode")

// Robot is what the server controls.
type Robot interface {
	Ready() bool
	Mode() string
	SetMode(ctx context.Context, mode string) error
	Pause()
	Resume()
	RunChecklist() error
	Status() any
}

type Server struct {
	server *http.Server
	robot  Robot
}

const apiPrefix = "/api/v1"

func NewServer(opts *options.HttpOptions, robot Robot) *Server {
	s := &Server{robot: robot}

	r := mux.NewRouter()
	r.Use(httpmw.Logging, httpmw.Timeout(opts.Timeout))

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API routes sit on the root router so a wrong method is answered with
	// 405; a PathPrefix subrouter reports it as 404.
	r.HandleFunc(apiPrefix+"/state", s.getState).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/mode/{mode}", s.putMode).Methods(http.MethodPut)
	r.HandleFunc(apiPrefix+"/pause", s.pause).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/resume", s.resume).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/checklist", s.checklist).Methods(http.MethodPost)

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.robot.Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.robot.Status())
}

func (s *Server) putMode(w http.ResponseWriter, r *http.Request) {
	mode := mux.Vars(r)["mode"]
	if err := s.robot.SetMode(r.Context(), mode); err != nil {
		code := http.StatusConflict
		if errors.Is(err, ErrInvalidMode) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": s.robot.Mode()})
}

func (s *Server) pause(w http.ResponseWriter, _ *http.Request) {
	s.robot.Pause()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) resume(w http.ResponseWriter, _ *http.Request) {
	s.robot.Resume()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (s *Server) checklist(w http.ResponseWriter, _ *http.Request) {
	if err := s.robot.RunChecklist(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"checklist": "started"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
	}
}
