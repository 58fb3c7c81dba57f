package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Startup step names, in order
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepSessions   = "Session store"
	StepServices   = "Initializing services"
	StepServer     = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

// StartupStep is one stage of initialization
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type startupView struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// NewStartupStatus creates a status with every step pending
func NewStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepSessions, StepServices, StepServer}
	steps := make([]StartupStep, len(names))
	for i, name := range names {
		steps[i] = StartupStep{Name: name}
	}
	return &StartupStatus{current: "Initializing...", steps: steps}
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
	slog.Info("startup", "step", step)
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	s.progress = (completed * 100) / len(s.steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepServer
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *StartupStatus) view() startupView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return startupView{
		Ready:    s.ready,
		Current:  s.current,
		Progress: s.progress,
		Steps:    append([]StartupStep(nil), s.steps...),
	}
}

// Pinger checks a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// PingContext calls f
func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	status  *StartupStatus
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler. checks are pinged by Ready.
func NewHealthHandler(status *StartupStatus, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{status: status, checks: checks, timeout: 2 * time.Second}
}

// Register mounts the liveness and readiness probes
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Live)
	mux.HandleFunc("GET /readyz", h.Ready)
}

// Live reports that the process is serving requests, with startup progress
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status.view())
}

// Ready answers 200 once startup finished and every dependency answers
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.status.IsReady() {
		respondJSON(w, http.StatusServiceUnavailable, h.status.view())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false, "failures": failures})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ready": true})
}
