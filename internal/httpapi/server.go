// Package httpapi serves the current CI status over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/s22625/ciwatch/internal/model"
)

// Controller applies user actions to the running pipeline.
type Controller interface {
	Ignore(ctx context.Context, name string) error
	Unignore(ctx context.Context, name string) error
	Refresh()
}

// Logger is the logging capability the server needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Server is both a jobs view and a status view; it keeps the latest of each
// and serves them as JSON.
type Server struct {
	ctrl   Controller
	logger Logger

	mu       sync.RWMutex
	observed bool
	status   model.JobStatus
	message  string
	jobs     []model.JobModel
	lastPoll time.Time
	pollErr  string
}

// New creates a server that forwards ignore requests to ctrl.
func New(ctrl Controller, logger Logger) *Server {
	return &Server{
		ctrl:   ctrl,
		logger: logger,
		status: model.JobStatusUnknown,
	}
}

// SetJobs implements jobs.View.
func (s *Server) SetJobs(models []model.JobModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append([]model.JobModel(nil), models...)
}

// SetStatus implements status.View.
func (s *Server) SetStatus(status model.JobStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = true
	s.status = status
	s.message = message
}

// SetPollResult records the outcome of the last poll.
func (s *Server) SetPollResult(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPoll = at
	s.pollErr = ""
	if err != nil {
		s.pollErr = err.Error()
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/jobs", s.getJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{name}/ignore", s.ignore).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{name}/ignore", s.unignore).Methods(http.MethodDelete)
	r.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)

	r.Use(s.recovery)
	return r
}

type statusResponse struct {
	Observed  bool   `json:"observed"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	LastPoll  string `json:"last_poll,omitempty"`
	PollError string `json:"poll_error,omitempty"`
}

type jobResponse struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Ignored bool   `json:"ignored"`
}

type okResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("error encoding JSON response: %v", err)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := statusResponse{
		Observed:  s.observed,
		Status:    string(s.status),
		Message:   s.message,
		PollError: s.pollErr,
	}
	if !s.lastPoll.IsZero() {
		resp.LastPoll = s.lastPoll.Format(time.RFC3339)
	}
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := make([]jobResponse, 0, len(s.jobs))
	for _, m := range s.jobs {
		resp = append(resp, jobResponse{Name: m.Job.Name, Status: string(m.Job.Status), Ignored: m.Ignored})
	}
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ignore(w http.ResponseWriter, r *http.Request) {
	s.applyIgnore(w, r, s.ctrl.Ignore)
}

func (s *Server) unignore(w http.ResponseWriter, r *http.Request) {
	s.applyIgnore(w, r, s.ctrl.Unignore)
}

func (s *Server) applyIgnore(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) error) {
	name := mux.Vars(r)["name"]
	if err := apply(r.Context(), name); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, okResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Refresh()
	s.writeJSON(w, http.StatusAccepted, okResponse{OK: true})
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				s.writeJSON(w, http.StatusInternalServerError, okResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
