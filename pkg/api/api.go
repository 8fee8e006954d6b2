// Package api exposes a small JSON-over-HTTP API for confkitd.
// It listens on a Unix domain socket (path comes from config) and delegates
// all work to internal/engine.Engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/internal/buildinfo"
	"github.com/lc/confkit/internal/engine"
	"github.com/lc/confkit/internal/log"
	"github.com/lc/confkit/internal/socket"
	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

// BindRequest asks the daemon to add or replace a binding.
type BindRequest struct {
	Spec binding.Spec `json:"spec"`
}

// BindResponse carries the ID of the new binding.
type BindResponse struct {
	ID string `json:"id"`
}

// UnbindRequest removes a binding by ID or name.
type UnbindRequest struct {
	Ref string `json:"ref"`
}

// TextResponse is the current text of a binding.
type TextResponse struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

// DocumentResponse is the flattened document of a binding.
type DocumentResponse struct {
	Name    string            `json:"name"`
	Format  string            `json:"format"`
	Entries map[string]string `json:"entries"`
}

// StatusResponse represents the server status response.
type StatusResponse struct {
	Bindings int           `json:"bindings"`
	Uptime   time.Duration `json:"uptime"`
	Version  string        `json:"version"`
	Commit   string        `json:"commit"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// -------- server -----------------------------------------------------

// Server handles HTTP API requests over a Unix domain socket.
type Server struct {
	eng   *engine.Engine
	start time.Time
	mux   *http.ServeMux
	srv   *http.Server
}

// New creates a new API server with the given engine.
// It sets up the HTTP routes and returns a server ready to listen.
func New(eng *engine.Engine) *Server {
	s := &Server{
		eng:   eng,
		start: time.Now(),
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/bind", s.handleBind)
	s.mux.HandleFunc("/v1/unbind", s.handleUnbind)
	s.mux.HandleFunc("/v1/bindings", s.handleBindings)
	s.mux.HandleFunc("/v1/text", s.handleText)
	s.mux.HandleFunc("/v1/document", s.handleDocument)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving the API routes.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the Unix-socket HTTP server.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	log.Info("api: serving", "socket", path)
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// handleBind adds or replaces a binding.
func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req BindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.eng.Bind(req.Spec)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, BindResponse{ID: b.ID})
}

// handleUnbind removes a binding.
func (s *Server) handleUnbind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req UnbindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Ref) == "" {
		writeError(w, http.StatusBadRequest, errors.New("ref required"))
		return
	}
	if _, err := s.eng.Unbind(req.Ref); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBindings returns the current bindings.
func (s *Server) handleBindings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	snap := s.eng.Snapshot()
	out := make([]binding.Info, 0, len(snap))
	for i := range snap {
		out = append(out, snap[i].Info())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleText returns the text of the binding named by ?name=.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	b, ok := s.lookup(w, r)
	if !ok {
		return
	}
	text, err := s.eng.Text(b.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Name: b.Spec.Name, Format: b.Format, Text: text})
}

// handleDocument returns the flattened document of the binding named by ?name=.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	b, ok := s.lookup(w, r)
	if !ok {
		return
	}
	entries, err := s.eng.Document(b.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Name: b.Spec.Name, Format: b.Format, Entries: entries})
}

// handleStatus returns the server status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Bindings: s.eng.Len(),
		Uptime:   time.Since(s.start),
		Version:  buildinfo.Version,
		Commit:   buildinfo.Commit,
	})
}

// lookup validates a GET request carrying ?name= and resolves the binding.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*binding.Binding, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return nil, false
	}
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("name required"))
		return nil, false
	}
	b, err := s.eng.Get(name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return b, true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, binding.ErrInvalidSpec):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotDocument), errors.Is(err, content.ErrMalformed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resource.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("api: error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Warn("api: request failed", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
