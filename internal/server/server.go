// Package server serves test-case pages backed by live sessions, so toggles
// and filters run through the engine instead of precomputed targets.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	json "github.com/go-json-experiment/json"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcncl/jsonlens/internal/config"
	"github.com/mcncl/jsonlens/internal/discovery"
	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/formatter"
	"github.com/mcncl/jsonlens/internal/generator"
	"github.com/mcncl/jsonlens/internal/selection"
	"github.com/mcncl/jsonlens/internal/session"
	"github.com/mcncl/jsonlens/internal/visibility"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Test cases</title></head>
<body>
<h2>Test cases</h2>
<ul>
{{- range .}}
  <li><a href="/cases/{{.}}">{{.}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// maxToggleBody bounds the size of a toggle request body.
const maxToggleBody = 64 << 10

// ToggleRequest is the body of a toggle call. Scope is one of
// generator.ScopeRequest and generator.ScopeShared, as rendered into the
// checkboxes' data-scope attribute.
type ToggleRequest struct {
	Scope   string `json:"scope" validate:"required,oneof=request shared"`
	Path    string `json:"path" validate:"required"`
	Checked bool   `json:"checked"`
}

// DirectiveResponse is one visibility change sent back to the page.
type DirectiveResponse struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Visible   bool   `json:"visible"`
}

// ToggleResponse lists the directives of a toggle and the new summary of
// the toggled selector.
type ToggleResponse struct {
	Directives []DirectiveResponse `json:"directives"`
	Count      int                 `json:"count"`
	Selected   []string            `json:"selected"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server handles page and toggle requests for a fixed set of test cases.
type Server struct {
	cfg       *config.Config
	cases     map[string]discovery.TestCase
	names     []string
	sessions  *SessionStore
	generator *generator.Generator
	formatter *formatter.Formatter
	validate  *validator.Validate
	logger    *zap.Logger
}

// New creates a Server for cases. A nil logger disables logging.
func New(cfg *config.Config, cases []discovery.TestCase, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		cases:     make(map[string]discovery.TestCase, len(cases)),
		sessions:  NewSessionStore(cfg.Server.MaxSessions),
		generator: generator.NewGenerator(),
		formatter: formatter.NewFormatter(cfg.Output.Minify),
		validate:  validator.New(),
		logger:    logger,
	}
	for _, tc := range cases {
		s.cases[tc.Name] = tc
		s.names = append(s.names, tc.Name)
	}
	return s
}

// Sessions returns the server's session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /cases/{name}", s.handleCase)
	mux.HandleFunc("POST /api/sessions/{id}/toggle", s.handleToggle)
	return s.logRequests(mux)
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("Serving test cases", zap.String("addr", s.cfg.Server.Addr), zap.Int("cases", len(s.names)))

	select {
	case err := <-errCh:
		return errors.NewServerError(fmt.Sprintf("failed to serve on '%s'", s.cfg.Server.Addr), err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewServerError("failed to shut down", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.names); err != nil {
		s.logger.Error("Failed to render index", zap.Error(err))
	}
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	tc, ok := s.cases[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.NewInputError(fmt.Sprintf("no test case named '%s'", name), errors.ErrUnknownTestCase))
		return
	}

	query := r.URL.Query()
	presetName := s.cfg.DefaultPreset
	if query.Has("preset") {
		presetName = query.Get("preset")
	}
	manual := query.Get("fields")

	paths, err := session.ResolveFilter(s.cfg.Presets, presetName, manual)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	id := uuid.NewString()
	sess := session.New(id, tc.Documents, s.logger)
	sess.ApplyFilter(paths)
	for _, old := range s.sessions.Add(sess) {
		s.logger.Debug("Evicted session", zap.String("session", old))
	}

	page, err := s.generator.GeneratePage(sess, generator.Options{
		Title:        tc.Name,
		Presets:      s.cfg.Presets,
		ActivePreset: presetName,
		ManualFilter: manual,
		SessionID:    id,
		ToggleURL:    "/api/sessions/" + id + "/toggle",
		FilterAction: "/cases/" + url.PathEscape(tc.Name),
	})
	if err == nil {
		page, err = s.formatter.Format(page)
	}
	if err != nil {
		s.sessions.Delete(id)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("Opened session",
		zap.String("case", tc.Name),
		zap.String("session", id),
		zap.String("preset", presetName),
		zap.Int("paths", len(paths)),
	)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if r.ContentLength > maxToggleBody {
		s.writeError(w, http.StatusRequestEntityTooLarge, errors.NewInputError("toggle body too large", nil))
		return
	}

	var req ToggleRequest
	if err := json.UnmarshalRead(http.MaxBytesReader(w, r.Body, maxToggleBody), &req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeError(w, status, errors.NewInputError("invalid toggle body", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.NewInputError("invalid toggle body", err))
		return
	}
	path, err := fieldpath.Parse(req.Path)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var resp ToggleResponse
	found := s.sessions.With(id, func(sess *session.Session) {
		var directives []visibility.Directive
		var state *selection.State
		if req.Scope == generator.ScopeRequest {
			directives = sess.ToggleRequest(path, req.Checked)
			state = sess.RequestSelection()
		} else {
			directives = sess.ToggleShared(path, req.Checked)
			state = sess.SharedSelection()
		}
		resp = newToggleResponse(directives, state)
	})
	if !found {
		s.writeError(w, http.StatusNotFound, errors.NewInputError(fmt.Sprintf("no session '%s'", id), errors.ErrUnknownSession))
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func newToggleResponse(directives []visibility.Directive, state *selection.State) ToggleResponse {
	resp := ToggleResponse{
		Directives: make([]DirectiveResponse, len(directives)),
		Count:      state.Count(),
		Selected:   state.Selected(),
	}
	for i, d := range directives {
		resp.Directives[i] = DirectiveResponse{
			ID:        d.Node.ElementID(),
			Namespace: string(d.Node.Namespace),
			Path:      d.Node.Path.String(),
			Visible:   d.Visible,
		}
	}
	return resp
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("Request failed", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorResponse{Error: errors.UserFriendlyError(err)})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
