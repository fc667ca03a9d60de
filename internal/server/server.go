// Package server exposes an open board over HTTP.
//
// Every request runs under one mutex around the workspace, so the engine
// sees the same one-at-a-time sequence of operations it would get from a
// single user interface. Changes are marked dirty and written by the
// workspace's syncer like any other edit.
//
// Routes:
//
//	GET    /healthz
//	GET    /sections
//	GET    /sections/{id}/layout?width=
//	GET    /sections/{id}/order
//	POST   /sections/{id}/moves
//	POST   /sections/{id}/columns
//	POST   /sections/{id}/fit
//	DELETE /blocks/{id}
//	POST   /undo
//	POST   /redo
//	POST   /save
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/observability"
)

const maxBodyBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server serves one workspace.
type Server struct {
	mu     sync.Mutex
	ws     *workspace.Workspace
	logger *log.Logger
}

// New creates a server for ws.
func New(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{ws: ws}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(withSecurityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Route("/sections", func(r chi.Router) {
		r.Get("/", s.handleSections)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/layout", s.handleLayout)
			r.Get("/order", s.handleOrder)
			r.Post("/moves", s.handleMove)
			r.Post("/columns", s.handleColumns)
			r.Post("/fit", s.handleFit)
		})
	})
	r.Delete("/blocks/{id}", s.handleDelete)
	r.Post("/undo", s.handleUndo)
	r.Post("/redo", s.handleRedo)
	r.Post("/save", s.handleSave)
	return r
}

// Reload replaces the board after the board file changed on disk. It
// reports false while there are unsaved changes.
func (s *Server) Reload(doc *boardio.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Reload(doc)
}

// Run listens on cfg.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, cfg config.Server) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", cfg.Addr)
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.Server) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status  string `json:"status"`
	BoardID string `json:"board_id"`
	Dirty   bool   `json:"dirty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := healthResponse{Status: "ok", BoardID: s.ws.Board().ID, Dirty: s.ws.Dirty()}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

type sectionSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Columns int    `json:"columns"`
	Blocks  int    `json:"blocks"`
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sectionSummary{}
	for _, sec := range s.ws.Board().Sections() {
		out = append(out, sectionSummary{
			ID:      sec.ID,
			Name:    sec.Name,
			Columns: sec.ColumnCount(),
			Blocks:  len(s.ws.Engine.ReadingOrder(sec.ID)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLayout returns the layout of a section. A width query parameter
// resizes the container first, and the new width applies to later requests.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q := r.URL.Query().Get("width"); q != "" {
		width, err := strconv.ParseFloat(q, 64)
		p := s.ws.Engine.Params()
		p.ContainerWidth = width
		if err != nil || !s.ws.Engine.SetParams(p) {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid width %q", q))
			return
		}
	}
	view, ok := s.ws.Engine.View(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, sectionNotFound(r))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type orderResponse struct {
	SectionID string   `json:"section_id"`
	Order     []string `json:"order"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.ws.Board().Section(id); !ok {
		writeError(w, sectionNotFound(r))
		return
	}
	order := s.ws.Engine.ReadingOrder(id)
	if order == nil {
		order = []string{}
	}
	writeJSON(w, http.StatusOK, orderResponse{SectionID: id, Order: order})
}

type moveRequest struct {
	Blocks []string `json:"blocks"`
	Col    int      `json:"col"`
	Index  int      `json:"index"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Blocks) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "blocks must not be empty"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.ws.Board().Section(id); !ok {
		writeError(w, sectionNotFound(r))
		return
	}
	if !s.ws.Engine.Reorder().MoveTo(req.Blocks, board.Slot{SectionID: id, Col: req.Col, Row: req.Index}) {
		writeError(w, errors.New(errors.ErrCodeInvalidTarget, "cannot move %v to column %d, row %d", req.Blocks, req.Col, req.Index))
		return
	}
	view, _ := s.ws.Engine.View(id)
	writeJSON(w, http.StatusOK, view)
}

type columnsRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	var req columnsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateColumnCount(req.Count); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.ws.Board().Section(id); !ok {
		writeError(w, sectionNotFound(r))
		return
	}
	s.ws.Engine.SetColumnCount(id, req.Count)
	view, _ := s.ws.Engine.View(id)
	writeJSON(w, http.StatusOK, view)
}

type fitRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   bool    `json:"seed"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "width and height must be positive"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.ws.Board().Section(id); !ok {
		writeError(w, sectionNotFound(r))
		return
	}
	if req.Seed {
		s.ws.Engine.SeedCanvas(id)
	}
	cam, _ := s.ws.Engine.Canvas().Fit(id, req.Width, req.Height)
	writeJSON(w, http.StatusOK, cam)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if !s.ws.Engine.DeleteBlocks([]string{id}) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "block %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Applied bool   `json:"applied"`
	Undo    string `json:"undo,omitempty"`
	Redo    string `json:"redo,omitempty"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, func() bool { return s.ws.Engine.Undo() })
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, func() bool { return s.ws.Engine.Redo() })
}

func (s *Server) history(w http.ResponseWriter, fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := fn()
	stack := s.ws.Engine.Stack()
	writeJSON(w, http.StatusOK, historyResponse{Applied: applied, Undo: stack.UndoLabel(), Redo: stack.RedoLabel()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "saved", BoardID: s.ws.Board().ID, Dirty: s.ws.Dirty()})
}

// =============================================================================
// Helpers
// =============================================================================

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidBoard, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeStaleReference:
		return http.StatusConflict
	case errors.ErrCodeInvalidTarget, errors.ErrCodeBoundsViolation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodePersistence:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func sectionNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeNotFound, "section %q not found", chi.URLParam(r, "id"))
}

// logRequests logs each request and reports it to the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
