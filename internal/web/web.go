package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"simacca/internal/auth"
	"simacca/internal/config"
	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/model"
	"simacca/internal/remote"
	"simacca/internal/report"
)

// AgendaStore is the cache the handlers read from. *agenda.Store implements it.
type AgendaStore interface {
	Snapshot() []model.Agenda
	LastSync() time.Time
	Loading() bool
	Find(id string) (model.Agenda, bool)
	Refresh(ctx context.Context) error
}

// ReportGenerator is satisfied by *report.Generator.
type ReportGenerator interface {
	Generate(ctx context.Context, records []model.Agenda, start, end string) (*report.Result, error)
}

// Deps are the collaborators wired in by the serve command.
type Deps struct {
	Store    AgendaStore
	Writer   remote.Writer
	Auth     *auth.Authenticator
	Profiles *auth.Profiles
	Reports  ReportGenerator
}

// Server provides the JSON API over the agenda cache.
type Server struct {
	cfg   *config.Config
	civil locale.Civil
	deps  Deps
	mux   *http.ServeMux
	now   func() time.Time

	// settle is the wait between a write and the follow-up refresh.
	settle time.Duration
	// baseCtx outlives requests; post-write refreshes run under it.
	baseCtx context.Context
	pending sync.WaitGroup

	// The calendar export is rebuilt only when the store has synced since.
	icsMu    sync.RWMutex
	icsCache *icsCache
}

type icsCache struct {
	body     string
	day      string
	syncedAt time.Time
}

// NewServer constructs a new Server. ctx bounds background work started by
// handlers, such as the refresh that follows a write.
func NewServer(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		civil:   cfg.Civil(),
		deps:    deps,
		mux:     http.NewServeMux(),
		now:     time.Now,
		settle:  cfg.WriteSettle(),
		baseCtx: ctx,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Wait blocks until background work started by handlers has finished.
func (s *Server) Wait() {
	s.pending.Wait()
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts the
// listener down gracefully and waits for background refreshes.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	appLog.Info("HTTP server stopped")
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/guest", s.handleGuest)
	s.mux.Handle("GET /api/profile", s.session(false, s.handleGetProfile))
	s.mux.Handle("PUT /api/profile", s.session(false, s.handlePutProfile))

	s.mux.Handle("GET /api/agenda", s.session(false, s.handleAgenda))
	s.mux.Handle("GET /api/agenda/today", s.session(false, s.handleToday))
	s.mux.Handle("GET /api/agenda/next", s.session(false, s.handleNext))
	s.mux.Handle("GET /api/agenda/day", s.session(false, s.handleDay))
	s.mux.Handle("GET /api/agenda/{id}", s.session(false, s.handleDetail))
	s.mux.Handle("GET /api/agenda/{id}/form", s.session(true, s.handleEditForm))
	s.mux.Handle("GET /api/week", s.session(false, s.handleWeek))
	s.mux.Handle("GET /api/agenda.ics", s.session(false, s.handleICS))
	s.mux.Handle("GET /api/referral-targets", s.session(false, s.handleTargets))

	s.mux.Handle("POST /api/agenda", s.session(true, s.handleCreate))
	s.mux.Handle("PUT /api/agenda/{id}", s.session(true, s.handleUpdate))
	s.mux.Handle("POST /api/refresh", s.session(false, s.handleRefresh))

	s.mux.Handle("POST /api/report", s.session(true, s.handleReport))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// session resolves the bearer token into the request context. adminOnly
// routes reject GUEST sessions with 403.
func (s *Server) session(adminOnly bool, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Auth.Authorize(r, adminOnly)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, "admin role required")
			return
		case err != nil:
			w.Header().Set("WWW-Authenticate", `Bearer realm="simacca"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start).String(),
		)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string       `json:"token"`
	Session auth.Session `json:"session"`
	Profile auth.Profile `json:"profile"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, 1<<16); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tok, sess, err := s.deps.Auth.Login(req.Username, req.Password)
	if err != nil {
		appLog.Warn("login rejected", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	appLog.Info("login", "username", sess.Username, "role", string(sess.Role))
	writeJSON(w, http.StatusOK, sessionResponse{Token: tok, Session: sess, Profile: s.deps.Profiles.Get()})
}

func (s *Server) handleGuest(w http.ResponseWriter, _ *http.Request) {
	tok, sess, err := s.deps.Auth.Guest()
	if err != nil {
		appLog.Error("guest session failed", err)
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: tok, Session: sess, Profile: s.deps.Profiles.Get()})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Profiles.Get())
}

type profileRequest struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req, 1<<16); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := s.deps.Profiles.Update(req.Name, req.Title)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return jsonDecoder(r.Body).Decode(v)
}

func jsonDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
