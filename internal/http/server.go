package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amandhiraj/financetracker/internal/backend"
	"github.com/amandhiraj/financetracker/internal/log"
	"github.com/amandhiraj/financetracker/internal/middleware/ratelimit"
	"github.com/amandhiraj/financetracker/internal/middleware/security"
	"github.com/amandhiraj/financetracker/internal/middleware/trace"
	"github.com/amandhiraj/financetracker/internal/services"
	"github.com/amandhiraj/financetracker/internal/session"
	appweb "github.com/amandhiraj/financetracker/web"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// Deps are the collaborators the server renders and mutates through.
type Deps struct {
	Backend    backend.Backend
	Sessions   *session.Manager
	Workspaces *services.Registry
	// Store is the session database, checked by /readyz.
	Store  backend.Pinger
	Logger *log.Logger
	// RateLimitPerMinute caps login and registration attempts per client.
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates  *template.Template
	backend    backend.Backend
	sessions   *session.Manager
	workspaces *services.Registry
	store      backend.Pinger
	logger     *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	registrations atomic.Int64
	logins        atomic.Int64
	logouts       atomic.Int64
}

// workspaceHandler serves a request that has a session and a bound workspace.
type workspaceHandler func(w http.ResponseWriter, r *http.Request, sess session.Session, ws *services.Workspace)

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{Handler: slog.Default().Handler()})
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limit := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limit.RequestsPerMinute = deps.RateLimitPerMinute
	}

	detector := security.NewDetector()
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		backend:          deps.Backend,
		sessions:         deps.Sessions,
		workspaces:       deps.Workspaces,
		store:            deps.Store,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates",
			log.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)

	mux.Handle("GET /{$}", s.app(s.handleIndex))
	mux.Handle("GET /register", s.app(s.guestOnly(s.handleRegisterPage)))
	mux.Handle("POST /register", limited(s.app(s.guestOnly(s.handleRegister))))
	mux.Handle("GET /login", s.app(s.guestOnly(s.handleLoginPage)))
	mux.Handle("POST /login", limited(s.app(s.guestOnly(s.handleLogin))))
	mux.Handle("POST /logout", s.app(s.handleLogout))

	mux.Handle("GET /transactions", s.app(s.requireWorkspace(s.handleWorkspace)))
	mux.Handle("POST /transactions", s.app(s.requireWorkspace(s.handleCreateTransaction)))
	mux.Handle("GET /transactions/{id}/edit", s.app(s.requireWorkspace(s.handleEditDialog)))
	mux.Handle("POST /transactions/{id}", s.app(s.requireWorkspace(s.handleEditTransaction)))
	mux.Handle("GET /transactions/{id}/delete", s.app(s.requireWorkspace(s.handleDeleteDialog)))
	mux.Handle("POST /transactions/{id}/delete", s.app(s.requireWorkspace(s.handleDeleteTransaction)))

	// UI partials
	mux.Handle("GET /ui/transactions", s.app(s.requireWorkspace(s.handleListPartial)))
	mux.Handle("GET /ui/summary", s.app(s.requireWorkspace(s.handleSummaryPartial)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = headers.Middleware(s.traceMiddleware.Middleware(detector.Middleware(mux)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// app restores the session into the request context.
func (s *Server) app(h http.HandlerFunc) http.Handler {
	return s.sessions.Middleware(h)
}

// guestOnly sends authenticated users to the workspace.
func (s *Server) guestOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			redirect(w, r, "/transactions")
			return
		}
		next(w, r)
	}
}

// requireWorkspace sends unauthenticated users to /login and binds the
// session's workspace otherwise.
func (s *Server) requireWorkspace(next workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			redirect(w, r, "/login")
			return
		}
		ws, err := s.workspaces.Open(r.Context(), sess.Token, sess.Username)
		if err != nil {
			s.requestLogger(r).WarnContext(r.Context(), "Initial workspace fetch failed",
				log.NewFields().WithUser(sess.Username).WithError(err).WithOperation(log.OpRefresh).ToSlice()...)
		}
		next(w, r, sess, ws)
	}
}

// requestLogger returns the logger tagged with the request ID by the trace
// middleware, falling back to the server logger.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(log.LoggerContextKey).(*log.Logger); ok {
		return l.WithComponent(log.ComponentHTTP)
	}
	return s.logger
}

func (s *Server) execute(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// respond renders template name into the builder's body and writes it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, err := s.execute(name, data)
	if err != nil {
		s.requestLogger(r).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	b.BodyHTML(body).Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.respond(w, r, NewHTMXResponse().Status(status), name, data)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(r).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	const msg = "Too many attempts. Please wait a minute and try again."
	if isHTMX(r) {
		NotifyError(http.StatusTooManyRequests, msg).Write(w)
		return
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}
