package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/middleware/ratelimit"
	"pamadmin/internal/middleware/security"
	"pamadmin/internal/middleware/trace"
	"pamadmin/internal/services"
	"pamadmin/internal/session"
	appweb "pamadmin/web"
)

// Exporter publishes a month report somewhere outside the app and returns
// where it landed.
type Exporter interface {
	Export(ctx context.Context, r core.MonthReport) (string, error)
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services the handlers call. Sheets may be nil, which
// disables the Google Sheets export.
type Deps struct {
	Auth       *session.Authenticator
	Users      *services.UserService
	Attendance *services.AttendanceService
	Payroll    *services.PayrollService
	Sheets     Exporter
	Ready      []ReadyCheck

	Clock  func() time.Time
	Logger *log.Logger

	// RequestTimeout bounds every protected handler. Zero means no bound.
	RequestTimeout time.Duration
	SecureCookies  bool
	// RateLimit is the POST budget per client and minute.
	RateLimit int
}

type Server struct {
	http.Server
	deps      Deps
	clock     func() time.Time
	logger    *log.Logger
	templates *template.Template

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and
// middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Users == nil || deps.Attendance == nil || deps.Payroll == nil {
		return nil, errors.New("http: auth, users, attendance and payroll services are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(deps.Logger)
	s := &Server{
		deps:      deps,
		clock:     deps.Clock,
		logger:    logger,
		templates: t,
		tracer:    trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
		detector:  detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimit,
			CleanupInterval:   5 * time.Minute,
		}),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited, http.MethodPost)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /login", security.NoStore(http.HandlerFunc(s.handleLoginPage)))
	mux.Handle("POST /login", security.NoStore(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /logout", security.NoStore(http.HandlerFunc(s.handleLogout)))

	mux.Handle("GET /{$}", s.protected(s.handleUsersPage))
	mux.Handle("GET /users/table", s.protected(s.handleUsersTable))
	mux.Handle("POST /users", s.protected(s.handleCreateUser))
	mux.Handle("POST /users/{id}", s.protected(s.handleUpdateUser))
	mux.Handle("POST /users/{id}/today", s.protected(s.handleTodayStatus))
	mux.Handle("GET /users/{id}/attendance", s.protected(s.handleClockLog))

	mux.Handle("GET /attendance", s.protected(s.handleAttendancePage))
	mux.Handle("GET /attendance/export.xlsx", s.protected(s.handleExportXLSX))
	mux.Handle("POST /attendance/export/sheets", s.protected(s.handleExportSheets))
	mux.Handle("GET /attendance/{userID}", s.protected(s.handleDetail))
	mux.Handle("POST /attendance/{userID}/status", s.protected(s.handleChangeStatus))

	mux.Handle("GET /salary", s.protected(s.handleSalaryPage))
}

// Metrics reports the request counters of the tracing middleware.
func (s *Server) Metrics() trace.Metrics { return s.tracer.GetMetrics() }

// Shutdown stops the rate limiter sweep and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").
		Header("Retry-After", "60").
		Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewHTMXResponse().BodyText("ok").Write(w)
}

// handleReady probes every dependency with a short timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, rc := range s.deps.Ready {
		if err := rc.Check(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "check", rc.Name, log.FieldError, err)
			NewHTMXResponse().Status(http.StatusServiceUnavailable).BodyText(rc.Name + " unavailable").Write(w)
			return
		}
	}
	NewHTMXResponse().BodyText("ready").Write(w)
}
