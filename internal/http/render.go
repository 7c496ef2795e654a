package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/session"
)

// page carries what the layout needs on every full page.
type page struct {
	Title  string
	Nav    string
	Actor  string
	Notice string
}

func newPage(ctx context.Context, title, nav string) page {
	sess := sessionFrom(ctx)
	actor := ""
	if sess.IsAuthenticated() {
		actor = sess.Actor()
	}
	return page{Title: title, Nav: nav, Actor: actor}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"statusLabel": func(s core.Status) string { return s.Label() },
		"statuses":    func() []core.Status { return core.Statuses },
		"rupiah":      func(d decimal.Decimal) string { return core.FormatRupiah(d) },
		"pct":         func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"dayLabel":    func(d core.WorkingDay) string { return d.Label() },
		"percent":     func(f float64) float64 { return f * 100 },
		"inc":         func(i int) int { return i + 1 },
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("15:04")
		},
		"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"navFor": func(path string, m monthNav) monthNavLink {
			return monthNavLink{Path: path, Months: m}
		},
	}
}

// render executes name into a buffer first so a failing template never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, log.FieldError, err)
		InternalServerError("Could not render the page.").Write(w)
		return
	}
	NewHTMXResponse().Status(code).BodyHTML(buf.Bytes()).Write(w)
}

// renderFragments concatenates several templates into one response, used
// for a partial plus its out-of-band siblings.
func (s *Server) renderFragments(ctx context.Context, resp *HTMXResponseBuilder, w http.ResponseWriter, parts ...fragment) {
	var buf bytes.Buffer
	for _, p := range parts {
		if err := s.templates.ExecuteTemplate(&buf, p.name, p.data); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
				"template", p.name, log.FieldError, err)
			InternalServerError("Could not render the page.").Write(w)
			return
		}
	}
	resp.BodyHTML(buf.Bytes()).Write(w)
}

// monthNavLink feeds the shared month_nav template.
type monthNavLink struct {
	Path   string
	Months monthNav
}

type fragment struct {
	name string
	data any
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers with the error fragment and a
// notification. Unauthenticated errors go to the login page instead.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, session.ErrUnauthenticated) {
		s.redirectToLogin(w, r)
		return
	}

	code := statusFor(err)
	msg := core.UserMessage(err)
	if code == http.StatusGatewayTimeout {
		msg = "The attendance server took too long to answer. Please try again."
	}

	logger := log.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, log.LogFields{log.FieldStatusCode: code})
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldStatusCode, code, log.FieldError, err)
	}
	errorFragment(code, msg).Write(w)
}

func errorFragment(code int, msg string) *HTMXResponseBuilder {
	switch code {
	case http.StatusUnprocessableEntity:
		return UnprocessableEntityError(msg)
	case http.StatusNotFound:
		return NotFoundError(msg)
	case http.StatusInternalServerError:
		return InternalServerError(msg)
	}
	return ErrorResponse(code, msg)
}
