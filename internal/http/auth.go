package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pamadmin/internal/log"
	"pamadmin/internal/middleware/security"
	"pamadmin/internal/session"
)

const sessionCookie = "pam_session"

type sessionKey struct{}

// sessionFrom returns the session resolved by protected, or the
// unauthenticated session.
func sessionFrom(ctx context.Context) session.Session {
	if s, ok := ctx.Value(sessionKey{}).(session.Session); ok {
		return s
	}
	return session.Unauthenticated()
}

// protected resolves the session cookie, sends unauthenticated requests to
// the login page and bounds the handler with the request timeout.
func (s *Server) protected(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.resolveSession(r)
		if !sess.IsAuthenticated() {
			s.redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldActor, sess.Actor()))
		if s.deps.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.deps.RequestTimeout)
			defer cancel()
		}
		next(w, r.WithContext(ctx))
	}))
}

func (s *Server) resolveSession(r *http.Request) session.Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return session.Unauthenticated()
	}
	sess, err := s.deps.Auth.Resolve(r.Context(), c.Value)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to resolve session", log.FieldError, err)
		return session.Unauthenticated()
	}
	return sess
}

// redirectToLogin answers HTMX requests with HX-Redirect, since a 303 would
// be followed inside the swap target.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool { return r.Header.Get("HX-Request") == "true" }

type loginPage struct {
	page
	Username string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.resolveSession(r).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginPage{page: page{Title: "Sign in"}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))

	sess, err := s.deps.Auth.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		code, notice := http.StatusInternalServerError, "Sign in failed. Please try again."
		if errors.Is(err, session.ErrInvalidCredentials) {
			code, notice = http.StatusUnauthorized, "Invalid username or password."
			s.logger.WarnContext(r.Context(), "Login rejected", "username", username)
		} else {
			s.logger.ErrorContext(r.Context(), "Login failed", log.FieldError, err)
		}
		s.render(w, r, code, "login.html", loginPage{
			page:     page{Title: "Sign in", Notice: notice},
			Username: username,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.InfoContext(r.Context(), "Admin signed in", log.FieldActor, sess.Actor(), log.FieldSessionID, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.deps.Auth.Logout(r.Context(), c.Value); err != nil {
			s.logger.ErrorContext(r.Context(), "Logout failed", log.FieldError, err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
