package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/session"
)

// sessionCookie is the name of the session cookie.
const sessionCookie = "tackle_session"

type ctxKey int

const sessionKey ctxKey = 0

// sessionFrom returns the session requireSession stored on the context,
// or nil outside an authenticated route.
func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// userID returns the authenticated user's key. Only valid inside
// routes behind requireSession.
func (s *Server) userID(r *http.Request) string {
	return sessionFrom(r.Context()).UserID()
}

// requestLogger emits the HTTP hooks and one structured log line per
// request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// recoverer turns handler panics into a 500 envelope instead of a
// dropped connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()))
				s.respondError(w, r, errors.New(errors.ErrCodeInternal, "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireSession resolves the session cookie and stores the session on
// the request context. In NoAuth mode every request runs as the fixed
// development identity.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.NoAuth {
			ctx := context.WithValue(r.Context(), sessionKey, session.Dev())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.respondError(w, r, errors.New(errors.ErrCodeUnauthorized, "sign in required"))
			return
		}

		sess, err := s.sessions.Get(r.Context(), cookie.Value)
		switch {
		case stderrors.Is(err, session.ErrExpired):
			observability.Session().OnExpired(r.Context())
			clearSessionCookie(w)
			s.respondError(w, r, errors.Wrap(errors.ErrCodeSessionExpired, err, "session expired, sign in again"))
			return
		case err != nil:
			s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "load session"))
			return
		case sess == nil:
			clearSessionCookie(w)
			s.respondError(w, r, errors.New(errors.ErrCodeUnauthorized, "sign in required"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
