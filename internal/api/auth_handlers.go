package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/session"
)

// handleLogin starts the OAuth flow: mint a single-use state and send
// the browser to the provider's consent page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := s.states.Generate(r.Context(), session.DefaultStateTTL)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "generate state"))
		return
	}
	http.Redirect(w, r, s.provider.AuthURL(state), http.StatusFound)
}

// handleCallback finishes the OAuth flow: validate state, exchange the
// code, fetch the identity, and set the session cookie.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		s.respondError(w, r, errors.New(errors.ErrCodeForbidden, "provider error: %s", e))
		return
	}

	ok, err := s.states.Validate(ctx, q.Get("state"))
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "validate state"))
		return
	}
	if !ok {
		s.respondError(w, r, session.ErrInvalidState)
		return
	}

	code := q.Get("code")
	if code == "" {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing code parameter"))
		return
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	identity, err := s.provider.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := session.New(token.AccessToken, &identity, session.DefaultTTL)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "create session"))
		return
	}
	sess.UserAgent = r.UserAgent()
	if err := s.sessions.Set(ctx, sess); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "store session"))
		return
	}
	observability.Session().OnCreate(ctx, s.provider.Name())
	s.logger.Info("signed in", "user", identity.Key(), "provider", s.provider.Name())

	s.setSessionCookie(w, sess.ID, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout revokes the current session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.logger.Warn("session delete failed", "session", sess.ID, "err", err)
	}
	observability.Session().OnRevoke(r.Context())
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type meResult struct {
	User      *auth.Identity `json:"user"`
	SessionID string         `json:"session_id"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	respond(w, http.StatusOK, meResult{
		User:      sess.User,
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
	})
}

type sessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Current   bool      `json:"current"`
}

// handleSessionList shows the caller's active sessions, newest first.
func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r.Context())
	sessions, err := s.sessions.List(r.Context(), current.UserID())
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "list sessions"))
		return
	}

	infos := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sessionInfo{
			ID:        sess.ID,
			UserAgent: sess.UserAgent,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			Current:   sess.ID == current.ID,
		})
	}
	respond(w, http.StatusOK, infos)
}

// handleSessionRevoke deletes one of the caller's sessions by ID.
// Sessions belonging to other users read as not found.
func (s *Server) handleSessionRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	target, err := s.sessions.Get(ctx, id)
	if stderrors.Is(err, session.ErrExpired) {
		s.respondError(w, r, errors.New(errors.ErrCodeSessionNotFound, "no such session"))
		return
	}
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "load session"))
		return
	}
	if target == nil || target.UserID() != s.userID(r) {
		s.respondError(w, r, errors.New(errors.ErrCodeSessionNotFound, "no such session"))
		return
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "delete session"))
		return
	}
	observability.Session().OnRevoke(ctx)
	if target.ID == sessionFrom(ctx).ID {
		clearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}
