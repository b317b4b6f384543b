// Package api implements the tackle HTTP API.
//
// All endpoints live under /api/v1 and speak JSON envelopes: successful
// responses carry {"data": ...}, failures carry {"error": {"code", "message"}}.
// Authentication is cookie-based; every route except the health check and
// the login/callback pair requires a valid session.
package api

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/session"
	"github.com/mgrendahl/tackle/pkg/store"
)

// Server routes API requests to the stores and services behind them.
// It is safe for concurrent use; all request state lives on the context.
type Server struct {
	cfg       Config
	stores    *store.Stores
	sessions  session.Store
	states    session.StateStore
	provider  auth.Provider
	dashboard *dashboard.Service
	logger    *log.Logger
}

// Config carries the request-independent server settings.
type Config struct {
	// BaseURL is the externally reachable origin, used in auth redirects.
	BaseURL string

	// NoAuth replaces cookie auth with a fixed local identity.
	// Development only.
	NoAuth bool

	// CookieSecure marks the session cookie Secure. Enable behind TLS.
	CookieSecure bool
}

// Deps are the server's collaborators. Stores is required; nil optional
// deps get development defaults (in-memory sessions and state, the
// static identity provider, an uncached dashboard service, the default
// logger).
type Deps struct {
	Stores    *store.Stores
	Sessions  session.Store
	States    session.StateStore
	Provider  auth.Provider
	Dashboard *dashboard.Service
	Logger    *log.Logger
}

// New creates a server over deps.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore()
	}
	if deps.States == nil {
		deps.States = session.NewMemoryStateStore()
	}
	if deps.Provider == nil {
		deps.Provider = auth.NewStaticProvider("", "", "")
	}
	if deps.Dashboard == nil {
		deps.Dashboard = dashboard.NewService(deps.Stores, nil, nil, deps.Logger)
	}
	return &Server{
		cfg:       cfg,
		stores:    deps.Stores,
		sessions:  deps.Sessions,
		states:    deps.States,
		provider:  deps.Provider,
		dashboard: deps.Dashboard,
		logger:    deps.Logger,
	}
}

// Router builds the chi handler for the full API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)

		r.Get("/auth/login", s.handleLogin)
		r.Get("/auth/callback", s.handleCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)
			r.Get("/auth/sessions", s.handleSessionList)
			r.Delete("/auth/sessions/{id}", s.handleSessionRevoke)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", s.handleContactList)
				r.Post("/", s.handleContactCreate)
				r.Get("/export", s.handleContactExport)
				r.Post("/import", s.handleContactImport)
				r.Get("/{id}", s.handleContactGet)
				r.Put("/{id}", s.handleContactUpdate)
				r.Delete("/{id}", s.handleContactDelete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", s.handleLeadList)
				r.Post("/", s.handleLeadCreate)
				r.Get("/{id}", s.handleLeadGet)
				r.Put("/{id}", s.handleLeadUpdate)
				r.Delete("/{id}", s.handleLeadDelete)
				r.Post("/{id}/convert", s.handleLeadConvert)
			})

			r.Route("/deals", func(r chi.Router) {
				r.Get("/", s.handleDealList)
				r.Post("/", s.handleDealCreate)
				r.Get("/{id}", s.handleDealGet)
				r.Put("/{id}", s.handleDealUpdate)
				r.Delete("/{id}", s.handleDealDelete)
				r.Post("/{id}/stage", s.handleDealStage)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleAccountList)
				r.Post("/", s.handleAccountCreate)
				r.Get("/{id}", s.handleAccountGet)
				r.Put("/{id}", s.handleAccountUpdate)
				r.Delete("/{id}", s.handleAccountDelete)
				r.Get("/{id}/relmap", s.handleAccountRelmap)
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", s.handleTemplateList)
				r.Post("/", s.handleTemplateCreate)
				r.Get("/{id}", s.handleTemplateGet)
				r.Put("/{id}", s.handleTemplateUpdate)
				r.Delete("/{id}", s.handleTemplateDelete)
				r.Post("/{id}/preview", s.handleTemplatePreview)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/summary", s.handleDashboardSummary)
				r.Get("/widgets", s.handleWidgetCatalog)
				r.Post("/widgets", s.handleWidgetAdd)
				r.Delete("/widgets/{id}", s.handleWidgetRemove)
				r.Put("/layout", s.handleLayoutSave)
			})

			r.Get("/preferences", s.handlePreferencesGet)
			r.Put("/preferences", s.handlePreferencesPut)

			r.Get("/activity", s.handleActivityList)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// afterWrite records a feed entry for a successful mutation and drops
// the cached dashboard summary. Both are best-effort: the write itself
// already succeeded, so failures are logged rather than surfaced.
func (s *Server) afterWrite(ctx context.Context, userID string, kind crm.ActivityKind, rt crm.RecordType, recordID, summary string) {
	a := crm.NewActivity(userID, kind, rt, recordID, summary)
	if err := s.stores.Activities.Append(ctx, a); err != nil {
		s.logger.Warn("activity append failed", "record", recordID, "err", err)
	}
	if err := s.dashboard.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("summary invalidation failed", "user", userID, "err", err)
	}
}

// checkAccountRef rejects writes that point at an account the user does
// not have.
func (s *Server) checkAccountRef(ctx context.Context, userID, accountID string) error {
	if accountID == "" {
		return nil
	}
	if _, err := s.stores.Accounts.Get(ctx, userID, accountID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "account %s", accountID)
	}
	return nil
}

// checkContactRef rejects writes that point at a contact the user does
// not have.
func (s *Server) checkContactRef(ctx context.Context, userID, contactID string) error {
	if contactID == "" {
		return nil
	}
	if _, err := s.stores.Contacts.Get(ctx, userID, contactID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "contact %s", contactID)
	}
	return nil
}
