package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/grid"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

// handleDashboardSummary serves the aggregated dashboard numbers.
// activity_limit and top_accounts size the feed and ranking; refresh=1
// bypasses the cached copy.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := dashboard.Options{
		ActivityLimit: queryInt(q, "activity_limit"),
		TopAccounts:   queryInt(q, "top_accounts"),
		Refresh:       queryBool(q, "refresh"),
	}

	sum, err := s.dashboard.Summary(r.Context(), s.userID(r), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (s *Server) handleWidgetCatalog(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, dashboard.Catalog())
}

type widgetPayload struct {
	ID grid.WidgetID `json:"id"`
}

// handleWidgetAdd switches a widget on and places it in the first free
// slot. Adding a widget that is already visible is a no-op.
func (s *Server) handleWidgetAdd(w http.ResponseWriter, r *http.Request) {
	var in widgetPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.dashboard.AddWidget(r.Context(), s.userID(r), in.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// handleWidgetRemove switches a widget off and closes the gap it
// leaves. Removing a hidden widget is a no-op.
func (s *Server) handleWidgetRemove(w http.ResponseWriter, r *http.Request) {
	p, err := s.dashboard.RemoveWidget(r.Context(), s.userID(r), grid.WidgetID(chi.URLParam(r, "id")))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

type layoutPayload struct {
	Layout  grid.Layout     `json:"layout"`
	Visible []grid.WidgetID `json:"visible"`
}

// handleLayoutSave stores a dashboard arrangement. The layout is
// compacted before it is saved, so the response carries the placements
// the client should actually render.
func (s *Server) handleLayoutSave(w http.ResponseWriter, r *http.Request) {
	var in layoutPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.dashboard.SaveLayout(r.Context(), s.userID(r), in.Layout, in.Visible)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (s *Server) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.dashboard.Preferences(r.Context(), s.userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

type preferencesPayload struct {
	Theme          string          `json:"theme"`
	Timezone       string          `json:"timezone"`
	VisibleWidgets []grid.WidgetID `json:"visible_widgets"`
	WidgetOrder    []grid.WidgetID `json:"widget_order"`
	Layout         grid.Layout     `json:"layout"`
}

// handlePreferencesPut replaces the caller's settings record wholesale,
// last write wins. Empty theme and timezone fall back to the defaults
// so clients can send partial records without clearing them.
func (s *Server) handlePreferencesPut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in preferencesPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p := crm.Preferences{
		UserID:         s.userID(r),
		Theme:          in.Theme,
		Timezone:       in.Timezone,
		VisibleWidgets: in.VisibleWidgets,
		WidgetOrder:    in.WidgetOrder,
		Layout:         in.Layout,
		UpdatedAt:      time.Now().UTC(),
	}
	if p.Theme == "" {
		p.Theme = crm.ThemeSystem
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if err := p.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Preferences.Put(ctx, p)
	observability.Store().OnWrite(ctx, "preferences", "put", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// handleActivityList serves the activity feed, newest first. type
// filters by record type; limit caps the page size.
func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ActivityFilter{
		RecordType: crm.RecordType(q.Get("type")),
		Limit:      queryInt(q, "limit"),
	}
	if f.RecordType != "" && !f.RecordType.Valid() {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown record type: %q", f.RecordType))
		return
	}

	activity, err := s.stores.Activities.List(r.Context(), s.userID(r), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, activity)
}
