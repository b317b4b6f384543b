package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/relmap"
	"github.com/mgrendahl/tackle/pkg/store"
)

type accountPayload struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
	Notes    string `json:"notes"`
}

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	f := store.AccountFilter{Search: r.URL.Query().Get("search")}
	accounts, err := s.stores.Accounts.List(r.Context(), s.userID(r), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, accounts)
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request) {
	a, err := s.stores.Accounts.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, a)
}

func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in accountPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	a := crm.NewAccount(s.userID(r), in.Name)
	a.Industry = in.Industry
	a.Website = in.Website
	a.Notes = in.Notes
	if err := a.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Accounts.Create(ctx, a)
	observability.Store().OnWrite(ctx, "accounts", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, a.OwnerID, crm.ActivityCreated, crm.RecordAccount, a.ID, "created account "+a.Name)
	respond(w, http.StatusCreated, a)
}

func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in accountPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	a, err := s.stores.Accounts.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	a.Name = in.Name
	a.Industry = in.Industry
	a.Website = in.Website
	a.Notes = in.Notes
	a.UpdatedAt = time.Now().UTC()
	if err := a.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Accounts.Update(ctx, a)
	observability.Store().OnWrite(ctx, "accounts", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, a.OwnerID, crm.ActivityUpdated, crm.RecordAccount, a.ID, "updated account "+a.Name)
	respond(w, http.StatusOK, a)
}

// handleAccountDelete removes an account. Contacts and deals that
// referenced it keep their dangling IDs; list filters simply stop
// matching them.
func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")

	a, err := s.stores.Accounts.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Accounts.Delete(ctx, userID, id)
	observability.Store().OnWrite(ctx, "accounts", "delete", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, userID, crm.ActivityDeleted, crm.RecordAccount, id, "deleted account "+a.Name)
	w.WriteHeader(http.StatusNoContent)
}

type relmapResult struct {
	Nodes []relmap.Node `json:"nodes"`
	Edges []relmap.Edge `json:"edges"`
}

// handleAccountRelmap serves the account's relationship map. Format
// json returns the node/edge lists, dot the Graphviz source, svg and
// png rendered images. Rendered images are cached; refresh=1 skips the
// cached copy.
func (s *Server) handleAccountRelmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "dot", "svg", "png":
	default:
		s.respondError(w, r, errors.New(errors.ErrCodeUnsupported, "unsupported relationship map format: %q", format))
		return
	}
	opts := relmap.Options{
		Detailed: queryBool(q, "detailed"),
		MaxNodes: queryInt(q, "max_nodes"),
	}

	account, err := s.stores.Accounts.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	contacts, err := s.stores.Contacts.List(ctx, userID, store.ContactFilter{AccountID: id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	deals, err := s.stores.Deals.List(ctx, userID, store.DealFilter{AccountID: id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g := relmap.Graph{Account: account, Contacts: contacts, Deals: deals}

	switch format {
	case "json":
		nodes, edges := relmap.Build(g, opts)
		respond(w, http.StatusOK, relmapResult{Nodes: nodes, Edges: edges})
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(relmap.ToDOT(g, opts)))
	default:
		s.renderRelmap(w, r, g, opts, format)
	}
}

// renderRelmap serves a rendered svg or png, through the cache.
func (s *Server) renderRelmap(w http.ResponseWriter, r *http.Request, g relmap.Graph, opts relmap.Options, format string) {
	ctx := r.Context()
	contentType := "image/svg+xml"
	if format == "png" {
		contentType = "image/png"
	}

	key := s.dashboard.Keyer.RelmapKey(s.userID(r), g.Account.ID, cache.RelmapKeyOpts{
		Format:   format,
		MaxNodes: opts.MaxNodes,
		Detailed: opts.Detailed,
	})
	if !queryBool(r.URL.Query(), "refresh") {
		if data, hit, err := s.dashboard.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "relmap")
			w.Header().Set("Content-Type", contentType)
			_, _ = w.Write(data)
			return
		}
		observability.Cache().OnCacheMiss(ctx, "relmap")
	}

	dot := relmap.ToDOT(g, opts)
	var data []byte
	var err error
	if format == "png" {
		data, err = relmap.RenderPNG(ctx, dot, 1.0)
	} else {
		data, err = relmap.RenderSVG(ctx, dot)
	}
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render relationship map"))
		return
	}

	if err := s.dashboard.Cache.Set(ctx, key, data, cache.TTLRelmap); err != nil {
		s.logger.Warn("relmap cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "relmap", len(data))
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}
