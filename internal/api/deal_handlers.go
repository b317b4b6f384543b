package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

type dealPayload struct {
	Name      string        `json:"name"`
	AccountID string        `json:"account_id"`
	ContactID string        `json:"contact_id"`
	Stage     crm.DealStage `json:"stage"`
	Value     int64         `json:"value"`
	Currency  string        `json:"currency"`
	Notes     string        `json:"notes"`
}

func (s *Server) handleDealList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.DealFilter{
		Stage:     crm.DealStage(q.Get("stage")),
		AccountID: q.Get("account_id"),
	}
	if f.Stage != "" && !f.Stage.Valid() {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidStage, "unknown deal stage: %q", f.Stage))
		return
	}

	deals, err := s.stores.Deals.List(r.Context(), s.userID(r), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, deals)
}

func (s *Server) handleDealGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.stores.Deals.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, d)
}

func (s *Server) handleDealCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in dealPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	d := crm.NewDeal(s.userID(r), in.Name, in.Value)
	d.AccountID = in.AccountID
	d.ContactID = in.ContactID
	d.Notes = in.Notes
	if in.Stage != "" {
		d.Stage = in.Stage
		if in.Stage.Closed() {
			d.CloseDate = time.Now().UTC()
		}
	}
	if in.Currency != "" {
		d.Currency = in.Currency
	}
	if err := d.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkAccountRef(ctx, d.OwnerID, d.AccountID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkContactRef(ctx, d.OwnerID, d.ContactID); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Deals.Create(ctx, d)
	observability.Store().OnWrite(ctx, "deals", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, d.OwnerID, crm.ActivityCreated, crm.RecordDeal, d.ID, "created deal "+d.Name)
	respond(w, http.StatusCreated, d)
}

// handleDealUpdate edits a deal's fields. The stage is deliberately not
// editable here: stage changes go through the stage endpoint so the
// transition rules apply.
func (s *Server) handleDealUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in dealPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	d, err := s.stores.Deals.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if in.Stage != "" && in.Stage != d.Stage {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidStage, "stage changes go through the stage endpoint"))
		return
	}

	d.Name = in.Name
	d.AccountID = in.AccountID
	d.ContactID = in.ContactID
	d.Value = in.Value
	d.Notes = in.Notes
	if in.Currency != "" {
		d.Currency = in.Currency
	}
	d.UpdatedAt = time.Now().UTC()
	if err := d.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkAccountRef(ctx, d.OwnerID, d.AccountID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkContactRef(ctx, d.OwnerID, d.ContactID); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Deals.Update(ctx, d)
	observability.Store().OnWrite(ctx, "deals", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, d.OwnerID, crm.ActivityUpdated, crm.RecordDeal, d.ID, "updated deal "+d.Name)
	respond(w, http.StatusOK, d)
}

func (s *Server) handleDealDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")

	d, err := s.stores.Deals.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Deals.Delete(ctx, userID, id)
	observability.Store().OnWrite(ctx, "deals", "delete", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, userID, crm.ActivityDeleted, crm.RecordDeal, id, "deleted deal "+d.Name)
	w.WriteHeader(http.StatusNoContent)
}

type stagePayload struct {
	Stage crm.DealStage `json:"stage"`
}

// handleDealStage moves a deal to a new pipeline stage under the
// transition rules. Closing stamps the close date; reopening clears it.
func (s *Server) handleDealStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in stagePayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	d, err := s.stores.Deals.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	moved, err := d.AdvanceStage(in.Stage)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Deals.Update(ctx, moved)
	observability.Store().OnWrite(ctx, "deals", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, moved.OwnerID, crm.ActivityStageChanged, crm.RecordDeal, moved.ID,
		fmt.Sprintf("moved deal %s to %s", moved.Name, moved.Stage))
	respond(w, http.StatusOK, moved)
}
