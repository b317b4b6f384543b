package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

type leadPayload struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	Source    string         `json:"source"`
	Status    crm.LeadStatus `json:"status"`
	Notes     string         `json:"notes"`
}

func (s *Server) handleLeadList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.LeadFilter{
		Status: crm.LeadStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidStatus, "unknown lead status: %q", f.Status))
		return
	}

	leads, err := s.stores.Leads.List(r.Context(), s.userID(r), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, leads)
}

func (s *Server) handleLeadGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.stores.Leads.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, l)
}

func (s *Server) handleLeadCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in leadPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	l := crm.NewLead(s.userID(r), in.FirstName, in.LastName, in.Email)
	l.Phone = in.Phone
	l.Company = in.Company
	l.Source = in.Source
	l.Notes = in.Notes
	if in.Status != "" {
		l.Status = in.Status
	}
	if l.Status == crm.LeadStatusConverted {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidStatus, "leads enter converted through conversion"))
		return
	}
	if err := l.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Leads.Create(ctx, l)
	observability.Store().OnWrite(ctx, "leads", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, l.OwnerID, crm.ActivityCreated, crm.RecordLead, l.ID, "created lead "+l.FullName())
	respond(w, http.StatusCreated, l)
}

func (s *Server) handleLeadUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in leadPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	l, err := s.stores.Leads.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Conversion is its own endpoint; a plain update cannot claim it.
	if in.Status == crm.LeadStatusConverted && l.Status != crm.LeadStatusConverted {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidStatus, "leads enter converted through conversion"))
		return
	}

	l.FirstName = in.FirstName
	l.LastName = in.LastName
	l.Email = in.Email
	l.Phone = in.Phone
	l.Company = in.Company
	l.Source = in.Source
	l.Notes = in.Notes
	if in.Status != "" {
		l.Status = in.Status
	}
	l.UpdatedAt = time.Now().UTC()
	if err := l.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Leads.Update(ctx, l)
	observability.Store().OnWrite(ctx, "leads", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, l.OwnerID, crm.ActivityUpdated, crm.RecordLead, l.ID, "updated lead "+l.FullName())
	respond(w, http.StatusOK, l)
}

func (s *Server) handleLeadDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")

	l, err := s.stores.Leads.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Leads.Delete(ctx, userID, id)
	observability.Store().OnWrite(ctx, "leads", "delete", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, userID, crm.ActivityDeleted, crm.RecordLead, id, "deleted lead "+l.FullName())
	w.WriteHeader(http.StatusNoContent)
}

type convertResult struct {
	Lead    crm.Lead    `json:"lead"`
	Contact crm.Contact `json:"contact"`
}

// handleLeadConvert qualifies a lead into a contact. The lead is marked
// converted and keeps a pointer to the new contact.
func (s *Server) handleLeadConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)

	l, err := s.stores.Leads.Get(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	converted, contact, err := l.Convert()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Contacts.Create(ctx, contact)
	observability.Store().OnWrite(ctx, "contacts", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Leads.Update(ctx, converted)
	observability.Store().OnWrite(ctx, "leads", "update", err)
	if err != nil {
		// The contact exists but the lead still reads unconverted.
		// Surface the error; retrying will 409 on the contact email,
		// which at least points at the right record.
		s.respondError(w, r, err)
		return
	}

	s.afterWrite(ctx, userID, crm.ActivityConverted, crm.RecordLead, l.ID, "converted lead "+l.FullName())
	respond(w, http.StatusOK, convertResult{Lead: converted, Contact: contact})
}
