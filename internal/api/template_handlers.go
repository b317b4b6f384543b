package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/template"
)

type templatePayload struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleTemplateList(w http.ResponseWriter, r *http.Request) {
	templates, err := s.stores.Templates.List(r.Context(), s.userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, templates)
}

func (s *Server) handleTemplateGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.stores.Templates.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, t)
}

func (s *Server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in templatePayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	t := crm.NewEmailTemplate(s.userID(r), in.Name, in.Subject, in.Body)
	if err := t.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := template.Validate(t); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Templates.Create(ctx, t)
	observability.Store().OnWrite(ctx, "templates", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, t.OwnerID, crm.ActivityCreated, crm.RecordTemplate, t.ID, "created template "+t.Name)
	respond(w, http.StatusCreated, t)
}

func (s *Server) handleTemplateUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in templatePayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	t, err := s.stores.Templates.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	t.Name = in.Name
	t.Subject = in.Subject
	t.Body = in.Body
	t.UpdatedAt = time.Now().UTC()
	if err := t.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := template.Validate(t); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Templates.Update(ctx, t)
	observability.Store().OnWrite(ctx, "templates", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, t.OwnerID, crm.ActivityUpdated, crm.RecordTemplate, t.ID, "updated template "+t.Name)
	respond(w, http.StatusOK, t)
}

func (s *Server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")

	t, err := s.stores.Templates.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Templates.Delete(ctx, userID, id)
	observability.Store().OnWrite(ctx, "templates", "delete", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, userID, crm.ActivityDeleted, crm.RecordTemplate, id, "deleted template "+t.Name)
	w.WriteHeader(http.StatusNoContent)
}

type previewPayload struct {
	ContactID string `json:"contact_id"`
}

// handleTemplatePreview renders a template against a real contact and,
// when the contact belongs to an account, that account's fields.
func (s *Server) handleTemplatePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)

	var in previewPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	if in.ContactID == "" {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "contact_id is required"))
		return
	}

	t, err := s.stores.Templates.Get(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	contact, err := s.stores.Contacts.Get(ctx, userID, in.ContactID)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "contact %s", in.ContactID))
		return
	}

	var account *crm.Account
	if contact.AccountID != "" {
		if a, err := s.stores.Accounts.Get(ctx, userID, contact.AccountID); err == nil {
			account = &a
		}
	}

	rendered, err := template.Render(t, contact, account)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rendered)
}
