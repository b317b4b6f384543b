package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	tackleio "github.com/mgrendahl/tackle/pkg/io"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

// maxImportBytes bounds uploaded CSV files.
const maxImportBytes = 10 << 20

type contactPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
	AccountID string `json:"account_id"`
	Notes     string `json:"notes"`
}

func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ContactFilter{
		Search:    q.Get("search"),
		AccountID: q.Get("account_id"),
	}
	contacts, err := s.stores.Contacts.List(r.Context(), s.userID(r), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, contacts)
}

func (s *Server) handleContactGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.stores.Contacts.Get(r.Context(), s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (s *Server) handleContactCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in contactPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	c := crm.NewContact(s.userID(r), in.FirstName, in.LastName, in.Email)
	c.Phone = in.Phone
	c.Title = in.Title
	c.AccountID = in.AccountID
	c.Notes = in.Notes
	if err := c.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkAccountRef(ctx, c.OwnerID, c.AccountID); err != nil {
		s.respondError(w, r, err)
		return
	}

	err := s.stores.Contacts.Create(ctx, c)
	observability.Store().OnWrite(ctx, "contacts", "create", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, c.OwnerID, crm.ActivityCreated, crm.RecordContact, c.ID, "created contact "+c.FullName())
	respond(w, http.StatusCreated, c)
}

func (s *Server) handleContactUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in contactPayload
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.stores.Contacts.Get(ctx, s.userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Title = in.Title
	c.AccountID = in.AccountID
	c.Notes = in.Notes
	c.UpdatedAt = time.Now().UTC()
	if err := c.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkAccountRef(ctx, c.OwnerID, c.AccountID); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Contacts.Update(ctx, c)
	observability.Store().OnWrite(ctx, "contacts", "update", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, c.OwnerID, crm.ActivityUpdated, crm.RecordContact, c.ID, "updated contact "+c.FullName())
	respond(w, http.StatusOK, c)
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)
	id := chi.URLParam(r, "id")

	c, err := s.stores.Contacts.Get(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.stores.Contacts.Delete(ctx, userID, id)
	observability.Store().OnWrite(ctx, "contacts", "delete", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterWrite(ctx, userID, crm.ActivityDeleted, crm.RecordContact, id, "deleted contact "+c.FullName())
	w.WriteHeader(http.StatusNoContent)
}

// handleContactExport streams every contact as a CSV attachment.
func (s *Server) handleContactExport(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.stores.Contacts.List(r.Context(), s.userID(r), store.ContactFilter{})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.csv"`)
	if err := tackleio.WriteContactsCSV(contacts, w); err != nil {
		// Headers are already on the wire; all we can do is log.
		s.logger.Error("csv export failed", "err", err)
	}
}

type importResult struct {
	Imported int `json:"imported"`
}

// handleContactImport creates one contact per CSV row. The import stops
// at the first bad row or duplicate email; rows before it stay
// imported.
func (s *Server) handleContactImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.userID(r)

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	contacts, err := tackleio.ReadContactsCSV(body, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	for i, c := range contacts {
		err := s.stores.Contacts.Create(ctx, c)
		observability.Store().OnWrite(ctx, "contacts", "create", err)
		if err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeDuplicateEmail, err, "row %d (%s): contact already exists", i+1, c.Email))
			return
		}
		s.afterWrite(ctx, userID, crm.ActivityImported, crm.RecordContact, c.ID, "imported contact "+c.FullName())
	}

	s.logger.Info("csv import", "user", userID, "contacts", len(contacts))
	respond(w, http.StatusCreated, importResult{Imported: len(contacts)})
}
