package api

import (
	"net/http"
	"testing"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
)

// createLead is a test shortcut for POST /leads.
func createLead(t *testing.T, h http.Handler, p leadPayload) crm.Lead {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/leads", p)
	if w.Code != http.StatusCreated {
		t.Fatalf("create lead status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var l crm.Lead
	decodeData(t, w, &l)
	return l
}

func TestLeadLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	l := createLead(t, h, leadPayload{Company: "Acme", Email: "buyer@acme.test", Source: "webinar"})
	if l.Status != crm.LeadStatusNew {
		t.Errorf("new lead status = %q, want %q", l.Status, crm.LeadStatusNew)
	}

	w := doJSON(t, h, http.MethodPut, "/api/v1/leads/"+l.ID, leadPayload{
		Company: "Acme", Email: "buyer@acme.test", Source: "webinar", Status: crm.LeadStatusContacted,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var updated crm.Lead
	decodeData(t, w, &updated)
	if updated.Status != crm.LeadStatusContacted {
		t.Errorf("status after update = %q, want %q", updated.Status, crm.LeadStatusContacted)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/leads?status=contacted", nil)
	var list []crm.Lead
	decodeData(t, w, &list)
	if len(list) != 1 {
		t.Errorf("status filter listed %d leads, want 1", len(list))
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/leads/"+l.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestLeadListRejectsUnknownStatus(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/leads?status=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInvalidStatus) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidStatus)
	}
}

func TestLeadCannotClaimConvertedStatus(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/leads", leadPayload{
		Company: "Acme", Email: "buyer@acme.test", Status: crm.LeadStatusConverted,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	l := createLead(t, h, leadPayload{Company: "Acme", Email: "buyer@acme.test"})
	w = doJSON(t, h, http.MethodPut, "/api/v1/leads/"+l.ID, leadPayload{
		Company: "Acme", Email: "buyer@acme.test", Status: crm.LeadStatusConverted,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("update status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInvalidStatus) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidStatus)
	}
}

func TestLeadConvert(t *testing.T) {
	_, h := newTestServer(t)
	l := createLead(t, h, leadPayload{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.test", Phone: "+1 555 0100",
	})

	w := doJSON(t, h, http.MethodPost, "/api/v1/leads/"+l.ID+"/convert", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("convert status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var result convertResult
	decodeData(t, w, &result)

	if result.Lead.Status != crm.LeadStatusConverted {
		t.Errorf("lead status = %q, want %q", result.Lead.Status, crm.LeadStatusConverted)
	}
	if result.Lead.ContactID != result.Contact.ID {
		t.Errorf("lead.ContactID = %q, want %q", result.Lead.ContactID, result.Contact.ID)
	}
	if result.Contact.Email != "grace@navy.test" || result.Contact.Phone != "+1 555 0100" {
		t.Errorf("contact lost lead fields: %+v", result.Contact)
	}

	// The contact is a real record now.
	w = doJSON(t, h, http.MethodGet, "/api/v1/contacts/"+result.Contact.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get converted contact status = %d, want %d", w.Code, http.StatusOK)
	}

	// Converting again conflicts.
	w = doJSON(t, h, http.MethodPost, "/api/v1/leads/"+l.ID+"/convert", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second convert status = %d, want %d", w.Code, http.StatusConflict)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeConflict) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeConflict)
	}
}

func TestLeadConvertLost(t *testing.T) {
	_, h := newTestServer(t)
	l := createLead(t, h, leadPayload{Company: "Acme", Email: "buyer@acme.test"})

	w := doJSON(t, h, http.MethodPut, "/api/v1/leads/"+l.ID, leadPayload{
		Company: "Acme", Email: "buyer@acme.test", Status: crm.LeadStatusLost,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("mark lost status = %d, want %d", w.Code, http.StatusOK)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/leads/"+l.ID+"/convert", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("convert lost lead status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInvalidStatus) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidStatus)
	}
}
