package api

import (
	"net/http"
	"testing"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
)

// createDeal is a test shortcut for POST /deals.
func createDeal(t *testing.T, h http.Handler, p dealPayload) crm.Deal {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/deals", p)
	if w.Code != http.StatusCreated {
		t.Fatalf("create deal status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var d crm.Deal
	decodeData(t, w, &d)
	return d
}

// moveDeal is a test shortcut for POST /deals/{id}/stage.
func moveDeal(t *testing.T, h http.Handler, id string, stage crm.DealStage) crm.Deal {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/deals/"+id+"/stage", stagePayload{Stage: stage})
	if w.Code != http.StatusOK {
		t.Fatalf("move to %s status = %d, want %d (body %s)", stage, w.Code, http.StatusOK, w.Body.String())
	}
	var d crm.Deal
	decodeData(t, w, &d)
	return d
}

func TestDealLifecycle(t *testing.T) {
	_, h := newTestServer(t)
	acct := createAccount(t, h, accountPayload{Name: "Acme"})

	d := createDeal(t, h, dealPayload{Name: "Pilot", Value: 250_000, AccountID: acct.ID})
	if d.Stage != crm.StageProspecting {
		t.Errorf("new deal stage = %q, want %q", d.Stage, crm.StageProspecting)
	}
	if d.Currency != crm.DefaultCurrency {
		t.Errorf("currency = %q, want %q", d.Currency, crm.DefaultCurrency)
	}

	w := doJSON(t, h, http.MethodPut, "/api/v1/deals/"+d.ID, dealPayload{
		Name: "Pilot program", Value: 300_000, AccountID: acct.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var updated crm.Deal
	decodeData(t, w, &updated)
	if updated.Name != "Pilot program" || updated.Value != 300_000 {
		t.Errorf("update not applied: %+v", updated)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/deals?account_id="+acct.ID, nil)
	var list []crm.Deal
	decodeData(t, w, &list)
	if len(list) != 1 {
		t.Errorf("account filter listed %d deals, want 1", len(list))
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/deals/"+d.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestDealStageFlow(t *testing.T) {
	_, h := newTestServer(t)
	d := createDeal(t, h, dealPayload{Name: "Rollout", Value: 1_000_000})

	d = moveDeal(t, h, d.ID, crm.StageNegotiation)
	if d.Stage != crm.StageNegotiation {
		t.Fatalf("stage = %q, want %q", d.Stage, crm.StageNegotiation)
	}
	if !d.CloseDate.IsZero() {
		t.Error("open deal has a close date")
	}

	d = moveDeal(t, h, d.ID, crm.StageClosedWon)
	if d.CloseDate.IsZero() {
		t.Error("closing did not stamp the close date")
	}

	// Reopening clears the close date.
	d = moveDeal(t, h, d.ID, crm.StageProposal)
	if !d.CloseDate.IsZero() {
		t.Error("reopening kept the close date")
	}

	// Moving to the stage the deal is already in is invalid.
	w := doJSON(t, h, http.MethodPost, "/api/v1/deals/"+d.ID+"/stage", stagePayload{Stage: crm.StageProposal})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("same-stage move status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInvalidStage) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidStage)
	}
}

func TestDealUpdateCannotChangeStage(t *testing.T) {
	_, h := newTestServer(t)
	d := createDeal(t, h, dealPayload{Name: "Rollout", Value: 500})

	w := doJSON(t, h, http.MethodPut, "/api/v1/deals/"+d.ID, dealPayload{
		Name: "Rollout", Value: 500, Stage: crm.StageClosedWon,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInvalidStage) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidStage)
	}

	// Echoing the current stage back is fine.
	w = doJSON(t, h, http.MethodPut, "/api/v1/deals/"+d.ID, dealPayload{
		Name: "Rollout", Value: 600, Stage: crm.StageProspecting,
	})
	if w.Code != http.StatusOK {
		t.Errorf("same-stage update status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestDealCreateInClosedStage(t *testing.T) {
	_, h := newTestServer(t)

	d := createDeal(t, h, dealPayload{Name: "Legacy win", Value: 100, Stage: crm.StageClosedWon})
	if d.Stage != crm.StageClosedWon {
		t.Errorf("stage = %q, want %q", d.Stage, crm.StageClosedWon)
	}
	if d.CloseDate.IsZero() {
		t.Error("deal created closed has no close date")
	}
}

func TestDealRejectsUnknownRefs(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/deals", dealPayload{Name: "Pilot", Value: 100, AccountID: "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown account status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/deals", dealPayload{Name: "Pilot", Value: 100, ContactID: "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown contact status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDealListRejectsUnknownStage(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/deals?stage=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
