package crm

import (
	"testing"

	"github.com/mgrendahl/tackle/pkg/errors"
)

func TestLeadConvert(t *testing.T) {
	lead := NewLead("owner-1", "Sam", "Smith", "sam@example.com")
	lead.Phone = "+1 555 867 5309"
	lead.Notes = "met at the expo"
	lead.Status = LeadStatusQualified

	converted, contact, err := lead.Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if converted.Status != LeadStatusConverted {
		t.Errorf("Status = %q, want %q", converted.Status, LeadStatusConverted)
	}
	if converted.ContactID != contact.ID {
		t.Errorf("ContactID = %q, want %q", converted.ContactID, contact.ID)
	}
	if contact.ID == lead.ID {
		t.Error("contact reuses the lead's ID")
	}

	// Person fields carry over.
	if contact.FirstName != "Sam" || contact.LastName != "Smith" {
		t.Errorf("name = %q %q, want Sam Smith", contact.FirstName, contact.LastName)
	}
	if contact.Email != lead.Email {
		t.Errorf("Email = %q, want %q", contact.Email, lead.Email)
	}
	if contact.Phone != lead.Phone {
		t.Errorf("Phone = %q, want %q", contact.Phone, lead.Phone)
	}
	if contact.Notes != lead.Notes {
		t.Errorf("Notes = %q, want %q", contact.Notes, lead.Notes)
	}
	if contact.OwnerID != lead.OwnerID {
		t.Errorf("OwnerID = %q, want %q", contact.OwnerID, lead.OwnerID)
	}

	if err := contact.Validate(); err != nil {
		t.Errorf("converted contact invalid: %v", err)
	}

	// The input lead is untouched.
	if lead.Status != LeadStatusQualified {
		t.Errorf("original lead status = %q, want %q", lead.Status, LeadStatusQualified)
	}
}

func TestLeadConvertRejected(t *testing.T) {
	tests := []struct {
		name     string
		status   LeadStatus
		wantCode errors.Code
	}{
		{"already converted", LeadStatusConverted, errors.ErrCodeConflict},
		{"lost lead", LeadStatusLost, errors.ErrCodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := NewLead("o", "Sam", "Smith", "sam@example.com")
			lead.Status = tt.status

			if _, _, err := lead.Convert(); !errors.Is(err, tt.wantCode) {
				t.Errorf("Convert() error = %v, want code %v", err, tt.wantCode)
			}
		})
	}
}

func TestLeadConvertFromEveryOpenStatus(t *testing.T) {
	open := []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified}

	for _, status := range open {
		lead := NewLead("o", "Sam", "Smith", "sam@example.com")
		lead.Status = status

		if _, _, err := lead.Convert(); err != nil {
			t.Errorf("Convert() from %q error = %v, want nil", status, err)
		}
	}
}
