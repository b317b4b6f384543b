package crm

import (
	"time"

	"github.com/mgrendahl/tackle/pkg/errors"
)

// =============================================================================
// Lead Conversion
// =============================================================================

// Convert qualifies a lead into a contact. It returns the updated lead
// (status converted, linked to the new contact) and the contact carrying
// over the lead's person fields. Conversion happens at most once: a lead
// already converted is rejected, as is a lost lead — reopen it first.
//
// Both return values are copies; the caller persists them.
func (l Lead) Convert() (Lead, Contact, error) {
	if l.Status == LeadStatusConverted {
		return Lead{}, Contact{}, errors.New(errors.ErrCodeConflict,
			"lead %s is already converted", l.ID)
	}
	if l.Status == LeadStatusLost {
		return Lead{}, Contact{}, errors.New(errors.ErrCodeInvalidStatus,
			"cannot convert a lost lead")
	}

	contact := NewContact(l.OwnerID, l.FirstName, l.LastName, l.Email)
	contact.Phone = l.Phone
	contact.Notes = l.Notes

	now := time.Now().UTC()
	l.Status = LeadStatusConverted
	l.ContactID = contact.ID
	l.UpdatedAt = now

	return l, contact, nil
}
