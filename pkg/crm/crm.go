package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgrendahl/tackle/pkg/errors"
)

// DefaultCurrency is assumed when a deal does not specify one.
const DefaultCurrency = "USD"

// =============================================================================
// Contact - A Person Attached to an Account
// =============================================================================

// Contact is a qualified person: someone the user actually works with.
type Contact struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	FirstName string    `json:"first_name" bson:"first_name"`
	LastName  string    `json:"last_name" bson:"last_name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	AccountID string    `json:"account_id,omitempty" bson:"account_id,omitempty"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewContact creates a contact with a fresh ID and timestamps.
func NewContact(ownerID, firstName, lastName, email string) Contact {
	now := time.Now().UTC()
	return Contact{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FullName returns the display name, falling back to the email when both
// name fields are empty.
func (c Contact) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// Validate checks the contact's fields.
func (c Contact) Validate() error {
	if err := errors.ValidateEmail(c.Email); err != nil {
		return err
	}
	if err := errors.ValidatePhone(c.Phone); err != nil {
		return err
	}
	if c.FirstName == "" && c.LastName == "" {
		return errors.New(errors.ErrCodeInvalidInput, "contact needs a first or last name")
	}
	return errors.ValidateRecordName(c.FullName())
}

// =============================================================================
// Lead - An Unqualified Prospect
// =============================================================================

// Lead is a prospect that has not been qualified into a contact yet.
type Lead struct {
	ID        string     `json:"id" bson:"_id"`
	OwnerID   string     `json:"owner_id" bson:"owner_id"`
	FirstName string     `json:"first_name" bson:"first_name"`
	LastName  string     `json:"last_name" bson:"last_name"`
	Email     string     `json:"email" bson:"email"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Company   string     `json:"company,omitempty" bson:"company,omitempty"`
	Source    string     `json:"source,omitempty" bson:"source,omitempty"`
	Status    LeadStatus `json:"status" bson:"status"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty"`
	ContactID string     `json:"contact_id,omitempty" bson:"contact_id,omitempty"` // set on conversion
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// NewLead creates a lead in status "new" with a fresh ID and timestamps.
func NewLead(ownerID, firstName, lastName, email string) Lead {
	now := time.Now().UTC()
	return Lead{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Status:    LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FullName returns the display name, falling back to the email.
func (l Lead) FullName() string {
	name := strings.TrimSpace(l.FirstName + " " + l.LastName)
	if name == "" {
		return l.Email
	}
	return name
}

// Validate checks the lead's fields.
func (l Lead) Validate() error {
	if err := errors.ValidateEmail(l.Email); err != nil {
		return err
	}
	if err := errors.ValidatePhone(l.Phone); err != nil {
		return err
	}
	if !l.Status.Valid() {
		return errors.New(errors.ErrCodeInvalidStatus, "unknown lead status: %q", l.Status)
	}
	if l.FirstName == "" && l.LastName == "" && l.Company == "" {
		return errors.New(errors.ErrCodeInvalidInput, "lead needs a name or a company")
	}
	return nil
}

// =============================================================================
// Deal - A Revenue Opportunity
// =============================================================================

// Deal is an opportunity moving through the sales pipeline. Value is in
// minor currency units (cents), so amounts stay exact.
type Deal struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Name      string    `json:"name" bson:"name"`
	AccountID string    `json:"account_id,omitempty" bson:"account_id,omitempty"`
	ContactID string    `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	Stage     DealStage `json:"stage" bson:"stage"`
	Value     int64     `json:"value" bson:"value"`
	Currency  string    `json:"currency" bson:"currency"`
	CloseDate time.Time `json:"close_date,omitzero" bson:"close_date,omitempty"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewDeal creates a deal in the prospecting stage with a fresh ID.
func NewDeal(ownerID, name string, value int64) Deal {
	now := time.Now().UTC()
	return Deal{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Stage:     StageProspecting,
		Value:     value,
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open reports whether the deal is still in play.
func (d Deal) Open() bool { return !d.Stage.Closed() }

// Validate checks the deal's fields.
func (d Deal) Validate() error {
	if err := errors.ValidateRecordName(d.Name); err != nil {
		return err
	}
	if !d.Stage.Valid() {
		return errors.New(errors.ErrCodeInvalidStage, "unknown deal stage: %q", d.Stage)
	}
	if d.Value < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "deal value cannot be negative")
	}
	if len(d.Currency) != 3 {
		return errors.New(errors.ErrCodeInvalidInput, "currency must be a 3-letter code, got %q", d.Currency)
	}
	return nil
}

// AdvanceStage moves the deal to a new stage, enforcing the transition
// rules of [DealStage.CanTransition]. Closing stamps the close date.
func (d Deal) AdvanceStage(to DealStage) (Deal, error) {
	if !d.Stage.CanTransition(to) {
		return Deal{}, errors.New(errors.ErrCodeInvalidStage,
			"cannot move deal from %q to %q", d.Stage, to)
	}
	now := time.Now().UTC()
	d.Stage = to
	d.UpdatedAt = now
	if to.Closed() {
		d.CloseDate = now
	} else {
		d.CloseDate = time.Time{}
	}
	return d, nil
}

// =============================================================================
// Account - A Company Records Hang Off
// =============================================================================

// Account is a company. Contacts and deals reference it by ID.
type Account struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Name      string    `json:"name" bson:"name"`
	Industry  string    `json:"industry,omitempty" bson:"industry,omitempty"`
	Website   string    `json:"website,omitempty" bson:"website,omitempty"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewAccount creates an account with a fresh ID and timestamps.
func NewAccount(ownerID, name string) Account {
	now := time.Now().UTC()
	return Account{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the account's fields.
func (a Account) Validate() error {
	if err := errors.ValidateRecordName(a.Name); err != nil {
		return err
	}
	if a.Website != "" {
		return errors.ValidateURL(a.Website)
	}
	return nil
}

// =============================================================================
// EmailTemplate - Reusable Outbound Email
// =============================================================================

// EmailTemplate is a reusable email with {{merge_field}} placeholders in
// subject and body. Rendering lives in pkg/template; delivery is out of
// scope entirely.
type EmailTemplate struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Name      string    `json:"name" bson:"name"`
	Subject   string    `json:"subject" bson:"subject"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewEmailTemplate creates a template with a fresh ID and timestamps.
func NewEmailTemplate(ownerID, name, subject, body string) EmailTemplate {
	now := time.Now().UTC()
	return EmailTemplate{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Subject:   subject,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the template's fields. Merge-field validation against
// the known field set is pkg/template's job.
func (t EmailTemplate) Validate() error {
	if err := errors.ValidateRecordName(t.Name); err != nil {
		return err
	}
	if t.Subject == "" {
		return errors.New(errors.ErrCodeInvalidTemplate, "template subject cannot be empty")
	}
	if t.Body == "" {
		return errors.New(errors.ErrCodeInvalidTemplate, "template body cannot be empty")
	}
	return nil
}
