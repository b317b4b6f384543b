package store

import (
	"context"
	"errors"

	"github.com/mgrendahl/tackle/pkg/crm"
)

// Sentinel errors for repository operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness rule,
	// such as a duplicate ID or a second contact with the same email.
	ErrConflict = errors.New("record conflict")
)

// =============================================================================
// Filters
// =============================================================================

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Search    string // case-insensitive substring on name and email
	AccountID string // only contacts attached to this account
}

// LeadFilter narrows lead listings.
type LeadFilter struct {
	Status crm.LeadStatus // only leads in this status
	Search string         // case-insensitive substring on name, email, company
}

// DealFilter narrows deal listings.
type DealFilter struct {
	Stage     crm.DealStage // only deals in this stage
	AccountID string        // only deals attached to this account
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Search string // case-insensitive substring on name
}

// ActivityFilter narrows activity feed listings.
type ActivityFilter struct {
	RecordType crm.RecordType // only entries about this entity
	Limit      int            // 0 means DefaultActivityLimit
}

// DefaultActivityLimit bounds feed queries that don't ask for a limit.
const DefaultActivityLimit = 50

// =============================================================================
// Repository Ports
// =============================================================================

// ContactStore persists contacts.
type ContactStore interface {
	// Create stores a new contact. Returns ErrConflict if the ID or the
	// owner's email is already taken.
	Create(ctx context.Context, c crm.Contact) error

	// Get returns the owner's contact with the given ID.
	Get(ctx context.Context, ownerID, id string) (crm.Contact, error)

	// GetByEmail returns the owner's contact with the given email.
	GetByEmail(ctx context.Context, ownerID, email string) (crm.Contact, error)

	// Update replaces an existing contact. Returns ErrNotFound if absent,
	// ErrConflict if the new email collides with another contact.
	Update(ctx context.Context, c crm.Contact) error

	// Delete removes the owner's contact with the given ID.
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the owner's contacts sorted by last name, first name,
	// then email.
	List(ctx context.Context, ownerID string, f ContactFilter) ([]crm.Contact, error)
}

// LeadStore persists leads.
type LeadStore interface {
	Create(ctx context.Context, l crm.Lead) error
	Get(ctx context.Context, ownerID, id string) (crm.Lead, error)
	Update(ctx context.Context, l crm.Lead) error
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the owner's leads, newest first.
	List(ctx context.Context, ownerID string, f LeadFilter) ([]crm.Lead, error)
}

// DealStore persists deals.
type DealStore interface {
	Create(ctx context.Context, d crm.Deal) error
	Get(ctx context.Context, ownerID, id string) (crm.Deal, error)
	Update(ctx context.Context, d crm.Deal) error
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the owner's deals, newest first.
	List(ctx context.Context, ownerID string, f DealFilter) ([]crm.Deal, error)
}

// AccountStore persists accounts.
type AccountStore interface {
	Create(ctx context.Context, a crm.Account) error
	Get(ctx context.Context, ownerID, id string) (crm.Account, error)
	Update(ctx context.Context, a crm.Account) error
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the owner's accounts sorted by name.
	List(ctx context.Context, ownerID string, f AccountFilter) ([]crm.Account, error)
}

// TemplateStore persists email templates.
type TemplateStore interface {
	Create(ctx context.Context, t crm.EmailTemplate) error
	Get(ctx context.Context, ownerID, id string) (crm.EmailTemplate, error)
	Update(ctx context.Context, t crm.EmailTemplate) error
	Delete(ctx context.Context, ownerID, id string) error

	// List returns the owner's templates sorted by name.
	List(ctx context.Context, ownerID string) ([]crm.EmailTemplate, error)
}

// PreferenceStore persists per-user preferences.
type PreferenceStore interface {
	// Get returns the user's preferences, ErrNotFound if never saved.
	Get(ctx context.Context, userID string) (crm.Preferences, error)

	// Put replaces the whole preferences record. Last write wins.
	Put(ctx context.Context, p crm.Preferences) error
}

// ActivityStore persists the append-only change feed.
type ActivityStore interface {
	Append(ctx context.Context, a crm.Activity) error

	// List returns feed entries, newest first, bounded by f.Limit.
	List(ctx context.Context, ownerID string, f ActivityFilter) ([]crm.Activity, error)
}

// =============================================================================
// Stores - One Implementation of Every Port
// =============================================================================

// Stores bundles one implementation of every repository port so wiring
// code can hand the whole set around.
type Stores struct {
	Contacts    ContactStore
	Leads       LeadStore
	Deals       DealStore
	Accounts    AccountStore
	Templates   TemplateStore
	Preferences PreferenceStore
	Activities  ActivityStore
}
