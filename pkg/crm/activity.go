package crm

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgrendahl/tackle/pkg/errors"
)

// =============================================================================
// Activity - Change Feed Entry
// =============================================================================

// Activity is one entry of a user's change feed: something happened to a
// record. Entries are append-only; nothing ever edits one.
type Activity struct {
	ID         string       `json:"id" bson:"_id"`
	OwnerID    string       `json:"owner_id" bson:"owner_id"`
	Kind       ActivityKind `json:"kind" bson:"kind"`
	RecordType RecordType   `json:"record_type" bson:"record_type"`
	RecordID   string       `json:"record_id" bson:"record_id"`
	Summary    string       `json:"summary" bson:"summary"`
	At         time.Time    `json:"at" bson:"at"`
}

// NewActivity creates a feed entry stamped now.
func NewActivity(ownerID string, kind ActivityKind, recordType RecordType, recordID, summary string) Activity {
	return Activity{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Kind:       kind,
		RecordType: recordType,
		RecordID:   recordID,
		Summary:    summary,
		At:         time.Now().UTC(),
	}
}

// Validate checks the activity's fields.
func (a Activity) Validate() error {
	if !a.Kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown activity kind: %q", a.Kind)
	}
	if !a.RecordType.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown record type: %q", a.RecordType)
	}
	if a.RecordID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "activity needs a record id")
	}
	return nil
}
