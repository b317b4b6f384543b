package crm

// =============================================================================
// LeadStatus - Qualification Pipeline
// =============================================================================

// LeadStatus tracks how far a lead has moved through qualification.
type LeadStatus string

// Lead statuses in pipeline order.
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusConverted LeadStatus = "converted"
)

// LeadStatuses returns all statuses in pipeline order.
func LeadStatuses() []LeadStatus {
	return []LeadStatus{
		LeadStatusNew,
		LeadStatusContacted,
		LeadStatusQualified,
		LeadStatusLost,
		LeadStatusConverted,
	}
}

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusLost, LeadStatusConverted:
		return true
	}
	return false
}

// Terminal reports whether the lead has left the working pipeline.
// Lost and converted leads are done; everything else is still open.
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusLost || s == LeadStatusConverted
}

// =============================================================================
// DealStage - Sales Pipeline
// =============================================================================

// DealStage is a deal's position in the sales pipeline.
type DealStage string

// Deal stages in pipeline order.
const (
	StageProspecting   DealStage = "prospecting"
	StageQualification DealStage = "qualification"
	StageProposal      DealStage = "proposal"
	StageNegotiation   DealStage = "negotiation"
	StageClosedWon     DealStage = "closed_won"
	StageClosedLost    DealStage = "closed_lost"
)

// DealStages returns all stages in pipeline order.
func DealStages() []DealStage {
	return []DealStage{
		StageProspecting,
		StageQualification,
		StageProposal,
		StageNegotiation,
		StageClosedWon,
		StageClosedLost,
	}
}

// Valid reports whether s is a known deal stage.
func (s DealStage) Valid() bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal,
		StageNegotiation, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

// Closed reports whether the stage is a final outcome.
func (s DealStage) Closed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Won reports whether the deal closed successfully.
func (s DealStage) Won() bool {
	return s == StageClosedWon
}

// CanTransition reports whether a deal in stage s may move to stage to.
//
// Open deals move freely: forward, backward, or straight to a close. A
// closed deal cannot flip outcome directly — it must be reopened to an
// open stage first. Moving to the current stage is not a transition.
func (s DealStage) CanTransition(to DealStage) bool {
	if !s.Valid() || !to.Valid() || s == to {
		return false
	}
	if s.Closed() {
		return !to.Closed()
	}
	return true
}

// =============================================================================
// ActivityKind / RecordType - Change Feed Vocabulary
// =============================================================================

// ActivityKind classifies an activity feed entry.
type ActivityKind string

// Activity kinds.
const (
	ActivityCreated      ActivityKind = "created"
	ActivityUpdated      ActivityKind = "updated"
	ActivityDeleted      ActivityKind = "deleted"
	ActivityConverted    ActivityKind = "converted"
	ActivityStageChanged ActivityKind = "stage_changed"
	ActivityImported     ActivityKind = "imported"
	ActivityNote         ActivityKind = "note"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityCreated, ActivityUpdated, ActivityDeleted,
		ActivityConverted, ActivityStageChanged, ActivityImported,
		ActivityNote:
		return true
	}
	return false
}

// RecordType names the entity an activity refers to.
type RecordType string

// Record types.
const (
	RecordContact  RecordType = "contact"
	RecordLead     RecordType = "lead"
	RecordDeal     RecordType = "deal"
	RecordAccount  RecordType = "account"
	RecordTemplate RecordType = "template"
)

// Valid reports whether r is a known record type.
func (r RecordType) Valid() bool {
	switch r {
	case RecordContact, RecordLead, RecordDeal, RecordAccount, RecordTemplate:
		return true
	}
	return false
}
