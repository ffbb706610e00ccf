package audithook

// Action constants for audit events.
const (
	// Participant actions
	ActionParticipantAdded   = "participant.added"
	ActionParticipantRemoved = "participant.removed"
	ActionParticipantSkipped = "participant.skipped"
	ActionPaletteReset       = "palette.reset"

	// Snapshot actions
	ActionSnapshotCorrupt    = "snapshot.corrupt"
	ActionSnapshotSaveFailed = "snapshot.save_failed"

	// Settlement actions
	ActionSettlementComputed = "settlement.computed"
)

// Resource constants for audit events.
const (
	ResourceParticipant = "participant"
	ResourcePalette     = "palette"
	ResourceSnapshot    = "snapshot"
	ResourceSettlement  = "settlement"
)

// Category constants for audit events.
const (
	CategoryRegistry    = "registry"
	CategoryPersistence = "persistence"
	CategorySettlement  = "settlement"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
