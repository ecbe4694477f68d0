package domain

// SyncOutcome classifies what happened to a single snapshot record inside
// a sync batch. Duplicate unchanged-status syncs are successful no-ops,
// not errors.
type SyncOutcome string

const (
	OutcomeCreated      SyncOutcome = "created"
	OutcomeTransitioned SyncOutcome = "transitioned"
	OutcomeUnchanged    SyncOutcome = "unchanged"
	OutcomeRejected     SyncOutcome = "rejected"
)

// RecordResult is the per-record entry of a batch response. Reason is only
// set for rejected records.
type RecordResult struct {
	Protocol string      `json:"protocol"`
	Outcome  SyncOutcome `json:"outcome"`
	Reason   string      `json:"reason,omitempty"`
}

// BatchResult is the response for a whole sync batch. Accepted counts the
// records that were not rejected.
type BatchResult struct {
	Accepted int            `json:"accepted"`
	Results  []RecordResult `json:"results"`
}
