package models

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute records disagreeing score reports on a match, pending manual
// resolution by an admin.
type Dispute struct {
	ID                   int           `json:"id" db:"id"`
	MatchID              int           `json:"match_id" db:"match_id"`
	RaisedByRegistration int           `json:"raised_by_registration_id" db:"raised_by_registration_id"`
	P1ClaimScoreP1       int           `json:"p1_claim_score_p1" db:"p1_claim_score_p1"`
	P1ClaimScoreP2       int           `json:"p1_claim_score_p2" db:"p1_claim_score_p2"`
	P2ClaimScoreP1       int           `json:"p2_claim_score_p1" db:"p2_claim_score_p1"`
	P2ClaimScoreP2       int           `json:"p2_claim_score_p2" db:"p2_claim_score_p2"`
	Status               DisputeStatus `json:"status" db:"status"`
	ResolutionNote       *string       `json:"resolution_note,omitempty" db:"resolution_note"`
	ResolvedByUserID     *int          `json:"resolved_by_user_id,omitempty" db:"resolved_by_user_id"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt           *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}
