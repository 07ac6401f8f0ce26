package models

import "time"

type MatchStatus string

const (
	MatchScheduled            MatchStatus = "scheduled"
	MatchAwaitingVerification MatchStatus = "awaiting_verification"
	MatchCompleted            MatchStatus = "completed"
	MatchDisputed             MatchStatus = "disputed"
	MatchCancelled            MatchStatus = "cancelled"
)

// BracketKind places a match within the elimination structure.
type BracketKind string

const (
	BracketWinners    BracketKind = "winners"
	BracketLosers     BracketKind = "losers"
	BracketGrandFinal BracketKind = "final"
)

type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	SlotLabel    string      `json:"slot_label" db:"slot_label"`
	Bracket      BracketKind `json:"bracket" db:"bracket"`

	P1RegistrationID *int `json:"p1_registration_id,omitempty" db:"p1_registration_id"`
	P2RegistrationID *int `json:"p2_registration_id,omitempty" db:"p2_registration_id"`

	Status               MatchStatus `json:"status" db:"status"`
	ScoreP1              *int        `json:"score_p1,omitempty" db:"score_p1"`
	ScoreP2              *int        `json:"score_p2,omitempty" db:"score_p2"`
	WinnerRegistrationID *int        `json:"winner_registration_id,omitempty" db:"winner_registration_id"`

	// Advancement links. The winner feeds the slot (1 or 2) of
	// WinnerNextMatchID; in double elimination the loser drops into
	// LoserNextMatchID the same way.
	WinnerNextMatchID *int `json:"winner_next_match_id,omitempty" db:"winner_next_match_id"`
	WinnerNextSlot    *int `json:"winner_next_slot,omitempty" db:"winner_next_slot"`
	LoserNextMatchID  *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot     *int `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ResultReport is one side's claimed outcome for a match. Two matching
// reports complete the match; a mismatch opens a dispute.
type ResultReport struct {
	ID             int       `json:"id" db:"id"`
	MatchID        int       `json:"match_id" db:"match_id"`
	RegistrationID int       `json:"registration_id" db:"registration_id"`
	ScoreP1        int       `json:"score_p1" db:"score_p1"`
	ScoreP2        int       `json:"score_p2" db:"score_p2"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
