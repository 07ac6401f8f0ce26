package models

import "time"

type RegistrationStatus string

const (
	// RegistrationPending is a signup awaiting payment confirmation by
	// the organizer. Free tournaments skip straight to confirmed.
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationWithdrawn RegistrationStatus = "withdrawn"
)

type Registration struct {
	ID           int                `json:"id" db:"id"`
	TournamentID int                `json:"tournament_id" db:"tournament_id"`
	UserID       int                `json:"user_id" db:"user_id"`
	Status       RegistrationStatus `json:"status" db:"status"`

	// Seed is assigned in signup order when the bracket is generated.
	Seed *int `json:"seed,omitempty" db:"seed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// User is populated on listings that join the profile row.
	User *User `json:"user,omitempty" db:"-"`
}
