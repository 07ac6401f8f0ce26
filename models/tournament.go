package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusOngoing      TournamentStatus = "ongoing"
	StatusPaused       TournamentStatus = "paused"
	StatusCompleted    TournamentStatus = "completed"
	StatusCancelled    TournamentStatus = "cancelled"
)

// TournamentFormat selects the bracket generator.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Game        string           `json:"game" db:"game"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`

	Capacity int `json:"capacity" db:"capacity"`
	// EntryFee is informational only, in minor currency units.
	// Payment collection happens outside this system.
	EntryFee int `json:"entry_fee" db:"entry_fee"`

	RegistrationDeadline time.Time  `json:"registration_deadline" db:"registration_deadline"`
	StartDate            time.Time  `json:"start_date" db:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty" db:"end_date"`

	ShareToken     string  `json:"share_token" db:"share_token"`
	AccessCodeHash *string `json:"-" db:"access_code_hash"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`

	WinnerRegistrationID *int      `json:"winner_registration_id,omitempty" db:"winner_registration_id"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	// Optional related data, populated by the service layer.
	Organizer         *Organizer     `json:"organizer,omitempty" db:"-"`
	Registrations     []Registration `json:"registrations,omitempty" db:"-"`
	Matches           []Match        `json:"matches,omitempty" db:"-"`
	RegistrationCount *int           `json:"registration_count,omitempty" db:"-"`
}

// Organizer is the slim user view embedded in tournament responses.
type Organizer struct {
	ID          int     `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}
