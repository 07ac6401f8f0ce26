package models

import "time"

type AnnouncementStatus string

const (
	AnnouncementDraft     AnnouncementStatus = "draft"
	AnnouncementScheduled AnnouncementStatus = "scheduled"
	AnnouncementSent      AnnouncementStatus = "sent"
)

// AnnouncementAudienceAll targets every connected client; a concrete
// tournament audience is stored as its ID.
const AnnouncementAudienceAll = "all"

type Announcement struct {
	ID       string             `json:"id" db:"id"` // uuid
	Title    string             `json:"title" db:"title"`
	Body     string             `json:"body" db:"body"`
	Audience string             `json:"audience" db:"audience"` // "all" or "tournament:<id>"
	Status   AnnouncementStatus `json:"status" db:"status"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at,omitempty" db:"sent_at"`

	CreatedByUserID int       `json:"created_by_user_id" db:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
