package models

import "time"

// SystemSetting is an admin-configurable key/value pair.
type SystemSetting struct {
	Key             string    `json:"key" db:"key"`
	Value           string    `json:"value" db:"value"`
	UpdatedByUserID *int      `json:"updated_by_user_id,omitempty" db:"updated_by_user_id"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Setting keys the server itself consumes.
const (
	SettingDefaultCapacity          = "registration_default_capacity"
	SettingAnnouncementEmailEnabled = "announcement_email_enabled"
)
