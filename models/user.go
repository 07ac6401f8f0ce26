package models

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

// User is a player profile. Rows are provisioned from the external
// identity provider; this service never handles credentials.
type User struct {
	ID          int      `json:"id" db:"id"`
	DisplayName string   `json:"display_name" db:"display_name"`
	Email       string   `json:"email" db:"email"`
	Role        UserRole `json:"role" db:"role"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type UserFilter struct {
	Search string
	Role   *UserRole
	Page   int
	Limit  int
}

type UserListResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}
