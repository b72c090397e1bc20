package models

import (
	"strings"
	"time"
)

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	LocationEnabled bool      `json:"location_enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

// FirstName returns the first word of the display name, or "Friend".
func (u User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return "Friend"
	}
	return fields[0]
}
