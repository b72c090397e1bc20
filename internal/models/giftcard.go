package models

import "time"

// GiftCard is a stored-value card owned by a user.
type GiftCard struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"-"`
	Brand     string    `json:"brand"`
	Balance   Amount    `json:"balance"`
	Notes     string    `json:"notes"`
	AddedDate time.Time `json:"added_date"`
}
