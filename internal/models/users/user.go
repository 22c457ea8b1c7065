package models

import (
	"strings"
	"time"
)

type User struct {
	UserID     int64  `json:"id"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name"`
	Image      string `json:"image"`
	IsStaff    bool   `json:"-"`
	IsActive   bool   `json:"-"`
	CreatedAt  int64  `json:"-"`
}

// FullName renders "last first middle" without dangling spaces.
func (u User) FullName() string {
	return strings.Join(strings.Fields(u.LastName+" "+u.FirstName+" "+u.MiddleName), " ")
}

// UserListItem is a row of the user directory. Department is always empty:
// users belong to departments through team memberships, not directly.
type UserListItem struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// Profile holds the extended attributes of a user.
type Profile struct {
	UserID   int64      `json:"-"`
	Bio      string     `json:"bio"`
	Birthday *time.Time `json:"birthday"`
	TimeZone int        `json:"time_zone"`
	Position string     `json:"position"`
	Telegram string     `json:"telegram"`
	Phone    string     `json:"phone"`
	City     string     `json:"city"`
}

// DefaultTimeZone is assigned to freshly created profiles.
const DefaultTimeZone = 3

// Timezone offset bounds accepted for profiles.
const (
	MinTimeZone = -12
	MaxTimeZone = 14
)

// ProfileUpdate carries optional changes to a user and their profile.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	MiddleName *string
	Bio        *string
	Birthday   *time.Time
	TimeZone   *int
	Position   *string
	Telegram   *string
	Phone      *string
	City       *string

	// ClearBirthday stores NULL and wins over Birthday.
	ClearBirthday bool
}
