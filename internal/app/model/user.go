package model

import (
	"time"
)

// User is an account. Reset is nil unless a password reset is pending.
type User struct {
	ID           uint         `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Reset        *ResetTicket `json:"-"`
	Cart         Cart         `json:"cart"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewUser returns a user with an empty cart and no pending reset.
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Cart:         Cart{Items: []CartItem{}},
	}
}

// HasActiveReset reports whether the user holds a ticket that is still valid at now.
func (u *User) HasActiveReset(now time.Time) bool {
	return u.Reset != nil && u.Reset.ActiveAt(now)
}

// IssueReset replaces any pending ticket with t.
func (u *User) IssueReset(t ResetTicket) {
	u.Reset = &t
}

// ClearReset drops the pending ticket.
func (u *User) ClearReset() {
	u.Reset = nil
}
