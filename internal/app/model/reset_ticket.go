package model

import "time"

// ResetTokenExpiry is how long a password reset token stays valid.
const ResetTokenExpiry = 1 * time.Hour

// ResetTicket pairs a reset token with the instant it stops being valid.
// The two are always set and cleared together.
type ResetTicket struct {
	Token     string
	ExpiresAt time.Time
}

// NewResetTicket builds a ticket expiring ttl after issuedAt.
func NewResetTicket(token string, issuedAt time.Time, ttl time.Duration) ResetTicket {
	return ResetTicket{
		Token:     token,
		ExpiresAt: issuedAt.Add(ttl).UTC(),
	}
}

// ActiveAt reports whether the ticket is still valid at now. Expiry is exclusive.
func (t ResetTicket) ActiveAt(now time.Time) bool {
	return t.ExpiresAt.After(now)
}
