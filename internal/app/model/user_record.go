package model

import (
	"time"
)

// UserRecord is the persisted shape of a User. The reset columns are nullable
// and are only meaningful as a pair.
type UserRecord struct {
	ID                  uint       `gorm:"primarykey"`
	Email               string     `gorm:"uniqueIndex;not null"`
	PasswordHash        string     `gorm:"not null"`
	ResetToken          *string    `gorm:"uniqueIndex"`
	ResetTokenExpiresAt *time.Time `gorm:"index"`
	Cart                Cart       `gorm:"type:text;serializer:json"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (UserRecord) TableName() string {
	return "users"
}

// NewUserRecord converts a User into its row.
func NewUserRecord(u *User) *UserRecord {
	r := &UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Cart:         u.Cart,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if r.Cart.Items == nil {
		r.Cart.Items = []CartItem{}
	}
	if u.Reset != nil {
		token := u.Reset.Token
		expires := u.Reset.ExpiresAt.UTC()
		r.ResetToken = &token
		r.ResetTokenExpiresAt = &expires
	}
	return r
}

// ToUser converts the row back to a User. A row with only one of the reset
// columns set is read as having no ticket.
func (r *UserRecord) ToUser() *User {
	u := &User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Cart:         r.Cart,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if u.Cart.Items == nil {
		u.Cart.Items = []CartItem{}
	}
	if r.ResetToken != nil && r.ResetTokenExpiresAt != nil {
		u.Reset = &ResetTicket{
			Token:     *r.ResetToken,
			ExpiresAt: r.ResetTokenExpiresAt.UTC(),
		}
	}
	return u
}
