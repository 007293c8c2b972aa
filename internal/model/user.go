package model

import (
	"time"
)

type User struct {
	ID                 string     `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	FirstName          string     `db:"first_name" json:"firstName"`
	LastName           *string    `db:"last_name" json:"lastName,omitempty"`
	Email              string     `db:"email" json:"email"`
	Avatar             *string    `db:"avatar" json:"avatar,omitempty"`
	PasswordHash       *string    `db:"password_hash" json:"-"` // NULL for OAuth-only accounts
	Provider           *string    `db:"provider" json:"-"`
	GoogleID           *string    `db:"google_id" json:"-"`
	IsVerified         bool       `db:"is_verified" json:"isVerified"`
	RefreshToken       string     `db:"refresh_token" json:"-"` // empty string = logged out, never NULL
	VerificationCode   *string    `db:"verification_code" json:"-"`
	VerificationExpiry *time.Time `db:"verification_expiry" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsOAuth() bool {
	return u.Provider != nil && *u.Provider != ""
}

// FullName joins first and last name for token claims and email greetings.
func (u *User) FullName() string {
	if u.LastName == nil || *u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + *u.LastName
}

// Author is the public projection of a user embedded in blogs, comments and
// replies. Credentials and session state are never part of it.
type Author struct {
	ID        string  `db:"id" json:"id"`
	Username  string  `db:"username" json:"username"`
	FirstName string  `db:"first_name" json:"firstName"`
	LastName  *string `db:"last_name" json:"lastName,omitempty"`
	Email     string  `db:"email" json:"email"`
	Avatar    *string `db:"avatar" json:"avatar,omitempty"`
}

// Principal is the authenticated identity attached to a request, regardless of
// which auth path produced it: a stateless access token or an OAuth login.
type Principal struct {
	User     *User
	Provider string // "" for local token sessions
}

func (p *Principal) IsOAuth() bool {
	return p.Provider != ""
}
