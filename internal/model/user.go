package model

import "time"

type User struct {
	ID             int       `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	SMTPEmail      *string   `db:"smtp_email" json:"smtp_email,omitempty"`
	SMTPPassword   *string   `db:"smtp_password" json:"-"` // sealed, see security.SecretBox
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SMTPConfigured reports whether the user can send mail from their own account.
func (u *User) SMTPConfigured() bool {
	return u.SMTPEmail != nil && *u.SMTPEmail != "" &&
		u.SMTPPassword != nil && *u.SMTPPassword != ""
}
