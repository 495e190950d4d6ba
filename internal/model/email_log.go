package model

import "time"

const (
	EmailStatusDraft   = "draft"
	EmailStatusSending = "sending" // claimed by a sender, SMTP in flight
	EmailStatusSent    = "sent"
	EmailStatusOpened  = "opened"
	EmailStatusReplied = "replied"
	EmailStatusFailed  = "failed"
)

type EmailLog struct {
	ID                  int        `db:"id" json:"id"`
	ProspectID          int        `db:"prospect_id" json:"prospect_id"`
	PersonalizedOpening string     `db:"personalized_opening" json:"personalized_opening"`
	Subject             string     `db:"subject" json:"subject"`
	FullBody            string     `db:"full_body" json:"full_body"`
	Status              string     `db:"status" json:"status"` // draft, sending, sent, opened, replied, failed
	TrackingToken       string     `db:"tracking_token" json:"-"`
	LastError           string     `db:"last_error" json:"last_error,omitempty"`
	SentAt              *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	OpenedAt            *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	RepliedAt           *time.Time `db:"replied_at" json:"replied_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Sendable reports whether the log may (re)enter the outbox.
func (e *EmailLog) Sendable() bool {
	return e.Status == EmailStatusDraft || e.Status == EmailStatusFailed
}
