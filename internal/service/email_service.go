// internal/service/email_service.go
package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/mailer"
	"github.com/unclebandit/coldemail-backend/internal/metrics"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/queue"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/security"
)

const (
	msgSMTPNotConfigured = "SMTP settings are not configured. Add your sending email and app password first."
	msgSendFailed        = "Failed to send email."
)

type EmailService struct {
	Users     repository.UserRepositoryInterface
	Prospects repository.ProspectRepositoryInterface
	EmailLogs repository.EmailLogRepositoryInterface
	Mailer    mailer.Sender
	Box       *security.SecretBox
	Queue     queue.Queue

	Signature     string
	PublicBaseURL string
}

type SendResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type BatchResult struct {
	Queued      int   `json:"queued"`
	EmailLogIDs []int `json:"email_log_ids"`
	Skipped     []int `json:"skipped"`
}

// SendDraft sends one draft (or a previously failed email) right away.
// subject and editedBody override the stored values when non-empty.
func (s *EmailService) SendDraft(ctx context.Context, user *model.User, emailLogID int, subject, editedBody string) (*SendResult, error) {
	e, err := s.EmailLogs.GetByIDForOwner(ctx, user.ID, emailLogID)
	if err != nil {
		return nil, err
	}
	if !user.SMTPConfigured() {
		return nil, appErrors.NewInvalidInput(msgSMTPNotConfigured)
	}
	if !e.Sendable() {
		return nil, appErrors.NewConflict("Email has already been sent")
	}

	prospect, err := s.Prospects.GetByIDForOwner(ctx, user.ID, e.ProspectID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(subject) != "" {
		e.Subject = subject
	}
	if strings.TrimSpace(editedBody) != "" {
		e.FullBody = editedBody
	}

	if err := s.deliver(ctx, user, prospect, e); err != nil {
		if isAppError(err) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, msgSendFailed, http.StatusInternalServerError)
	}
	return &SendResult{Status: "success", Message: "Email sent and logged!"}, nil
}

// QueueDrafts publishes the owner's sendable logs to the send queue. Unknown,
// foreign and already sent ids are reported as skipped.
func (s *EmailService) QueueDrafts(ctx context.Context, user *model.User, ids []int) (*BatchResult, error) {
	if !user.SMTPConfigured() {
		return nil, appErrors.NewInvalidInput(msgSMTPNotConfigured)
	}

	result := &BatchResult{EmailLogIDs: []int{}, Skipped: []int{}}
	seen := make(map[int]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		e, err := s.EmailLogs.GetByIDForOwner(ctx, user.ID, id)
		if err != nil || !e.Sendable() {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		if err := s.Queue.Publish(queue.EmailSendsTopic, queue.SendJob{EmailLogID: id}); err != nil {
			log.Warn().Err(err).Int("email_log_id", id).Msg("⚠️ Failed to enqueue email")
			result.Skipped = append(result.Skipped, id)
			continue
		}

		result.EmailLogIDs = append(result.EmailLogIDs, id)
		result.Queued++
	}

	log.Info().Int("user_id", user.ID).Int("queued", result.Queued).Int("skipped", len(result.Skipped)).Msg("📤 Emails queued")
	return result, nil
}

// DeliverQueued is the worker side of QueueDrafts. It returns an error only
// when another attempt could succeed.
func (s *EmailService) DeliverQueued(ctx context.Context, emailLogID int) error {
	e, err := s.EmailLogs.GetByID(ctx, emailLogID)
	if err != nil {
		var nf *appErrors.ErrEmailLogNotFound
		if errors.As(err, &nf) {
			log.Warn().Int("email_log_id", emailLogID).Msg("⚠️ Queued email no longer exists")
			return nil
		}
		return err
	}
	if !e.Sendable() {
		log.Info().Int("email_log_id", emailLogID).Str("status", e.Status).Msg("Queued email already delivered, skipping")
		return nil
	}

	ownerID, err := s.EmailLogs.OwnerOf(ctx, emailLogID)
	if err != nil {
		return err
	}
	user, err := s.Users.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if user == nil || !user.SMTPConfigured() {
		claimed, err := s.EmailLogs.ClaimForSend(ctx, e.ID)
		if err != nil || !claimed {
			return err
		}
		if err := s.EmailLogs.MarkFailed(ctx, e.ID, e.Subject, e.FullBody, "smtp settings not configured"); err != nil {
			log.Error().Err(err).Int("email_log_id", e.ID).Msg("❌ Failed to record missing SMTP settings")
		}
		return nil
	}

	prospect, err := s.Prospects.GetByIDForOwner(ctx, ownerID, e.ProspectID)
	if err != nil {
		return err
	}

	err = s.deliver(ctx, user, prospect, e)
	if err != nil && (mailer.IsPermanent(err) || isAppError(err)) {
		return nil
	}
	return err
}

// deliver fills in defaults, claims the log, sends through the user's account
// and records the outcome. Losing the claim to another sender is a conflict and
// nothing is sent.
func (s *EmailService) deliver(ctx context.Context, user *model.User, p *model.Prospect, e *model.EmailLog) error {
	if strings.TrimSpace(e.FullBody) == "" {
		e.FullBody = defaultBody(e.PersonalizedOpening, p.CompanyName, s.Signature)
	}
	if strings.TrimSpace(e.Subject) == "" {
		e.Subject = defaultSubject(p.CompanyName)
	}

	password, err := s.Box.Open(*user.SMTPPassword)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("❌ Could not open stored SMTP password")
		return appErrors.NewInvalidInput("Stored SMTP password is unreadable. Please save your SMTP settings again.")
	}

	claimed, err := s.EmailLogs.ClaimForSend(ctx, e.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return appErrors.NewConflict("Email has already been sent")
	}

	msg := mailer.Message{
		To:       p.Email,
		Subject:  e.Subject,
		Body:     e.FullBody,
		PixelURL: s.pixelURL(e.TrackingToken),
	}
	creds := mailer.Credentials{Username: *user.SMTPEmail, Password: password}

	if err := s.Mailer.Send(ctx, creds, msg); err != nil {
		metrics.RecordEmailSend(model.EmailStatusFailed)
		if markErr := s.EmailLogs.MarkFailed(ctx, e.ID, e.Subject, e.FullBody, err.Error()); markErr != nil {
			log.Error().Err(markErr).Int("email_log_id", e.ID).Msg("❌ Failed to record send failure")
		}
		return err
	}

	if err := s.EmailLogs.MarkSent(ctx, e.ID, e.Subject, e.FullBody); err != nil {
		return err
	}
	metrics.RecordEmailSend(model.EmailStatusSent)
	log.Info().Int("email_log_id", e.ID).Str("to", p.Email).Msg("✅ Email sent")
	return nil
}

func (s *EmailService) pixelURL(token string) string {
	if s.PublicBaseURL == "" || token == "" {
		return ""
	}
	return strings.TrimRight(s.PublicBaseURL, "/") + "/api/v1/track/open/" + token
}

// TrackOpen flips a sent email to opened. Unknown tokens and repeated opens
// are ignored.
func (s *EmailService) TrackOpen(ctx context.Context, token string) {
	changed, err := s.EmailLogs.MarkOpened(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to record email open")
		return
	}
	if changed {
		log.Info().Msg("👀 Email opened")
	}
}

// MarkReplied records a reply to a sent or opened email.
func (s *EmailService) MarkReplied(ctx context.Context, ownerID, emailLogID int) error {
	if _, err := s.EmailLogs.GetByIDForOwner(ctx, ownerID, emailLogID); err != nil {
		return err
	}
	changed, err := s.EmailLogs.MarkReplied(ctx, emailLogID)
	if err != nil {
		return err
	}
	if !changed {
		return appErrors.NewConflict("Only sent or opened emails can be marked as replied")
	}
	return nil
}

func isAppError(err error) bool {
	var appErr *appErrors.AppError
	return errors.As(err, &appErr)
}
