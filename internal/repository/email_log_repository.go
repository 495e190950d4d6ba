package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/model"
)

type EmailLogRepositoryInterface interface {
	Create(ctx context.Context, e *model.EmailLog) error
	GetByID(ctx context.Context, id int) (*model.EmailLog, error)
	GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.EmailLog, error)
	OwnerOf(ctx context.Context, id int) (int, error)
	LatestForProspect(ctx context.Context, prospectID int) (*model.EmailLog, error)
	ClaimForSend(ctx context.Context, id int) (bool, error)
	MarkSent(ctx context.Context, id int, subject, body string) error
	MarkFailed(ctx context.Context, id int, subject, body, lastError string) error
	MarkOpened(ctx context.Context, trackingToken string) (bool, error)
	MarkReplied(ctx context.Context, id int) (bool, error)
	CountByStatusForOwner(ctx context.Context, ownerID int) (map[string]int, error)
}

type EmailLogRepository struct {
	DB *sql.DB
}

const emailLogColumns = `e.id, e.prospect_id, e.personalized_opening, e.subject, e.full_body, e.status,
	e.tracking_token, e.last_error, e.sent_at, e.opened_at, e.replied_at, e.created_at, e.updated_at`

func (r *EmailLogRepository) Create(ctx context.Context, e *model.EmailLog) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = model.EmailStatusDraft
	}

	query := `
		INSERT INTO email_logs (prospect_id, personalized_opening, subject, full_body, status,
			tracking_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.ProspectID, e.PersonalizedOpening, e.Subject, e.FullBody, e.Status,
		e.TrackingToken, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *EmailLogRepository) GetByID(ctx context.Context, id int) (*model.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + ` FROM email_logs e WHERE e.id = $1`
	e, err := scanEmailLog(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewEmailLogNotFound(id)
	}
	return e, err
}

// GetByIDForOwner only finds logs whose prospect belongs to ownerID.
func (r *EmailLogRepository) GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + `
		FROM email_logs e
		JOIN prospects p ON p.id = e.prospect_id
		WHERE e.id = $1 AND p.owner_id = $2`
	e, err := scanEmailLog(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewEmailLogNotFound(id)
	}
	return e, err
}

func (r *EmailLogRepository) OwnerOf(ctx context.Context, id int) (int, error) {
	var ownerID int
	err := r.DB.QueryRowContext(ctx, `
		SELECT p.owner_id
		FROM email_logs e
		JOIN prospects p ON p.id = e.prospect_id
		WHERE e.id = $1`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, appErrors.NewEmailLogNotFound(id)
	}
	return ownerID, err
}

// LatestForProspect returns nil, nil when the prospect has no email yet.
func (r *EmailLogRepository) LatestForProspect(ctx context.Context, prospectID int) (*model.EmailLog, error) {
	query := `SELECT ` + emailLogColumns + `
		FROM email_logs e
		WHERE e.prospect_id = $1
		ORDER BY e.id DESC
		LIMIT 1`
	e, err := scanEmailLog(r.DB.QueryRowContext(ctx, query, prospectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ClaimForSend moves a draft or failed log to sending. Only the caller that
// gets true may hand the email to SMTP.
func (r *EmailLogRepository) ClaimForSend(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE email_logs
		SET status = 'sending', updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'failed')
	`
	return affected(r.DB.ExecContext(ctx, query, id))
}

// MarkSent completes a claimed send. A log that is not sending is a conflict.
func (r *EmailLogRepository) MarkSent(ctx context.Context, id int, subject, body string) error {
	query := `
		UPDATE email_logs
		SET status = 'sent', subject = $1, full_body = $2, last_error = '',
			sent_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = 'sending'
	`
	res, err := r.DB.ExecContext(ctx, query, subject, body, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return appErrors.NewConflict("Email has already been sent")
	}
	return nil
}

// MarkFailed releases a claimed send with the failure reason.
func (r *EmailLogRepository) MarkFailed(ctx context.Context, id int, subject, body, lastError string) error {
	query := `
		UPDATE email_logs
		SET status = 'failed', subject = $1, full_body = $2, last_error = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'sending'
	`
	_, err := r.DB.ExecContext(ctx, query, subject, body, lastError, id)
	return err
}

// MarkOpened records the first open of a sent email. Returns false when nothing changed.
func (r *EmailLogRepository) MarkOpened(ctx context.Context, trackingToken string) (bool, error) {
	query := `
		UPDATE email_logs
		SET status = 'opened', opened_at = NOW(), updated_at = NOW()
		WHERE tracking_token = $1 AND status = 'sent'
	`
	return affected(r.DB.ExecContext(ctx, query, trackingToken))
}

func (r *EmailLogRepository) MarkReplied(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE email_logs
		SET status = 'replied', replied_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('sent', 'opened')
	`
	return affected(r.DB.ExecContext(ctx, query, id))
}

func (r *EmailLogRepository) CountByStatusForOwner(ctx context.Context, ownerID int) (map[string]int, error) {
	query := `
		SELECT e.status, COUNT(*)
		FROM email_logs e
		JOIN prospects p ON p.id = e.prospect_id
		WHERE p.owner_id = $1
		GROUP BY e.status
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.EmailStatusDraft:   0,
		model.EmailStatusSending: 0,
		model.EmailStatusSent:    0,
		model.EmailStatusOpened:  0,
		model.EmailStatusReplied: 0,
		model.EmailStatusFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanEmailLog(row *sql.Row) (*model.EmailLog, error) {
	var e model.EmailLog
	err := row.Scan(
		&e.ID, &e.ProspectID, &e.PersonalizedOpening, &e.Subject, &e.FullBody, &e.Status,
		&e.TrackingToken, &e.LastError, &e.SentAt, &e.OpenedAt, &e.RepliedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)
