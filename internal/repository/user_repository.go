package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unclebandit/coldemail-backend/internal/model"
)

// UserRepositoryInterface defines methods used by services and middleware
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
	UpdateSMTPSettings(ctx context.Context, userID int, smtpEmail string, sealedPassword *string) error
}

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, email, hashed_password, smtp_email, smtp_password, created_at`

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now()
	query := `
		INSERT INTO users (email, hashed_password, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, u.Email, u.HashedPassword, u.CreatedAt).Scan(&u.ID)
}

// GetByEmail returns nil, nil when no user matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

// GetByID returns nil, nil when no user matches.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

// UpdateSMTPSettings stores the SMTP address and, when given, the sealed password.
// A nil password keeps the stored one.
func (r *UserRepository) UpdateSMTPSettings(ctx context.Context, userID int, smtpEmail string, sealedPassword *string) error {
	query := `
		UPDATE users
		SET smtp_email = $1, smtp_password = COALESCE($2, smtp_password)
		WHERE id = $3
	`
	_, err := r.DB.ExecContext(ctx, query, smtpEmail, sealedPassword, userID)
	return err
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var smtpEmail, smtpPassword sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &smtpEmail, &smtpPassword, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.SMTPEmail = nullStringPtr(smtpEmail)
	u.SMTPPassword = nullStringPtr(smtpPassword)
	return &u, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
