package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/model"
)

type ProspectRepositoryInterface interface {
	Create(ctx context.Context, p *model.Prospect) error
	GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.Prospect, error)
	GetByEmailForOwner(ctx context.Context, ownerID int, email string) (*model.Prospect, error)
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]*model.Prospect, error)
	CountByOwner(ctx context.Context, ownerID int) (int, error)
	Delete(ctx context.Context, ownerID, id int) error
}

type ProspectRepository struct {
	DB *sql.DB
}

const prospectColumns = `id, owner_id, first_name, last_name, email, linkedin_url,
	company_name, company_website, job_title, created_at`

func (r *ProspectRepository) Create(ctx context.Context, p *model.Prospect) error {
	p.CreatedAt = time.Now()
	query := `
		INSERT INTO prospects (owner_id, first_name, last_name, email, linkedin_url,
			company_name, company_website, job_title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.OwnerID, p.FirstName, p.LastName, p.Email, p.LinkedinURL,
		p.CompanyName, p.CompanyWebsite, p.JobTitle, p.CreatedAt,
	).Scan(&p.ID)
}

// GetByIDForOwner returns ErrProspectNotFound for unknown ids and for other owners' prospects.
func (r *ProspectRepository) GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.Prospect, error) {
	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE id = $1 AND owner_id = $2`
	p, err := scanProspect(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewProspectNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

// GetByEmailForOwner returns nil, nil when the owner has no prospect with that email.
func (r *ProspectRepository) GetByEmailForOwner(ctx context.Context, ownerID int, email string) (*model.Prospect, error) {
	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE owner_id = $1 AND email = $2`
	p, err := scanProspect(r.DB.QueryRowContext(ctx, query, ownerID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProspectRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]*model.Prospect, error) {
	query := `SELECT ` + prospectColumns + `
		FROM prospects
		WHERE owner_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prospects := []*model.Prospect{}
	for rows.Next() {
		p := &model.Prospect{}
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.FirstName, &p.LastName, &p.Email, &p.LinkedinURL,
			&p.CompanyName, &p.CompanyWebsite, &p.JobTitle, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

func (r *ProspectRepository) CountByOwner(ctx context.Context, ownerID int) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM prospects WHERE owner_id = $1`, ownerID).Scan(&total)
	return total, err
}

// Delete removes the prospect's email history first, then the prospect, in one transaction.
func (r *ProspectRepository) Delete(ctx context.Context, ownerID, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM email_logs
		WHERE prospect_id IN (SELECT id FROM prospects WHERE id = $1 AND owner_id = $2)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete email logs: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete prospect: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewProspectNotFound(id)
	}

	return tx.Commit()
}

func scanProspect(row *sql.Row) (*model.Prospect, error) {
	var p model.Prospect
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.FirstName, &p.LastName, &p.Email, &p.LinkedinURL,
		&p.CompanyName, &p.CompanyWebsite, &p.JobTitle, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ ProspectRepositoryInterface = (*ProspectRepository)(nil)
