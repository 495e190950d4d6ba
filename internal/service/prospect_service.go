// internal/service/prospect_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/db"
	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/repository"
)

const (
	DefaultProspectLimit = 100
	MaxProspectLimit     = 100
)

// CompanyResearch stores and retrieves scraped company snapshots.
type CompanyResearch interface {
	StoreCompanyData(ctx context.Context, ownerID, prospectID int, company, text string) error
	SearchCompanyData(ctx context.Context, ownerID int, company, query string) (string, error)
	DeleteCompanyData(ctx context.Context, ownerID, prospectID int) error
}

type ProspectService struct {
	Prospects repository.ProspectRepositoryInterface
	Research  CompanyResearch // optional
}

// Create adds a prospect for p.OwnerID. The email must be new for that owner.
func (s *ProspectService) Create(ctx context.Context, p *model.Prospect) (*model.Prospect, error) {
	p.Email = normalizeEmail(p.Email)

	existing, err := s.Prospects.GetByEmailForOwner(ctx, p.OwnerID, p.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.NewInvalidInput("Email already registered")
	}

	if err := s.Prospects.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, appErrors.NewInvalidInput("Email already registered")
		}
		return nil, err
	}
	return p, nil
}

// List returns a page of the owner's prospects, newest first.
func (s *ProspectService) List(ctx context.Context, ownerID, skip, limit int) ([]*model.Prospect, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultProspectLimit
	}
	if limit > MaxProspectLimit {
		limit = MaxProspectLimit
	}

	prospects, err := s.Prospects.ListByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	if prospects == nil {
		prospects = []*model.Prospect{}
	}
	return prospects, nil
}

func (s *ProspectService) Get(ctx context.Context, ownerID, id int) (*model.Prospect, error) {
	return s.Prospects.GetByIDForOwner(ctx, ownerID, id)
}

// Delete removes the prospect, its email logs and its vector snapshot.
func (s *ProspectService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.Prospects.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	if s.Research != nil {
		if err := s.Research.DeleteCompanyData(ctx, ownerID, id); err != nil {
			log.Warn().Err(err).Int("prospect_id", id).Msg("⚠️ Failed to delete vector snapshot")
		}
	}
	return nil
}
