// internal/service/research_service.go
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/metrics"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/rag"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/scraper"
)

const ragPreviewLength = 200

type WebsiteScraper interface {
	ScrapeWebsite(ctx context.Context, url string) (string, error)
}

type OpeningLineGenerator interface {
	GenerateOpeningLine(ctx context.Context, prospectName, companyName, scrapedContext string) string
}

type ResearchService struct {
	Prospects repository.ProspectRepositoryInterface
	EmailLogs repository.EmailLogRepositoryInterface
	Scraper   WebsiteScraper
	Research  CompanyResearch
	Writer    OpeningLineGenerator
	Signature string
}

type GenerateResult struct {
	Status         string `json:"status"`
	EmailLogID     int    `json:"email_log_id"`
	Prospect       string `json:"prospect"`
	RAGContextUsed string `json:"rag_context_used"`
	GeneratedLine  string `json:"generated_line"`
}

// DraftView is {"has_draft": false} when the prospect has no email yet.
type DraftView struct {
	HasDraft            bool    `json:"has_draft"`
	EmailLogID          *int    `json:"email_log_id,omitempty"`
	PersonalizedOpening *string `json:"personalized_opening,omitempty"`
	FullBody            *string `json:"full_body,omitempty"`
	Subject             *string `json:"subject,omitempty"`
	Status              *string `json:"status,omitempty"`
}

// GenerateEmailLine runs scrape, store, retrieve and generate for one prospect
// and saves the opening line as a draft.
func (s *ResearchService) GenerateEmailLine(ctx context.Context, ownerID, prospectID int) (*GenerateResult, error) {
	prospect, err := s.Prospects.GetByIDForOwner(ctx, ownerID, prospectID)
	if err != nil {
		return nil, err
	}
	if prospect.Website() == "" {
		return nil, appErrors.NewInvalidInput("No company website to scrape")
	}

	url := scraper.NormalizeURL(prospect.Website())
	log.Info().Int("prospect_id", prospect.ID).Str("url", url).Msg("🌐 Scraping company website")

	scraped, err := s.Scraper.ScrapeWebsite(ctx, url)
	if err != nil {
		metrics.RecordScrapeFailure()
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "Failed to scrape website.", http.StatusInternalServerError)
	}
	if scraped == "" {
		metrics.RecordScrapeFailure()
		return nil, appErrors.NewInternal("Failed to scrape website.")
	}

	retrieved := s.retrieve(ctx, prospect, scraped)

	hook := retrieved
	if hook == "" {
		hook = scraped
	}
	line := s.Writer.GenerateOpeningLine(ctx, prospect.FirstName, prospect.CompanyName, hook)

	draft := &model.EmailLog{
		ProspectID:          prospect.ID,
		PersonalizedOpening: line,
		Subject:             defaultSubject(prospect.CompanyName),
		FullBody:            defaultBody(line, prospect.CompanyName, s.Signature),
		Status:              model.EmailStatusDraft,
		TrackingToken:       uuid.NewString(),
	}
	if err := s.EmailLogs.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	metrics.RecordDraftGenerated()

	log.Info().Int("prospect_id", prospect.ID).Int("email_log_id", draft.ID).Msg("✅ Draft generated")

	return &GenerateResult{
		Status:         "success",
		EmailLogID:     draft.ID,
		Prospect:       prospect.Email,
		RAGContextUsed: preview(retrieved, ragPreviewLength) + "...",
		GeneratedLine:  draft.PersonalizedOpening,
	}, nil
}

// retrieve stores the snapshot and asks for the best hook. Failures only cost
// the retrieval step.
func (s *ResearchService) retrieve(ctx context.Context, p *model.Prospect, scraped string) string {
	if s.Research == nil {
		return ""
	}
	if err := s.Research.StoreCompanyData(ctx, p.OwnerID, p.ID, p.CompanyName, scraped); err != nil {
		log.Warn().Err(err).Int("prospect_id", p.ID).Msg("⚠️ Vector store ingestion failed, using scraped text")
		return ""
	}
	text, err := s.Research.SearchCompanyData(ctx, p.OwnerID, p.CompanyName, rag.ResearchQuery)
	if err != nil {
		log.Warn().Err(err).Int("prospect_id", p.ID).Msg("⚠️ Vector search failed, using scraped text")
		return ""
	}
	return text
}

// GetLatestDraft returns the newest email log of the prospect.
func (s *ResearchService) GetLatestDraft(ctx context.Context, ownerID, prospectID int) (*DraftView, error) {
	if _, err := s.Prospects.GetByIDForOwner(ctx, ownerID, prospectID); err != nil {
		return nil, err
	}

	e, err := s.EmailLogs.LatestForProspect(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return &DraftView{HasDraft: false}, nil
	}
	return &DraftView{
		HasDraft:            true,
		EmailLogID:          &e.ID,
		PersonalizedOpening: &e.PersonalizedOpening,
		FullBody:            &e.FullBody,
		Subject:             &e.Subject,
		Status:              &e.Status,
	}, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
