// internal/service/analytics_service.go
package service

import (
	"context"

	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/repository"
)

type AnalyticsService struct {
	Prospects repository.ProspectRepositoryInterface
	EmailLogs repository.EmailLogRepositoryInterface
}

type PipelineStats struct {
	Sent    int `json:"sent"`
	Drafts  int `json:"drafts"`
	Opened  int `json:"opened"`
	Replied int `json:"replied"`
	Failed  int `json:"failed"`
}

type AnalyticsData struct {
	TotalProspects int           `json:"total_prospects"`
	PipelineStats  PipelineStats `json:"pipeline_stats"`
}

type AnalyticsSummary struct {
	Status string        `json:"status"`
	Data   AnalyticsData `json:"data"`
}

// Summary counts the owner's prospects and emails. Sent includes opened and
// replied emails since both left the outbox.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID int) (*AnalyticsSummary, error) {
	total, err := s.Prospects.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.EmailLogs.CountByStatusForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	opened := counts[model.EmailStatusOpened]
	replied := counts[model.EmailStatusReplied]

	return &AnalyticsSummary{
		Status: "success",
		Data: AnalyticsData{
			TotalProspects: total,
			PipelineStats: PipelineStats{
				Sent:    counts[model.EmailStatusSent] + opened + replied,
				Drafts:  counts[model.EmailStatusDraft] + counts[model.EmailStatusSending],
				Opened:  opened,
				Replied: replied,
				Failed:  counts[model.EmailStatusFailed],
			},
		},
	}, nil
}
