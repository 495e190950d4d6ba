// internal/controller/analytics_controller.go
package controller

import (
	"context"
	"net/http"

	"github.com/unclebandit/coldemail-backend/internal/service"
)

type AnalyticsService interface {
	Summary(ctx context.Context, ownerID int) (*service.AnalyticsSummary, error)
}

type AnalyticsController struct {
	AnalyticsService AnalyticsService
}

func (c *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := c.AnalyticsService.Summary(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
