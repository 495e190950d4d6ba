// internal/controller/research_controller.go
package controller

import (
	"context"
	"net/http"

	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

type ResearchService interface {
	GenerateEmailLine(ctx context.Context, ownerID, prospectID int) (*service.GenerateResult, error)
	GetLatestDraft(ctx context.Context, ownerID, prospectID int) (*service.DraftView, error)
}

type EmailService interface {
	SendDraft(ctx context.Context, user *model.User, emailLogID int, subject, editedBody string) (*service.SendResult, error)
	QueueDrafts(ctx context.Context, user *model.User, ids []int) (*service.BatchResult, error)
	MarkReplied(ctx context.Context, ownerID, emailLogID int) error
}

type ResearchController struct {
	ResearchService ResearchService
	EmailService    EmailService
}

type sendDraftRequest struct {
	Subject    string `json:"subject"`
	EditedBody string `json:"edited_body"`
}

type sendBatchRequest struct {
	EmailLogIDs []int `json:"email_log_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

func (c *ResearchController) GenerateEmailLine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	prospectID, err := pathID(r, "prospect_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.ResearchService.GenerateEmailLine(r.Context(), user.ID, prospectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (c *ResearchController) GetLatestDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	prospectID, err := pathID(r, "prospect_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := c.ResearchService.GetLatestDraft(r.Context(), user.ID, prospectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SendDraft accepts an optional {subject, edited_body} body.
func (c *ResearchController) SendDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "email_log_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body sendDraftRequest
	if err := decodeAndValidate(r, &body, true); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.EmailService.SendDraft(r.Context(), user, id, body.Subject, body.EditedBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (c *ResearchController) SendBatch(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body sendBatchRequest
	if err := decodeAndValidate(r, &body, false); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.EmailService.QueueDrafts(r.Context(), user, body.EmailLogIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (c *ResearchController) MarkReplied(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "email_log_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.EmailService.MarkReplied(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Email marked as replied"})
}
