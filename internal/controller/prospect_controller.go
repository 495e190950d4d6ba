// internal/controller/prospect_controller.go
package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

type ProspectService interface {
	Create(ctx context.Context, p *model.Prospect) (*model.Prospect, error)
	List(ctx context.Context, ownerID, skip, limit int) ([]*model.Prospect, error)
	Get(ctx context.Context, ownerID, id int) (*model.Prospect, error)
	Delete(ctx context.Context, ownerID, id int) error
}

type ProspectController struct {
	ProspectService ProspectService
}

type createProspectRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	LinkedinURL    *string `json:"linkedin_url"`
	CompanyName    string  `json:"company_name" validate:"required"`
	CompanyWebsite *string `json:"company_website"`
	JobTitle       *string `json:"job_title"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (c *ProspectController) CreateProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body createProspectRequest
	if err := decodeAndValidate(r, &body, false); err != nil {
		writeError(w, r, err)
		return
	}

	prospect, err := c.ProspectService.Create(r.Context(), &model.Prospect{
		OwnerID:        user.ID,
		FirstName:      strings.TrimSpace(body.FirstName),
		LastName:       strings.TrimSpace(body.LastName),
		Email:          body.Email,
		LinkedinURL:    optional(body.LinkedinURL),
		CompanyName:    strings.TrimSpace(body.CompanyName),
		CompanyWebsite: optional(body.CompanyWebsite),
		JobTitle:       optional(body.JobTitle),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prospect)
}

func (c *ProspectController) ListProspects(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultProspectLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	prospects, err := c.ProspectService.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prospects)
}

func (c *ProspectController) GetProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	prospect, err := c.ProspectService.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prospect)
}

func (c *ProspectController) DeleteProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.ProspectService.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Prospect deleted"})
}
