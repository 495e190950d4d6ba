// internal/controller/auth_controller.go
package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetSMTPSettings(u *model.User) service.SMTPSettings
	UpdateSMTPSettings(ctx context.Context, u *model.User, smtpEmail, password string) (service.SMTPSettings, error)
}

type AuthController struct {
	AuthService AuthService
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type smtpSettingsRequest struct {
	SMTPEmail    string `json:"smtp_email" validate:"required,email"`
	SMTPPassword string `json:"smtp_password"`
}

func (c *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeAndValidate(r, &body, false); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := c.AuthService.Signup(r.Context(), body.Email, body.Password); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "User created successfully. You can now log in.",
	})
}

// Login accepts the OAuth2 password form (username/password) or a JSON body.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeAndValidate(r, &body, false); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
			return
		}
		body.Email = r.PostFormValue("username")
		body.Password = r.PostFormValue("password")
		if body.Email == "" || body.Password == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
			return
		}
	}

	res, err := c.AuthService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (c *AuthController) GetSMTPSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.AuthService.GetSMTPSettings(user))
}

func (c *AuthController) UpdateSMTPSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body smtpSettingsRequest
	if err := decodeAndValidate(r, &body, false); err != nil {
		writeError(w, r, err)
		return
	}

	settings, err := c.AuthService.UpdateSMTPSettings(r.Context(), user, body.SMTPEmail, body.SMTPPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
