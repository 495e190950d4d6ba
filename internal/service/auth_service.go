// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/db"
	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/security"
)

type AuthService struct {
	Users  repository.UserRepositoryInterface
	Tokens *security.TokenManager
	Box    *security.SecretBox
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int    `json:"user_id"`
}

type SMTPSettings struct {
	SMTPEmail    *string `json:"smtp_email"`
	IsConfigured bool    `json:"is_configured"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.NewInvalidInput("Email already registered")
	}

	hashed, err := security.HashPassword(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return nil, appErrors.NewInvalidInput(fmt.Sprintf("Password must be at most %d bytes", security.MaxPasswordBytes))
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Email: email, HashedPassword: hashed}
	if err := s.Users.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, appErrors.NewInvalidInput("Email already registered")
		}
		return nil, err
	}

	log.Info().Int("user_id", u.ID).Msg("👤 User signed up")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !security.VerifyPassword(password, u.HashedPassword) {
		return nil, appErrors.NewUnauthorized("Incorrect email or password")
	}

	token, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", UserID: u.ID}, nil
}

func (s *AuthService) GetSMTPSettings(u *model.User) SMTPSettings {
	return SMTPSettings{SMTPEmail: u.SMTPEmail, IsConfigured: u.SMTPConfigured()}
}

// UpdateSMTPSettings stores the sending address. An empty password keeps the
// one already on file.
func (s *AuthService) UpdateSMTPSettings(ctx context.Context, u *model.User, smtpEmail, password string) (SMTPSettings, error) {
	smtpEmail = strings.TrimSpace(smtpEmail)

	var sealed *string
	if password != "" {
		box, err := s.Box.Seal(password)
		if err != nil {
			return SMTPSettings{}, fmt.Errorf("seal smtp password: %w", err)
		}
		sealed = &box
	}

	if err := s.Users.UpdateSMTPSettings(ctx, u.ID, smtpEmail, sealed); err != nil {
		return SMTPSettings{}, err
	}

	u.SMTPEmail = &smtpEmail
	if sealed != nil {
		u.SMTPPassword = sealed
	}
	log.Info().Int("user_id", u.ID).Bool("password_changed", sealed != nil).Msg("🔐 SMTP settings updated")
	return s.GetSMTPSettings(u), nil
}
