package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/coldemail-backend/internal/controller"
	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/middleware"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

// --- Fakes ---

type fakeAuthService struct {
	signupErr  error
	signedUp   string
	loginEmail string
	smtpEmail  string
	smtpPass   string
}

func (f *fakeAuthService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	f.signedUp = email
	return &model.User{ID: 1, Email: email}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	if password != "secret" {
		return nil, appErrors.NewUnauthorized("Incorrect email or password")
	}
	f.loginEmail = email
	return &service.LoginResult{AccessToken: "tok", TokenType: "bearer", UserID: 1}, nil
}

func (f *fakeAuthService) GetSMTPSettings(u *model.User) service.SMTPSettings {
	return service.SMTPSettings{SMTPEmail: u.SMTPEmail, IsConfigured: u.SMTPConfigured()}
}

func (f *fakeAuthService) UpdateSMTPSettings(ctx context.Context, u *model.User, smtpEmail, password string) (service.SMTPSettings, error) {
	f.smtpEmail, f.smtpPass = smtpEmail, password
	return service.SMTPSettings{SMTPEmail: &smtpEmail, IsConfigured: true}, nil
}

type fakeProspectService struct {
	created   *model.Prospect
	skip      int
	limit     int
	deletedID int
}

func (f *fakeProspectService) Create(ctx context.Context, p *model.Prospect) (*model.Prospect, error) {
	p.ID = 7
	f.created = p
	return p, nil
}

func (f *fakeProspectService) List(ctx context.Context, ownerID, skip, limit int) ([]*model.Prospect, error) {
	f.skip, f.limit = skip, limit
	return []*model.Prospect{{ID: 1, OwnerID: ownerID}}, nil
}

func (f *fakeProspectService) Get(ctx context.Context, ownerID, id int) (*model.Prospect, error) {
	if id != 1 {
		return nil, appErrors.NewProspectNotFound(id)
	}
	return &model.Prospect{ID: 1, OwnerID: ownerID, CompanyName: "Acme"}, nil
}

func (f *fakeProspectService) Delete(ctx context.Context, ownerID, id int) error {
	f.deletedID = id
	return nil
}

type fakeResearchService struct{}

func (f *fakeResearchService) GenerateEmailLine(ctx context.Context, ownerID, prospectID int) (*service.GenerateResult, error) {
	if prospectID == 2 {
		return nil, appErrors.NewInvalidInput("No company website to scrape")
	}
	return &service.GenerateResult{Status: "success", EmailLogID: 5, Prospect: "ann@acme.com", RAGContextUsed: "...", GeneratedLine: "Hi."}, nil
}

func (f *fakeResearchService) GetLatestDraft(ctx context.Context, ownerID, prospectID int) (*service.DraftView, error) {
	return &service.DraftView{HasDraft: false}, nil
}

type fakeEmailService struct {
	subject, body string
	batch         []int
	sendErr       error
}

func (f *fakeEmailService) SendDraft(ctx context.Context, user *model.User, id int, subject, body string) (*service.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.subject, f.body = subject, body
	return &service.SendResult{Status: "success", Message: "Email sent and logged!"}, nil
}

func (f *fakeEmailService) QueueDrafts(ctx context.Context, user *model.User, ids []int) (*service.BatchResult, error) {
	f.batch = ids
	return &service.BatchResult{Queued: len(ids), EmailLogIDs: ids, Skipped: []int{}}, nil
}

func (f *fakeEmailService) MarkReplied(ctx context.Context, ownerID, id int) error {
	return appErrors.NewConflict("Only sent or opened emails can be marked as replied")
}

type fakeAnalyticsService struct{}

func (f *fakeAnalyticsService) Summary(ctx context.Context, ownerID int) (*service.AnalyticsSummary, error) {
	return &service.AnalyticsSummary{Status: "success", Data: service.AnalyticsData{TotalProspects: 3}}, nil
}

// --- Helpers ---

var testUser = &model.User{ID: 1, Email: "owner@example.com"}

func authed(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithUser(ctx, testUser))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// --- Tests ---

func TestSignup(t *testing.T) {
	svc := &fakeAuthService{}
	ctrl := &controller.AuthController{AuthService: svc}

	w := httptest.NewRecorder()
	ctrl.Signup(w, jsonRequest("POST", "/api/v1/auth/signup", `{"email":"jane@example.com","password":"pw"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])
	assert.Equal(t, "jane@example.com", svc.signedUp)

	w = httptest.NewRecorder()
	ctrl.Signup(w, jsonRequest("POST", "/api/v1/auth/signup", `{"email":"not-an-email","password":"pw"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "email must be a valid email address", decode(t, w)["detail"])

	w = httptest.NewRecorder()
	ctrl.Signup(w, jsonRequest("POST", "/api/v1/auth/signup",
		`{"email":"jane@example.com","password":"`+strings.Repeat("a", 80)+`"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "password must have at most 72 item(s) or characters", decode(t, w)["detail"])

	w = httptest.NewRecorder()
	ctrl.Signup(w, jsonRequest("POST", "/api/v1/auth/signup", `{`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc.signupErr = appErrors.NewInvalidInput("Email already registered")
	w = httptest.NewRecorder()
	ctrl.Signup(w, jsonRequest("POST", "/api/v1/auth/signup", `{"email":"jane@example.com","password":"pw"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["detail"])
}

func TestLogin_FormAndJSON(t *testing.T) {
	svc := &fakeAuthService{}
	ctrl := &controller.AuthController{AuthService: svc}

	form := url.Values{"username": {"jane@example.com"}, "password": {"secret"}}
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ctrl.Login(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "tok", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(1), body["user_id"])

	w = httptest.NewRecorder()
	ctrl.Login(w, jsonRequest("POST", "/api/v1/auth/login", `{"email":"jane@example.com","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect email or password", decode(t, w)["detail"])

	req = httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("username=jane"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	ctrl.Login(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSMTPSettings(t *testing.T) {
	svc := &fakeAuthService{}
	ctrl := &controller.AuthController{AuthService: svc}

	w := httptest.NewRecorder()
	ctrl.GetSMTPSettings(w, authed(httptest.NewRequest("GET", "/api/v1/auth/settings/smtp", nil), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_configured"])

	w = httptest.NewRecorder()
	ctrl.UpdateSMTPSettings(w, authed(jsonRequest("PUT", "/api/v1/auth/settings/smtp", `{"smtp_email":"jane@gmail.com"}`), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@gmail.com", svc.smtpEmail)
	assert.Empty(t, svc.smtpPass)

	w = httptest.NewRecorder()
	ctrl.GetSMTPSettings(w, httptest.NewRequest("GET", "/api/v1/auth/settings/smtp", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProspect(t *testing.T) {
	svc := &fakeProspectService{}
	ctrl := &controller.ProspectController{ProspectService: svc}

	body := `{"first_name":"Ann","last_name":"Lee","email":"ann@acme.com","company_name":"Acme","company_website":"  ","job_title":"CTO"}`
	w := httptest.NewRecorder()
	ctrl.CreateProspect(w, authed(jsonRequest("POST", "/api/v1/prospects/", body), nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, svc.created.OwnerID)
	assert.Nil(t, svc.created.CompanyWebsite)
	assert.Equal(t, "CTO", *svc.created.JobTitle)
	assert.Equal(t, float64(7), decode(t, w)["id"])

	w = httptest.NewRecorder()
	ctrl.CreateProspect(w, authed(jsonRequest("POST", "/api/v1/prospects/", `{"first_name":"Ann"}`), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "last_name is required")
}

func TestListGetDeleteProspects(t *testing.T) {
	svc := &fakeProspectService{}
	ctrl := &controller.ProspectController{ProspectService: svc}

	w := httptest.NewRecorder()
	ctrl.ListProspects(w, authed(httptest.NewRequest("GET", "/api/v1/prospects/?skip=5&limit=20", nil), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.skip)
	assert.Equal(t, 20, svc.limit)

	w = httptest.NewRecorder()
	ctrl.ListProspects(w, authed(httptest.NewRequest("GET", "/api/v1/prospects/", nil), nil))
	assert.Equal(t, 100, svc.limit)

	w = httptest.NewRecorder()
	ctrl.ListProspects(w, authed(httptest.NewRequest("GET", "/api/v1/prospects/?limit=abc", nil), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	ctrl.GetProspect(w, authed(httptest.NewRequest("GET", "/api/v1/prospects/9", nil), map[string]string{"id": "9"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Prospect not found", decode(t, w)["detail"])

	w = httptest.NewRecorder()
	ctrl.GetProspect(w, authed(httptest.NewRequest("GET", "/api/v1/prospects/x", nil), map[string]string{"id": "x"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	ctrl.DeleteProspect(w, authed(httptest.NewRequest("DELETE", "/api/v1/prospects/1", nil), map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Prospect deleted", decode(t, w)["message"])
	assert.Equal(t, 1, svc.deletedID)
}

func TestResearchEndpoints(t *testing.T) {
	emails := &fakeEmailService{}
	ctrl := &controller.ResearchController{ResearchService: &fakeResearchService{}, EmailService: emails}

	w := httptest.NewRecorder()
	ctrl.GenerateEmailLine(w, authed(httptest.NewRequest("POST", "/", nil), map[string]string{"prospect_id": "1"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), decode(t, w)["email_log_id"])

	w = httptest.NewRecorder()
	ctrl.GenerateEmailLine(w, authed(httptest.NewRequest("POST", "/", nil), map[string]string{"prospect_id": "2"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	ctrl.GetLatestDraft(w, authed(httptest.NewRequest("GET", "/", nil), map[string]string{"prospect_id": "1"}))
	assert.Equal(t, `{"has_draft":false}`, strings.TrimSpace(w.Body.String()))

	// send with no body at all
	w = httptest.NewRecorder()
	ctrl.SendDraft(w, authed(httptest.NewRequest("POST", "/", nil), map[string]string{"email_log_id": "5"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Email sent and logged!", decode(t, w)["message"])

	w = httptest.NewRecorder()
	ctrl.SendDraft(w, authed(jsonRequest("POST", "/", `{"subject":"S","edited_body":"B"}`), map[string]string{"email_log_id": "5"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S", emails.subject)
	assert.Equal(t, "B", emails.body)

	emails.sendErr = appErrors.NewConflict("Email has already been sent")
	w = httptest.NewRecorder()
	ctrl.SendDraft(w, authed(httptest.NewRequest("POST", "/", nil), map[string]string{"email_log_id": "5"}))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	ctrl.SendBatch(w, authed(jsonRequest("POST", "/", `{"email_log_ids":[1,2]}`), nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int{1, 2}, emails.batch)

	w = httptest.NewRecorder()
	ctrl.SendBatch(w, authed(jsonRequest("POST", "/", `{"email_log_ids":[]}`), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	ctrl.MarkReplied(w, authed(httptest.NewRequest("POST", "/", nil), map[string]string{"email_log_id": "5"}))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyticsSummary(t *testing.T) {
	ctrl := &controller.AnalyticsController{AnalyticsService: &fakeAnalyticsService{}}

	w := httptest.NewRecorder()
	ctrl.Summary(w, authed(httptest.NewRequest("GET", "/api/v1/analytics/summary", nil), nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(3), body["data"].(map[string]any)["total_prospects"])
}
