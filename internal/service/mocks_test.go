package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/mailer"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/repository"
)

// MockUserRepo stores users in memory
type MockUserRepo struct {
	mu     sync.Mutex
	users  map[int]*model.User
	nextID int
}

var _ repository.UserRepositoryInterface = (*MockUserRepo)(nil)

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	r := &MockUserRepo{users: map[int]*model.User{}, nextID: 1}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (m *MockUserRepo) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *MockUserRepo) UpdateSMTPSettings(ctx context.Context, userID int, smtpEmail string, sealedPassword *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.SMTPEmail = &smtpEmail
	if sealedPassword != nil {
		u.SMTPPassword = sealedPassword
	}
	return nil
}

// MockProspectRepo stores prospects in memory
type MockProspectRepo struct {
	mu        sync.Mutex
	prospects map[int]*model.Prospect
	nextID    int
	deleted   []int
}

var _ repository.ProspectRepositoryInterface = (*MockProspectRepo)(nil)

func NewMockProspectRepo(prospects ...*model.Prospect) *MockProspectRepo {
	r := &MockProspectRepo{prospects: map[int]*model.Prospect{}, nextID: 1}
	for _, p := range prospects {
		r.prospects[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (m *MockProspectRepo) Create(ctx context.Context, p *model.Prospect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	m.prospects[p.ID] = p
	return nil
}

func (m *MockProspectRepo) GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prospects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, appErrors.NewProspectNotFound(id)
	}
	return p, nil
}

func (m *MockProspectRepo) GetByEmailForOwner(ctx context.Context, ownerID int, email string) (*model.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prospects {
		if p.OwnerID == ownerID && p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockProspectRepo) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]*model.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Prospect
	for id := m.nextID - 1; id > 0; id-- {
		if p, ok := m.prospects[id]; ok && p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockProspectRepo) CountByOwner(ctx context.Context, ownerID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.prospects {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *MockProspectRepo) Delete(ctx context.Context, ownerID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prospects[id]
	if !ok || p.OwnerID != ownerID {
		return appErrors.NewProspectNotFound(id)
	}
	delete(m.prospects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// MockEmailLogRepo mirrors the status guards of the SQL repository
type MockEmailLogRepo struct {
	mu        sync.Mutex
	logs      map[int]*model.EmailLog
	nextID    int
	prospects *MockProspectRepo

	markFailedErr error
}

var _ repository.EmailLogRepositoryInterface = (*MockEmailLogRepo)(nil)

func NewMockEmailLogRepo(prospects *MockProspectRepo, logs ...*model.EmailLog) *MockEmailLogRepo {
	r := &MockEmailLogRepo{logs: map[int]*model.EmailLog{}, nextID: 1, prospects: prospects}
	for _, e := range logs {
		r.logs[e.ID] = e
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
	}
	return r
}

func (m *MockEmailLogRepo) ownerOf(e *model.EmailLog) int {
	m.prospects.mu.Lock()
	defer m.prospects.mu.Unlock()
	if p, ok := m.prospects.prospects[e.ProspectID]; ok {
		return p.OwnerID
	}
	return 0
}

func (m *MockEmailLogRepo) Create(ctx context.Context, e *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	if e.Status == "" {
		e.Status = model.EmailStatusDraft
	}
	m.logs[e.ID] = e
	return nil
}

func (m *MockEmailLogRepo) GetByID(ctx context.Context, id int) (*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.logs[id]
	if !ok {
		return nil, appErrors.NewEmailLogNotFound(id)
	}
	cp := *e
	return &cp, nil
}

func (m *MockEmailLogRepo) GetByIDForOwner(ctx context.Context, ownerID, id int) (*model.EmailLog, error) {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ownerOf(e) != ownerID {
		return nil, appErrors.NewEmailLogNotFound(id)
	}
	return e, nil
}

func (m *MockEmailLogRepo) OwnerOf(ctx context.Context, id int) (int, error) {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return m.ownerOf(e), nil
}

func (m *MockEmailLogRepo) LatestForProspect(ctx context.Context, prospectID int) (*model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.EmailLog
	for _, e := range m.logs {
		if e.ProspectID == prospectID && (latest == nil || e.ID > latest.ID) {
			latest = e
		}
	}
	return latest, nil
}

func (m *MockEmailLogRepo) ClaimForSend(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.logs[id]
	if e == nil || !e.Sendable() {
		return false, nil
	}
	e.Status = model.EmailStatusSending
	return true, nil
}

func (m *MockEmailLogRepo) MarkSent(ctx context.Context, id int, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.logs[id]
	if e == nil || e.Status != model.EmailStatusSending {
		return appErrors.NewConflict("Email has already been sent")
	}
	now := time.Now()
	e.Status, e.Subject, e.FullBody, e.LastError, e.SentAt = model.EmailStatusSent, subject, body, "", &now
	return nil
}

func (m *MockEmailLogRepo) MarkFailed(ctx context.Context, id int, subject, body, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markFailedErr != nil {
		return m.markFailedErr
	}
	e := m.logs[id]
	if e != nil && e.Status == model.EmailStatusSending {
		e.Status, e.Subject, e.FullBody, e.LastError = model.EmailStatusFailed, subject, body, lastError
	}
	return nil
}

func (m *MockEmailLogRepo) MarkOpened(ctx context.Context, trackingToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.logs {
		if e.TrackingToken == trackingToken && e.Status == model.EmailStatusSent {
			e.Status = model.EmailStatusOpened
			return true, nil
		}
	}
	return false, nil
}

func (m *MockEmailLogRepo) MarkReplied(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.logs[id]
	if e == nil || (e.Status != model.EmailStatusSent && e.Status != model.EmailStatusOpened) {
		return false, nil
	}
	e.Status = model.EmailStatusReplied
	return true, nil
}

func (m *MockEmailLogRepo) CountByStatusForOwner(ctx context.Context, ownerID int) (map[string]int, error) {
	stats := map[string]int{}
	m.mu.Lock()
	logs := make([]*model.EmailLog, 0, len(m.logs))
	for _, e := range m.logs {
		logs = append(logs, e)
	}
	m.mu.Unlock()
	for _, e := range logs {
		if m.ownerOf(e) == ownerID {
			stats[e.Status]++
		}
	}
	return stats, nil
}

func (m *MockEmailLogRepo) status(id int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs[id].Status
}

// MockSender records messages instead of talking SMTP
type MockSender struct {
	mu    sync.Mutex
	err   error
	sent  []mailer.Message
	creds []mailer.Credentials
}

func (m *MockSender) Send(ctx context.Context, creds mailer.Credentials, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	m.creds = append(m.creds, creds)
	return nil
}

// MockQueue records published payloads
type MockQueue struct {
	published []any
	err       error
}

func (m *MockQueue) Publish(topic string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, payload)
	return nil
}

func (m *MockQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

type fakeScraper struct {
	text string
	err  error
	url  string
}

func (f *fakeScraper) ScrapeWebsite(ctx context.Context, url string) (string, error) {
	f.url = url
	return f.text, f.err
}

type fakeResearch struct {
	storeErr  error
	searchErr error
	result    string
	stored    []string
	deleted   []int
}

func (f *fakeResearch) StoreCompanyData(ctx context.Context, ownerID, prospectID int, company, text string) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, text)
	return nil
}

func (f *fakeResearch) SearchCompanyData(ctx context.Context, ownerID int, company, query string) (string, error) {
	return f.result, f.searchErr
}

func (f *fakeResearch) DeleteCompanyData(ctx context.Context, ownerID, prospectID int) error {
	f.deleted = append(f.deleted, prospectID)
	return nil
}

type fakeWriter struct {
	lastContext string
}

func (f *fakeWriter) GenerateOpeningLine(ctx context.Context, prospectName, companyName, scrapedContext string) string {
	f.lastContext = scrapedContext
	return "Saw " + companyName + " " + strings.Fields(scrapedContext + " news")[0] + "."
}

func strPtr(s string) *string { return &s }
