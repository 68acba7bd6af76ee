package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/humanize-golang/internal/humanize"
	"github.com/01moynul/humanize-golang/internal/models"
)

// Memory is a process-local Store used when no database is configured.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	nextUser int64
	nextProj int64
	users    map[string]*models.User
	accounts map[int64]models.Account
	projects map[int64]*models.Project
}

func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		users:    make(map[string]*models.User),
		accounts: make(map[int64]models.Account),
		projects: make(map[int64]*models.Project),
	}
}

func (m *Memory) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := m.users[key]; ok {
		return nil, ErrDuplicate
	}
	m.nextUser++
	now := m.now().UTC()
	u := &models.User{ID: m.nextUser, Email: email, PasswordHash: passwordHash, CreatedAt: now}
	m.users[key] = u
	m.accounts[u.ID] = models.Account{UserID: u.ID, UpdatedAt: now}

	cp := *u
	return &cp, nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) Account(ctx context.Context, userID int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) Decrement(ctx context.Context, userID int64, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return 0, ErrNotFound
	}
	a.Credits = humanize.Decrement(a.Credits, amount)
	a.UpdatedAt = m.now().UTC()
	m.accounts[userID] = a
	return a.Credits, nil
}

func (m *Memory) ActivatePlan(ctx context.Context, userID int64, plan models.Plan) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.accounts[userID]
	if plan.IsFree && current.FreePlanUsed {
		return models.Account{}, ErrFreePlanUsed
	}
	a := models.Account{
		UserID:       userID,
		Credits:      plan.Credits,
		Plan:         plan.Slug,
		FreePlanUsed: current.FreePlanUsed || plan.IsFree,
		UpdatedAt:    m.now().UTC(),
	}
	m.accounts[userID] = a
	return a, nil
}

func (m *Memory) CreateProject(ctx context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextProj++
	p.ID = m.nextProj
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now().UTC()
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *Memory) ListProjects(ctx context.Context, userID int64) ([]models.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.ProjectSummary{}
	for _, p := range m.projects {
		if p.UserID != userID {
			continue
		}
		out = append(out, models.ProjectSummary{
			ID: p.ID, Title: p.Title, Slug: p.Slug, CreditsUsed: p.CreditsUsed, CreatedAt: p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetProject(ctx context.Context, userID, projectID int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) DeleteProject(ctx context.Context, userID, projectID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(m.projects, projectID)
	return nil
}

var _ Store = (*Memory)(nil)
