// Package store persists users, credit balances and projects.
// MySQL is the production backend; Memory serves local runs and tests.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/humanize-golang/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
	ErrFreePlanUsed = errors.New("free plan already used")
)

// Store is everything the API needs from persistence.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	// Account and Decrement make a Store usable as the credit ledger.
	Account(ctx context.Context, userID int64) (models.Account, error)
	Decrement(ctx context.Context, userID int64, amount int) (int, error)
	ActivatePlan(ctx context.Context, userID int64, plan models.Plan) (models.Account, error)

	CreateProject(ctx context.Context, p *models.Project) error
	ListProjects(ctx context.Context, userID int64) ([]models.ProjectSummary, error)
	GetProject(ctx context.Context, userID, projectID int64) (*models.Project, error)
	DeleteProject(ctx context.Context, userID, projectID int64) error
}
