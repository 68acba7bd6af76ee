package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/01moynul/humanize-golang/internal/models"
)

// Querier is implemented by both *sql.DB and *sql.Tx, so helpers run in or out of a transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQL is the database/sql backed Store.
type MySQL struct {
	DB  *sql.DB
	now func() time.Time
}

// NewMySQL wraps an open connection pool.
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{DB: db, now: time.Now}
}

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

//
// --- Users ---
//

// CreateUser inserts the user and its empty credit record in one transaction.
func (s *MySQL) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_credits (user_id, credits, plan, free_plan_used, last_updated)
		VALUES (?, 0, '', 0, ?)`, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}
	return &models.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *MySQL) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

//
// --- Credit Ledger ---
//

func (s *MySQL) Account(ctx context.Context, userID int64) (models.Account, error) {
	return accountRow(ctx, s.DB, userID, false)
}

func accountRow(ctx context.Context, q Querier, userID int64, forUpdate bool) (models.Account, error) {
	query := `SELECT user_id, credits, plan, free_plan_used, last_updated FROM user_credits WHERE user_id = ?`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var a models.Account
	err := q.QueryRowContext(ctx, query, userID).Scan(&a.UserID, &a.Credits, &a.Plan, &a.FreePlanUsed, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load credits: %w", err)
	}
	return a, nil
}

// Decrement runs the decrement_user_credits procedure, which floors the balance at zero
// and selects the new value. There is no version check: concurrent sessions on the same
// account can race.
func (s *MySQL) Decrement(ctx context.Context, userID int64, amount int) (int, error) {
	var balance int
	err := s.DB.QueryRowContext(ctx, `CALL decrement_user_credits(?, ?)`, userID, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement credits: %w", err)
	}
	return balance, nil
}

// ActivatePlan sets the balance to the plan's credits. The free plan can be taken once.
func (s *MySQL) ActivatePlan(ctx context.Context, userID int64, plan models.Plan) (models.Account, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := accountRow(ctx, tx, userID, true)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Account{}, err
	}
	if plan.IsFree && current.FreePlanUsed {
		return models.Account{}, ErrFreePlanUsed
	}

	acct := models.Account{
		UserID:       userID,
		Credits:      plan.Credits,
		Plan:         plan.Slug,
		FreePlanUsed: current.FreePlanUsed || plan.IsFree,
		UpdatedAt:    s.now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_credits (user_id, credits, plan, free_plan_used, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			credits = VALUES(credits),
			plan = VALUES(plan),
			free_plan_used = VALUES(free_plan_used),
			last_updated = VALUES(last_updated)`,
		acct.UserID, acct.Credits, acct.Plan, acct.FreePlanUsed, acct.UpdatedAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to upsert credits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Account{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return acct, nil
}

//
// --- Projects ---
//

func (s *MySQL) CreateProject(ctx context.Context, p *models.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO projects (user_id, title, slug, input_text, output_text, credits_used, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Title, p.Slug, p.InputText, p.OutputText, p.CreditsUsed, p.Mode, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read project id: %w", err)
	}
	p.ID = id
	return nil
}

func (s *MySQL) ListProjects(ctx context.Context, userID int64) ([]models.ProjectSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, slug, credits_used, created_at
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 100`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.ProjectSummary{}
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.CreditsUsed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *MySQL) GetProject(ctx context.Context, userID, projectID int64) (*models.Project, error) {
	var p models.Project
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, slug, input_text, output_text, credits_used, mode, created_at
		FROM projects
		WHERE id = ? AND user_id = ?`, projectID, userID,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Slug, &p.InputText, &p.OutputText, &p.CreditsUsed, &p.Mode, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &p, nil
}

func (s *MySQL) DeleteProject(ctx context.Context, userID, projectID int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*MySQL)(nil)
