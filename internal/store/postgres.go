// Package store provides the Postgres persistence layer for accounts, search
// profiles and the job-posting feed.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobdesk-core/internal/config"
	"jobdesk-core/pkg/models"
)

// Postgres wraps a pgx connection pool with the queries this service needs.
type Postgres struct {
	pool *pgxpool.Pool
}

// New connects to Postgres using the configured DSN and verifies the
// connection with a ping.
func New(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	poolCfg.ConnConfig.ConnectTimeout = cfg.Postgres.ConnectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.Postgres.ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks connectivity for health reporting.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// ─── Accounts ────────────────────────────────────────────────────────────────

// GetAccount loads an account by ID.
func (p *Postgres) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	const q = `
		SELECT id, email, password_hash, auth_provider, premium, created_at
		FROM accounts
		WHERE id = $1`

	var a models.Account
	err := p.pool.QueryRow(ctx, q, userID).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.AuthProvider, &a.Premium, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", userID, err)
	}
	return &a, nil
}

// UpdateEmail replaces the account's email address.
func (p *Postgres) UpdateEmail(ctx context.Context, userID, email string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE accounts SET email = $2, updated_at = now() WHERE id = $1`, userID, email)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update email: account %s not found", userID)
	}
	return nil
}

// UpdatePassword replaces the account's password hash.
func (p *Postgres) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: account %s not found", userID)
	}
	return nil
}

// ─── Search profiles ─────────────────────────────────────────────────────────

const profileColumns = `
	id, user_id, job_titles, technical_skills, employment_types,
	country, min_salary, active, updated_at`

// GetSearchProfile loads a search profile by ID.
func (p *Postgres) GetSearchProfile(ctx context.Context, profileID string) (*models.SearchProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM search_profiles WHERE id = $1`

	var (
		sp    models.SearchProfile
		types []string
	)
	err := p.pool.QueryRow(ctx, q, profileID).Scan(
		&sp.ID, &sp.UserID, &sp.JobTitles, &sp.TechnicalSkills, &types,
		&sp.Country, &sp.MinSalary, &sp.Active, &sp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get search profile %s: %w", profileID, err)
	}
	sp.EmploymentTypes = parseEmploymentTypes(types)
	return &sp, nil
}

// ListActiveProfiles returns every profile with matching enabled.
func (p *Postgres) ListActiveProfiles(ctx context.Context) ([]models.SearchProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM search_profiles WHERE active ORDER BY updated_at DESC`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.SearchProfile, 0)
	for rows.Next() {
		var (
			sp    models.SearchProfile
			types []string
		)
		if err := rows.Scan(
			&sp.ID, &sp.UserID, &sp.JobTitles, &sp.TechnicalSkills, &types,
			&sp.Country, &sp.MinSalary, &sp.Active, &sp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan search profile: %w", err)
		}
		sp.EmploymentTypes = parseEmploymentTypes(types)
		profiles = append(profiles, sp)
	}
	return profiles, rows.Err()
}

// ─── Job postings ────────────────────────────────────────────────────────────

const postingColumns = `
	id, title, company_name, location, required_skills,
	salary_min, salary_max, COALESCE(salary_currency, ''), employment_types, posted_at`

// ListJobPostings returns the newest postings, most recent first.
func (p *Postgres) ListJobPostings(ctx context.Context, limit int) ([]models.JobPosting, error) {
	q := `SELECT ` + postingColumns + ` FROM job_postings ORDER BY posted_at DESC LIMIT $1`

	rows, err := p.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list job postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// ListJobPostingsSince returns postings that arrived after the given time.
func (p *Postgres) ListJobPostingsSince(ctx context.Context, since time.Time) ([]models.JobPosting, error) {
	q := `SELECT ` + postingColumns + ` FROM job_postings WHERE posted_at > $1 ORDER BY posted_at DESC`

	rows, err := p.pool.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("list job postings since %s: %w", since, err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPostings(rows pgxRows) ([]models.JobPosting, error) {
	postings := make([]models.JobPosting, 0)
	for rows.Next() {
		var (
			jp    models.JobPosting
			types []string
		)
		if err := rows.Scan(
			&jp.ID, &jp.Title, &jp.CompanyName, &jp.Location, &jp.RequiredSkills,
			&jp.SalaryMin, &jp.SalaryMax, &jp.SalaryCurrency, &types, &jp.PostedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job posting: %w", err)
		}
		jp.EmploymentTypes = parseEmploymentTypes(types)
		postings = append(postings, jp)
	}
	return postings, rows.Err()
}

// parseEmploymentTypes drops values that are not part of the enum rather than
// failing the whole row.
func parseEmploymentTypes(raw []string) []models.EmploymentType {
	if len(raw) == 0 {
		return nil
	}
	types := make([]models.EmploymentType, 0, len(raw))
	for _, s := range raw {
		if et, err := models.ParseEmploymentType(s); err == nil {
			types = append(types, et)
		}
	}
	return types
}
