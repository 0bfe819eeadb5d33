// Package postgres implements the Credential Store on the admin_users table
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// uniqueViolation is the SQLSTATE for a unique constraint conflict
const uniqueViolation = "23505"

const selectAdmin = `
	SELECT id::text, username, password_hash, role, is_active,
	       active_session_id, last_login_at, created_at, updated_at
	FROM admin_users
`

// AdminRepository stores admin accounts in PostgreSQL
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a repository on an existing pool
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_users (id, username, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
	`, admin.ID, admin.Username, admin.PasswordHash, admin.Role, admin.IsActive, admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.pool.QueryRow(ctx, selectAdmin+" WHERE username = $1", username).Scan(
		&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Role, &admin.IsActive,
		&admin.ActiveSessionID, &admin.LastLoginAt, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM admin_users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (r *AdminRepository) SetActive(ctx context.Context, username string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE admin_users SET is_active = $2, updated_at = NOW() WHERE username = $1",
		username, active,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) SetActiveSession(ctx context.Context, username, sessionID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admin_users
		SET active_session_id = $2, last_login_at = $3, updated_at = $3
		WHERE username = $1 AND is_active = true
	`, username, sessionID, at)
	if err != nil {
		return fmt.Errorf("set active session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) ClearActiveSession(ctx context.Context, username, sessionID string) (bool, error) {
	// The CTE reports whether the user exists even when the guarded update matches nothing
	var exists, cleared bool
	err := r.pool.QueryRow(ctx, `
		WITH cleared AS (
			UPDATE admin_users
			SET active_session_id = NULL, updated_at = NOW()
			WHERE username = $1
			  AND active_session_id IS NOT NULL
			  AND ($2::text = '' OR active_session_id = $2::text)
			RETURNING 1
		)
		SELECT EXISTS (SELECT 1 FROM admin_users WHERE username = $1),
		       EXISTS (SELECT 1 FROM cleared)
	`, username, sessionID).Scan(&exists, &cleared)
	if err != nil {
		return false, fmt.Errorf("clear active session: %w", err)
	}
	if !exists {
		return false, repositories.ErrNotFound
	}
	return cleared, nil
}

func (r *AdminRepository) ClearAllActiveSessions(ctx context.Context) ([]string, error) {
	return r.clearReturning(ctx, `
		UPDATE admin_users
		SET active_session_id = NULL, updated_at = NOW()
		WHERE active_session_id IS NOT NULL
		RETURNING username
	`)
}

func (r *AdminRepository) ClearSessionsStartedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	return r.clearReturning(ctx, `
		UPDATE admin_users
		SET active_session_id = NULL, updated_at = NOW()
		WHERE active_session_id IS NOT NULL AND last_login_at < $1
		RETURNING username
	`, cutoff)
}

func (r *AdminRepository) clearReturning(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clear sessions: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("clear sessions: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

var _ repositories.AdminRepository = (*AdminRepository)(nil)
