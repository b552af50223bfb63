package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// UserRepository is the Postgres implementation of domain.UserRepository.
//
// The is_people_manager column is text for backward compatibility with
// records written before the flag became a boolean ("yes"/"Yes"/"no").
// Normalization happens on every read so the rest of the code only ever
// sees a bool; MigratePeopleManagerFlags rewrites stored values in place.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id::text, coalesce(firebase_uid, ''), email, name, first_name, last_name,
	coalesce(role, ''), is_people_manager, team_lead, coalesce(is_active, true),
	created_at, updated_at, last_login_at
`

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	var peopleManager *string

	err := row.Scan(
		&u.ID,
		&u.FirebaseUID,
		&u.Email,
		&u.Name,
		&u.FirstName,
		&u.LastName,
		&role,
		&peopleManager,
		&u.TeamLead,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.IsPeopleManager = domain.NormalizePeopleManager(peopleManager)
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *UserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE firebase_uid = $1`
	return r.scanUser(r.db.QueryRow(ctx, q, uid))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return r.queryUsers(ctx, q)
}

func (r *UserRepository) ListPeopleManagers(ctx context.Context) ([]*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
		WHERE lower(coalesce(is_people_manager, '')) IN ('true', 'yes')
		ORDER BY created_at DESC`
	return r.queryUsers(ctx, q)
}

func (r *UserRepository) queryUsers(ctx context.Context, q string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	q := `
		INSERT INTO users (firebase_uid, email, name, first_name, last_name,
			role, is_people_manager, team_lead, is_active)
		VALUES (nullif($1, ''), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, q,
		u.FirebaseUID,
		u.Email,
		u.Name,
		u.FirstName,
		u.LastName,
		string(u.Role),
		boolToFlag(u.IsPeopleManager),
		u.TeamLead,
		u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	q := `
		UPDATE users
		SET email = $2, name = $3, first_name = $4, last_name = $5,
			role = $6, is_people_manager = $7, team_lead = $8,
			is_active = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, q,
		u.ID,
		u.Email,
		u.Name,
		u.FirstName,
		u.LastName,
		string(u.Role),
		boolToFlag(u.IsPeopleManager),
		u.TeamLead,
		u.IsActive,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MigratePeopleManagerFlags is the one-time pass that rewrites legacy
// "yes"/"no" people-manager values (and fills missing ones) so the
// column only holds 'true' or 'false' afterwards.
func (r *UserRepository) MigratePeopleManagerFlags(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_people_manager = CASE
			WHEN lower(coalesce(is_people_manager, '')) IN ('yes', 'true') THEN 'true'
			ELSE 'false'
		END
		WHERE is_people_manager IS NULL
		   OR is_people_manager NOT IN ('true', 'false')
	`)
	if err != nil {
		return 0, fmt.Errorf("migrate people manager flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FixRoleCapitalization rewrites lowercase role labels to canonical
// capitalization ("ops admin" -> "Ops Admin"). Unknown labels are left
// untouched.
func (r *UserRepository) FixRoleCapitalization(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET role = fixed.proper
		FROM (VALUES
			('admin', 'Admin'),
			('ops admin', 'Ops Admin'),
			('team lead', 'Team Lead'),
			('kyc analyst', 'KYC Analyst'),
			('qc analyst', 'QC Analyst')
		) AS fixed(lowered, proper)
		WHERE lower(users.role) = fixed.lowered
		  AND users.role <> fixed.proper
	`)
	if err != nil {
		return 0, fmt.Errorf("fix role capitalization: %w", err)
	}
	return tag.RowsAffected(), nil
}

func boolToFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
