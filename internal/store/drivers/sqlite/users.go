package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, password_hash, role, bio, is_active, is_email_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Bio,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`,
		identifier, identifier)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, bio, is_active, is_email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.Bio,
		u.IsActive, u.IsEmailVerified, now, now,
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) SetEmailVerified(ctx context.Context, username string, verified bool) error {
	return r.execOne(ctx,
		`UPDATE users SET is_email_verified = ?, updated_at = ? WHERE username = ?`,
		verified, time.Now().UTC(), username)
}

func (r *usersRepo) UpdateBio(ctx context.Context, username string, bio string) error {
	return r.execOne(ctx,
		`UPDATE users SET bio = ?, updated_at = ? WHERE username = ?`,
		bio, time.Now().UTC(), username)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, username string, newHash string) error {
	return r.execOne(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`,
		newHash, time.Now().UTC(), username)
}

func (r *usersRepo) SetActive(ctx context.Context, username string, active bool) error {
	return r.execOne(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE username = ?`,
		active, time.Now().UTC(), username)
}

func (r *usersRepo) SetRole(ctx context.Context, username string, role domain.Role) error {
	return r.execOne(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE username = ?`,
		string(role), time.Now().UTC(), username)
}

func (r *usersRepo) ListByActive(ctx context.Context, active bool, offset, limit int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		active, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// execOne runs an UPDATE that should touch exactly one row, mapping zero
// rows to ErrNotFound.
func (r *usersRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
