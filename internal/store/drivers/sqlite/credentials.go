package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/domain"
	"github.com/aussiebroadwan/yarnhub/internal/store"
)

type credentialsRepo struct {
	db dbtx
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (username, updated_at) VALUES (?, ?)`,
		username, time.Now().UTC())
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *credentialsRepo) SetEmailVerificationCode(ctx context.Context, username, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET email_verification_code = ?, email_verification_expires_at = ?, updated_at = ?
		 WHERE username = ?`,
		code, expiresAt.UTC(), time.Now().UTC(), username)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *credentialsRepo) SetPasswordResetCode(ctx context.Context, username, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET password_reset_code = ?, password_reset_expires_at = ?, updated_at = ?
		 WHERE username = ?`,
		code, expiresAt.UTC(), time.Now().UTC(), username)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *credentialsRepo) GetCredential(ctx context.Context, username string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT username, email_verification_code, email_verification_expires_at,
		        password_reset_code, password_reset_expires_at, updated_at
		 FROM credentials WHERE username = ?`, username)

	var c domain.Credential
	var evCode, prCode sql.NullString
	var evExp, prExp sql.NullTime

	err := row.Scan(&c.Username, &evCode, &evExp, &prCode, &prExp, &c.UpdatedAt)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}

	c.EmailVerificationCode = mapNullStringPtr(evCode)
	c.EmailVerificationExpiresAt = mapNullTimePtr(evExp)
	c.PasswordResetCode = mapNullStringPtr(prCode)
	c.PasswordResetExpiresAt = mapNullTimePtr(prExp)
	return c, nil
}

// ConsumeEmailVerificationCode clears the code in the same statement that
// matches it, so two concurrent consumers can never both succeed.
func (r *credentialsRepo) ConsumeEmailVerificationCode(ctx context.Context, username, code string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET email_verification_code = NULL, email_verification_expires_at = NULL, updated_at = ?
		 WHERE username = ?
		   AND email_verification_code = ?
		   AND email_verification_expires_at > ?`,
		now.UTC(), username, code, now.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *credentialsRepo) ConsumePasswordResetCode(ctx context.Context, username, code string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET password_reset_code = NULL, password_reset_expires_at = NULL, updated_at = ?
		 WHERE username = ?
		   AND password_reset_code = ?
		   AND password_reset_expires_at > ?`,
		now.UTC(), username, code, now.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *credentialsRepo) PurgeExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET email_verification_code = CASE WHEN email_verification_expires_at <= ?1 THEN NULL ELSE email_verification_code END,
		     email_verification_expires_at = CASE WHEN email_verification_expires_at <= ?1 THEN NULL ELSE email_verification_expires_at END,
		     password_reset_code = CASE WHEN password_reset_expires_at <= ?1 THEN NULL ELSE password_reset_code END,
		     password_reset_expires_at = CASE WHEN password_reset_expires_at <= ?1 THEN NULL ELSE password_reset_expires_at END
		 WHERE (email_verification_expires_at IS NOT NULL AND email_verification_expires_at <= ?1)
		    OR (password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= ?1)`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mustAffect(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
