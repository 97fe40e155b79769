package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

type PasswordResetTokenRepository struct {
	db DBTX
}

func NewPasswordResetTokenRepository(db DBTX) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: db}
}

func (r *PasswordResetTokenRepository) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// FindActiveByHashForUpdate locks an unused, unexpired token row. Callers must
// run it inside a transaction.
func (r *PasswordResetTokenRepository) FindActiveByHashForUpdate(ctx context.Context, tokenHash string, now time.Time) (*entity.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?
		FOR UPDATE
	`
	token := &entity.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *PasswordResetTokenRepository) MarkUsed(ctx context.Context, id string, now time.Time) error {
	query := `UPDATE password_reset_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

// DeleteStale removes tokens that expired or were used before cutoff.
func (r *PasswordResetTokenRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)
	`
	result, err := r.db.ExecContext(ctx, query, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
