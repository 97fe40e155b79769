package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

// UserChanges is a partial profile update. Nil fields are left untouched.
type UserChanges struct {
	Role        *entity.Role
	Name        *sql.NullString
	Phone       *sql.NullString
	DateOfBirth *sql.NullTime
}

func (c UserChanges) Empty() bool {
	return c.Role == nil && c.Name == nil && c.Phone == nil && c.DateOfBirth == nil
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const selectUserColumns = `
		SELECT u.id, u.email, u.password_hash, u.role, u.name, u.phone, u.date_of_birth, u.email_verified,
		       c.id, u.created_at, u.updated_at
		FROM users u
		LEFT JOIN campaign_info c ON c.user_id = u.id`

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, name, phone, date_of_birth, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Name,
		user.Phone,
		user.DateOfBirth,
		string(user.EmailVerified),
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, selectUserColumns+`
		WHERE u.email = ?`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, selectUserColumns+`
		WHERE u.id = ?`, id)
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkEmailVerified flips NOT_VERIFIED to VERIFIED and reports whether a row changed.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET email_verified = 'VERIFIED', updated_at = ?
		WHERE id = ? AND email_verified = 'NOT_VERIFIED'
	`
	result, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, now, id)
	return err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, changes UserChanges, now time.Time) error {
	if changes.Empty() {
		return nil
	}

	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if changes.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*changes.Role))
	}
	if changes.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *changes.Name)
	}
	if changes.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *changes.Phone)
	}
	if changes.DateOfBirth != nil {
		sets = append(sets, "date_of_birth = ?")
		args = append(args, *changes.DateOfBirth)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	var role, verified string
	if err := scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Name,
		&user.Phone,
		&user.DateOfBirth,
		&verified,
		&user.CampaignID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = entity.Role(role)
	user.EmailVerified = entity.VerificationStatus(verified)
	return user, nil
}
