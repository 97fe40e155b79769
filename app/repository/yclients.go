package repository

import (
	"context"
	"database/sql"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

type YClientsRepository struct {
	db DBTX
}

func NewYClientsRepository(db DBTX) *YClientsRepository {
	return &YClientsRepository{db: db}
}

func (r *YClientsRepository) FindByUserID(ctx context.Context, userID string) (*entity.YClientsCredential, error) {
	query := `
		SELECT id, user_id, yc_partner_token, yc_user_token, yclients_company_id, created_at, updated_at
		FROM yclients_info WHERE user_id = ?
	`
	cred := &entity.YClientsCredential{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.PartnerToken,
		&cred.UserToken,
		&cred.CompanyID,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// CreateEmpty inserts a blank credential row unless one already exists for the user.
func (r *YClientsRepository) CreateEmpty(ctx context.Context, cred *entity.YClientsCredential) error {
	query := `
		INSERT IGNORE INTO yclients_info (id, user_id, yc_partner_token, yc_user_token, yclients_company_id, created_at, updated_at)
		VALUES (?, ?, '', '', '', ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, cred.ID, cred.UserID, cred.CreatedAt, cred.UpdatedAt)
	return err
}

func (r *YClientsRepository) Upsert(ctx context.Context, cred *entity.YClientsCredential) error {
	query := `
		INSERT INTO yclients_info (id, user_id, yc_partner_token, yc_user_token, yclients_company_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			yc_partner_token = VALUES(yc_partner_token),
			yc_user_token = VALUES(yc_user_token),
			yclients_company_id = VALUES(yclients_company_id),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		cred.ID,
		cred.UserID,
		cred.PartnerToken,
		cred.UserToken,
		cred.CompanyID,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	return err
}
