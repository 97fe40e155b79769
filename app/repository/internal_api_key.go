package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

type InternalAPIKeyRepository struct {
	db DBTX
}

func NewInternalAPIKeyRepository(db DBTX) *InternalAPIKeyRepository {
	return &InternalAPIKeyRepository{db: db}
}

const selectInternalAPIKeyColumns = `
		SELECT id, service_name, key_hash, allowed_access_json, is_active, expires_at, created_at, updated_at
		FROM internal_api_keys`

func (r *InternalAPIKeyRepository) Create(ctx context.Context, key *entity.InternalAPIKey) error {
	allowedTables, err := encodeAllowedTables(key.AllowedTables)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO internal_api_keys (
			service_name, key_hash, allowed_access_json, is_active, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		key.ServiceName,
		key.KeyHash,
		allowedTables,
		key.IsActive,
		key.ExpiresAt,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	key.ID = uint64(id)
	return nil
}

func (r *InternalAPIKeyRepository) FindActiveByHash(ctx context.Context, keyHash string, now time.Time) (*entity.InternalAPIKey, error) {
	row := r.db.QueryRowContext(ctx, selectInternalAPIKeyColumns+`
		WHERE key_hash = ? AND is_active = 1 AND expires_at > ?
		LIMIT 1`, keyHash, now)
	key, err := scanInternalAPIKey(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (r *InternalAPIKeyRepository) FindActiveByServiceName(ctx context.Context, serviceName string, now time.Time) ([]*entity.InternalAPIKey, error) {
	rows, err := r.db.QueryContext(ctx, selectInternalAPIKeyColumns+`
		WHERE service_name = ? AND is_active = 1 AND expires_at > ?
		ORDER BY id DESC`, serviceName, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]*entity.InternalAPIKey, 0)
	for rows.Next() {
		key, err := scanInternalAPIKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *InternalAPIKeyRepository) UpdateAllowedTables(ctx context.Context, id uint64, tables []string, now time.Time) error {
	allowedTables, err := encodeAllowedTables(tables)
	if err != nil {
		return err
	}

	query := `UPDATE internal_api_keys SET allowed_access_json = ?, updated_at = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query, allowedTables, now, id)
	return err
}

// Expire moves the key's expiry to expiresAt. Deactivated keys stop validating immediately.
func (r *InternalAPIKeyRepository) Expire(ctx context.Context, id uint64, expiresAt time.Time, active bool, now time.Time) error {
	query := `UPDATE internal_api_keys SET is_active = ?, expires_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, active, expiresAt, now, id)
	return err
}

func encodeAllowedTables(tables []string) (string, error) {
	if tables == nil {
		tables = []string{}
	}
	encoded, err := json.Marshal(tables)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func scanInternalAPIKey(scan rowScanner) (*entity.InternalAPIKey, error) {
	key := &entity.InternalAPIKey{}
	var allowedTablesJSON string
	if err := scan(
		&key.ID,
		&key.ServiceName,
		&key.KeyHash,
		&allowedTablesJSON,
		&key.IsActive,
		&key.ExpiresAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(allowedTablesJSON), &key.AllowedTables); err != nil {
		return nil, err
	}
	return key, nil
}
