package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/entity"
)

var (
	ErrInvalidInternalAPIKey    = errors.New("invalid or expired internal api key")
	ErrServiceHasActiveAPIKey   = errors.New("service already has an active api key")
	ErrServiceHasNoActiveAPIKey = errors.New("service has no active api key")
	ErrInvalidRegenerationTTL   = errors.New("invalid regeneration ttl")
)

const internalKeyLifetimeYears = 100

type InternalAPIKeyRepository interface {
	Create(ctx context.Context, key *entity.InternalAPIKey) error
	FindActiveByHash(ctx context.Context, keyHash string, now time.Time) (*entity.InternalAPIKey, error)
	FindActiveByServiceName(ctx context.Context, serviceName string, now time.Time) ([]*entity.InternalAPIKey, error)
	UpdateAllowedTables(ctx context.Context, id uint64, tables []string, now time.Time) error
	Expire(ctx context.Context, id uint64, expiresAt time.Time, active bool, now time.Time) error
}

// InternalAuthService manages the keys other backends use for /db/query.
type InternalAuthService interface {
	ValidateInternalAPIKey(ctx context.Context, apiKey string) (*dto.InternalAccessResult, error)
	GenerateInternalAPIKey(ctx context.Context, serviceName string) (string, error)
	AllowTable(ctx context.Context, serviceName, table string) error
	DeactivateInternalAPIKeys(ctx context.Context, serviceName string) (int, error)
	RegenerateInternalAPIKey(ctx context.Context, serviceName string, oldKeyTTL time.Duration) (string, error)
}

type internalAuthService struct {
	internalAPIKeyRepo InternalAPIKeyRepository
	now                func() time.Time
}

func NewInternalAuthService(internalAPIKeyRepo InternalAPIKeyRepository) InternalAuthService {
	return &internalAuthService{internalAPIKeyRepo: internalAPIKeyRepo, now: time.Now}
}

func (s *internalAuthService) ValidateInternalAPIKey(ctx context.Context, apiKey string) (*dto.InternalAccessResult, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrInvalidInternalAPIKey
	}

	key, err := s.internalAPIKeyRepo.FindActiveByHash(ctx, hashInternalAPIKey(apiKey), s.now())
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrInvalidInternalAPIKey
	}

	return &dto.InternalAccessResult{
		ServiceName:   key.ServiceName,
		AllowedTables: key.AllowedTables,
	}, nil
}

func (s *internalAuthService) GenerateInternalAPIKey(ctx context.Context, serviceName string) (string, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return "", errors.New("service name is required")
	}

	now := s.now()
	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, now)
	if err != nil {
		return "", err
	}
	if len(activeKeys) > 0 {
		return "", ErrServiceHasActiveAPIKey
	}

	return s.createKey(ctx, serviceName, []string{}, now)
}

// AllowTable grants read access to table on every active key of the service.
// "*" grants every table.
func (s *internalAuthService) AllowTable(ctx context.Context, serviceName, table string) error {
	serviceName = strings.TrimSpace(serviceName)
	table = strings.TrimSpace(table)
	if serviceName == "" {
		return errors.New("service name is required")
	}
	if table == "" {
		return errors.New("table is required")
	}
	if table != entity.WildcardTable && !identifierPattern.MatchString(table) {
		return &IdentifierError{Kind: "table"}
	}

	now := s.now()
	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, now)
	if err != nil {
		return err
	}
	if len(activeKeys) == 0 {
		return ErrServiceHasNoActiveAPIKey
	}

	for _, key := range activeKeys {
		if containsString(key.AllowedTables, table) {
			continue
		}

		tables := append(append([]string{}, key.AllowedTables...), table)
		sort.Strings(tables)
		if err = s.internalAPIKeyRepo.UpdateAllowedTables(ctx, key.ID, tables, now); err != nil {
			return err
		}
	}

	return nil
}

func (s *internalAuthService) DeactivateInternalAPIKeys(ctx context.Context, serviceName string) (int, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return 0, errors.New("service name is required")
	}

	now := s.now()
	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, now)
	if err != nil {
		return 0, err
	}
	if len(activeKeys) == 0 {
		return 0, ErrServiceHasNoActiveAPIKey
	}

	for _, key := range activeKeys {
		if err = s.internalAPIKeyRepo.Expire(ctx, key.ID, now, false, now); err != nil {
			return 0, err
		}
	}

	return len(activeKeys), nil
}

// RegenerateInternalAPIKey issues a fresh key with the union of the current
// grants. Old keys keep working for oldKeyTTL.
func (s *internalAuthService) RegenerateInternalAPIKey(ctx context.Context, serviceName string, oldKeyTTL time.Duration) (string, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return "", errors.New("service name is required")
	}
	if oldKeyTTL <= 5*time.Minute {
		return "", ErrInvalidRegenerationTTL
	}

	now := s.now()
	activeKeys, err := s.internalAPIKeyRepo.FindActiveByServiceName(ctx, serviceName, now)
	if err != nil {
		return "", err
	}
	if len(activeKeys) == 0 {
		return "", ErrServiceHasNoActiveAPIKey
	}

	tableSet := make(map[string]struct{})
	for _, key := range activeKeys {
		for _, table := range key.AllowedTables {
			tableSet[table] = struct{}{}
		}
	}

	tables := make([]string, 0, len(tableSet))
	for table := range tableSet {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	expireOldAt := now.Add(oldKeyTTL)
	for _, key := range activeKeys {
		if err = s.internalAPIKeyRepo.Expire(ctx, key.ID, expireOldAt, true, now); err != nil {
			return "", err
		}
	}

	return s.createKey(ctx, serviceName, tables, now)
}

func (s *internalAuthService) createKey(ctx context.Context, serviceName string, tables []string, now time.Time) (string, error) {
	rawKey, keyHash, err := generateInternalAPIKey()
	if err != nil {
		return "", err
	}

	key := &entity.InternalAPIKey{
		ServiceName:   serviceName,
		KeyHash:       keyHash,
		AllowedTables: tables,
		IsActive:      true,
		ExpiresAt:     now.AddDate(internalKeyLifetimeYears, 0, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = s.internalAPIKeyRepo.Create(ctx, key); err != nil {
		return "", err
	}

	return rawKey, nil
}

func generateInternalAPIKey() (string, string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	rawKey := "sbint_" + hex.EncodeToString(secret)
	return rawKey, hashInternalAPIKey(rawKey), nil
}

func hashInternalAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func containsString(values []string, candidate string) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}
