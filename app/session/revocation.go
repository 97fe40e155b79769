package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const revokedKeyPrefix = "session:revoked:"

// RevocationStore keeps signed-out session ids until their natural expiry.
// A nil store, or one without a redis client, revokes nothing.
type RevocationStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb, now: time.Now}
}

func (s *RevocationStore) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if s == nil || s.rdb == nil || sessionID == "" {
		return nil
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err()
}

// IsRevoked fails open: a redis outage must not lock every user out.
func (s *RevocationStore) IsRevoked(ctx context.Context, sessionID string) bool {
	if s == nil || s.rdb == nil || sessionID == "" {
		return false
	}

	err := s.rdb.Get(ctx, revokedKeyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logrus.WithError(err).Warn("Session revocation lookup failed")
		return false
	}
	return true
}
