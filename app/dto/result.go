package dto

import (
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
)

// AuthResult is returned by every flow that ends with a fresh session.
type AuthResult struct {
	UserID        string
	EmailVerified entity.VerificationStatus
	SessionToken  string
	ExpiresIn     time.Duration
}

type InternalAccessResult struct {
	ServiceName   string
	AllowedTables []string
}
