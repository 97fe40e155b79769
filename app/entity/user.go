package entity

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleUser     Role = "USER"
	RoleCampaign Role = "CAMPAIGN"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCampaign, RoleAdmin:
		return true
	}
	return false
}

type VerificationStatus string

const (
	EmailVerified    VerificationStatus = "VERIFIED"
	EmailNotVerified VerificationStatus = "NOT_VERIFIED"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          Role
	Name          sql.NullString
	Phone         sql.NullString
	DateOfBirth   sql.NullTime
	EmailVerified VerificationStatus

	// CampaignID is read from campaign_info and never written through users.
	CampaignID sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}
