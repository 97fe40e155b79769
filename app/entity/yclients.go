package entity

import "time"

type YClientsCredential struct {
	ID           string
	UserID       string
	PartnerToken string
	UserToken    string
	CompanyID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
