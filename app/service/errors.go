package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists              = errors.New("user already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidOrExpiredToken   = errors.New("invalid or expired token")
	ErrInvalidConfirmationLink = errors.New("invalid confirmation link")
	ErrEmailAlreadyConfirmed   = errors.New("email is already confirmed")
	ErrPasswordMismatch        = errors.New("passwords do not match")
	ErrWeakPassword            = errors.New("password does not meet policy requirements")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidDateOfBirth      = errors.New("invalid date of birth")
	ErrNoProfileChanges        = errors.New("no profile fields to update")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignExists          = errors.New("user already has a campaign")
	ErrNoCampaignChanges       = errors.New("no campaign fields to update")
	ErrInvalidIdentifier       = errors.New("invalid identifier")
	ErrInvalidFilterValue      = errors.New("filter value must be a string, number, boolean or null")
	ErrTableNotAllowed         = errors.New("table is not allowed for this api key")
)

// IntegrationError wraps a failure reported by an upstream system. Message is
// safe to return to the caller as is.
type IntegrationError struct {
	Message string
	Err     error
}

func (e *IntegrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// IdentifierError names the part of a query that failed identifier checks.
type IdentifierError struct {
	Kind string
}

func (e *IdentifierError) Error() string {
	return "Invalid " + e.Kind
}

func (e *IdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}
