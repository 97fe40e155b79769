package types

import (
	"errors"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"

	"github.com/labstack/echo/v4"
)

const DateLayout = "2006-01-02"

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func NewSignUpRequestFromContext(ctx echo.Context) (*SignUpRequest, error) {
	var body SignUpRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *SignUpRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("Email and password are required")
	}
	if r.Role != "" && !entity.Role(r.Role).Valid() {
		return errors.New("Invalid role")
	}
	if r.DateOfBirth != "" {
		if _, err := ParseDate(r.DateOfBirth); err != nil {
			return errors.New("Invalid date_of_birth")
		}
	}

	return nil
}

// RoleOrDefault falls back to USER when no role was requested.
func (r *SignUpRequest) RoleOrDefault() entity.Role {
	if r.Role == "" {
		return entity.RoleUser
	}
	return entity.Role(r.Role)
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewSignInRequestFromContext(ctx echo.Context) (*SignInRequest, error) {
	var body SignInRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *SignInRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("Email and password are required")
	}

	return nil
}

type ConfirmEmailRequest struct {
	AccessToken string
}

func NewConfirmEmailRequestFromContext(ctx echo.Context) *ConfirmEmailRequest {
	return &ConfirmEmailRequest{AccessToken: strings.TrimSpace(ctx.QueryParam("access_token"))}
}

func (r *ConfirmEmailRequest) Validate() error {
	if r.AccessToken == "" {
		return errors.New("Invalid confirmation link")
	}

	return nil
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

func NewRequestPasswordResetRequestFromContext(ctx echo.Context) (*RequestPasswordResetRequest, error) {
	var body RequestPasswordResetRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RequestPasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("Email is required")
	}

	return nil
}

type NewPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AccessToken     string `json:"access_token"`

	// RefreshToken is accepted for older clients and ignored.
	RefreshToken string `json:"refresh_token,omitempty"`
}

func NewNewPasswordRequestFromContext(ctx echo.Context) (*NewPasswordRequest, error) {
	var body NewPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *NewPasswordRequest) Validate() error {
	if r.Password == "" || r.ConfirmPassword == "" {
		return errors.New("Password and confirm password are required")
	}
	if strings.TrimSpace(r.AccessToken) == "" {
		return errors.New("Access token is required")
	}

	return nil
}

type UpdateProfileRequest struct {
	Role        OptionalString `json:"role"`
	Name        OptionalString `json:"name"`
	Phone       OptionalString `json:"phone"`
	DateOfBirth OptionalString `json:"date_of_birth"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Empty() bool {
	return !r.Role.Set && !r.Name.Set && !r.Phone.Set && !r.DateOfBirth.Set
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Empty() {
		return errors.New("No data provided for update")
	}
	if r.Role.Set && (!r.Role.Valid || !entity.Role(r.Role.Value).Valid()) {
		return errors.New("Invalid role")
	}
	if r.DateOfBirth.Set && r.DateOfBirth.Valid {
		if _, err := ParseDate(r.DateOfBirth.Value); err != nil {
			return errors.New("Invalid date_of_birth")
		}
	}

	return nil
}

type AuthResponse struct {
	ID            string `json:"id"`
	EmailVerified string `json:"email_verified"`
}

type NewPasswordResponse struct {
	Message       string `json:"message"`
	ID            string `json:"id"`
	EmailVerified string `json:"email_verified"`
}

type ProfileResponse struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Role             string  `json:"role"`
	Name             *string `json:"name,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	EmailVerified    string  `json:"email_verified"`
	RegistrationDate string  `json:"registration_date"`
	CampaignID       *string `json:"campaign_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// ParseDate accepts a calendar date, optionally followed by a time component.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Parse(DateLayout, value)
}
