package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/supabase"
	"github.com/worckyky/sport-booking-backend/app/types"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	metadataRole        = "role"
	metadataName        = "name"
	metadataPhone       = "phone"
	metadataDateOfBirth = "date_of_birth"
)

const discardIdentityTimeout = 10 * time.Second

type identityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}, redirectTo string) (*supabase.User, *supabase.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	UpdatePassword(ctx context.Context, accessToken, password string) (*supabase.User, error)
	Recover(ctx context.Context, email, redirectTo string) error
	Logout(ctx context.Context, accessToken string) error
	AdminGetUser(ctx context.Context, id string) (*supabase.User, error)
	AdminUpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*supabase.User, error)
	AdminDeleteUser(ctx context.Context, id string) error
}

type campaignStore interface {
	Create(ctx context.Context, campaign *entity.Campaign) error
	FindByUserID(ctx context.Context, userID string) (*entity.Campaign, error)
}

type managedAuthService struct {
	authOptions
	provider  identityProvider
	campaigns campaignStore
	cfg       *config.Config
}

// NewManagedAuthService delegates identities and sessions to Supabase. Only
// campaigns stay in the local database.
func NewManagedAuthService(provider identityProvider, campaigns campaignStore, cfg *config.Config, opts ...AuthServiceOption) AuthService {
	svc := &managedAuthService{
		authOptions: defaultAuthOptions(),
		provider:    provider,
		campaigns:   campaigns,
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(&svc.authOptions)
	}
	return svc
}

func (s *managedAuthService) SignUp(ctx context.Context, req *types.SignUpRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("signup", err) }()

	role := req.RoleOrDefault()
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	metadata := map[string]interface{}{metadataRole: string(role)}
	if req.Name != "" {
		metadata[metadataName] = req.Name
	}
	if req.Phone != "" {
		metadata[metadataPhone] = req.Phone
	}
	if req.DateOfBirth != "" {
		metadata[metadataDateOfBirth] = req.DateOfBirth
	}

	email := NormalizeEmail(req.Email)
	user, session, err := s.provider.SignUp(ctx, email, req.Password, metadata, s.cfg.Frontend.ConfirmBaseURL+"/confirm")
	if err != nil {
		return nil, mapProviderError(err, nil)
	}

	if role == entity.RoleCampaign {
		campaign := defaultCampaign(uuid.New().String(), user.ID, req.Name, email, s.now())
		if err = s.campaigns.Create(ctx, campaign); err != nil {
			s.discardIdentity(user.ID, email, err)
			return nil, err
		}
	}

	result := &dto.AuthResult{UserID: user.ID, EmailVerified: verificationStatus(user)}
	if session != nil {
		result.SessionToken = session.AccessToken
		result.ExpiresIn = time.Duration(session.ExpiresIn) * time.Second
	}
	return result, nil
}

// discardIdentity removes a provider account whose local campaign could not be
// stored, so the email can sign up again.
func (s *managedAuthService) discardIdentity(userID, email string, cause error) {
	entry := logrus.WithError(cause).WithFields(logrus.Fields{
		"user_id": userID,
		"email":   email,
	})

	ctx, cancel := context.WithTimeout(context.Background(), discardIdentityTimeout)
	defer cancel()
	if err := s.provider.AdminDeleteUser(ctx, userID); err != nil {
		entry.WithField("delete_error", err.Error()).Error("Campaign creation failed and provider account could not be removed")
		return
	}
	entry.Warn("Campaign creation failed, provider account removed")
}

func (s *managedAuthService) SignIn(ctx context.Context, req *types.SignInRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("signin", err) }()

	session, err := s.provider.SignInWithPassword(ctx, NormalizeEmail(req.Email), req.Password)
	if err != nil {
		return nil, mapProviderError(err, ErrInvalidCredentials)
	}
	if session.User == nil {
		return nil, ErrInvalidCredentials
	}

	return &dto.AuthResult{
		UserID:        session.User.ID,
		EmailVerified: verificationStatus(session.User),
		SessionToken:  session.AccessToken,
		ExpiresIn:     time.Duration(session.ExpiresIn) * time.Second,
	}, nil
}

func (s *managedAuthService) ConfirmEmail(ctx context.Context, token string) (res *dto.AuthResult, err error) {
	defer func() { s.record("confirm", err) }()

	user, err := s.provider.GetUser(ctx, token)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			return nil, ErrInvalidConfirmationLink
		}
		return nil, err
	}
	if !user.Confirmed() {
		return nil, ErrInvalidConfirmationLink
	}

	return &dto.AuthResult{
		UserID:        user.ID,
		EmailVerified: entity.EmailVerified,
		SessionToken:  token,
		ExpiresIn:     s.remainingLifetime(token),
	}, nil
}

func (s *managedAuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.provider.Logout(ctx, token); err != nil {
		logrus.WithError(err).Warn("Failed to sign out at identity provider")
	}
	s.events.RecordAuthEvent("signout", "success")

	return nil
}

func (s *managedAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := s.provider.Recover(ctx, NormalizeEmail(email), s.cfg.Frontend.ResetBaseURL+"/new-password"); err != nil {
		logrus.WithError(err).Warn("Identity provider rejected password reset request")
		s.events.RecordAuthEvent("reset_request", "failure")
		return nil
	}
	s.events.RecordAuthEvent("reset_request", "success")

	return nil
}

func (s *managedAuthService) RedeemPasswordReset(ctx context.Context, req *types.NewPasswordRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("reset_redeem", err) }()

	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	token := strings.TrimSpace(req.AccessToken)
	user, err := s.provider.UpdatePassword(ctx, token, req.Password)
	if err != nil {
		return nil, mapProviderError(err, ErrInvalidOrExpiredToken)
	}

	return &dto.AuthResult{
		UserID:        user.ID,
		EmailVerified: verificationStatus(user),
		SessionToken:  token,
		ExpiresIn:     s.remainingLifetime(token),
	}, nil
}

func (s *managedAuthService) GetProfile(ctx context.Context, userID string) (*types.ProfileResponse, error) {
	user, err := s.provider.AdminGetUser(ctx, userID)
	if err != nil {
		return nil, mapProviderError(err, ErrUserNotFound)
	}

	return s.profileFromIdentity(ctx, user)
}

func (s *managedAuthService) UpdateProfile(ctx context.Context, userID string, req *types.UpdateProfileRequest) (*types.ProfileResponse, error) {
	if _, err := profileChanges(req); err != nil {
		return nil, err
	}

	metadata := make(map[string]interface{})
	setMetadata := func(key string, value types.OptionalString) {
		if !value.Set {
			return
		}
		if value.Valid && value.Value != "" {
			metadata[key] = value.Value
		} else {
			metadata[key] = nil
		}
	}
	setMetadata(metadataRole, req.Role)
	setMetadata(metadataName, req.Name)
	setMetadata(metadataPhone, req.Phone)
	setMetadata(metadataDateOfBirth, req.DateOfBirth)

	user, err := s.provider.AdminUpdateMetadata(ctx, userID, metadata)
	if err != nil {
		return nil, mapProviderError(err, ErrUserNotFound)
	}

	return s.profileFromIdentity(ctx, user)
}

func (s *managedAuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	user, err := s.provider.GetUser(ctx, token)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusNotFound || apiErr.Code == "user_not_found" {
				return "", ErrUserNotFound
			}
			return "", ErrInvalidToken
		}
		return "", err
	}

	return user.ID, nil
}

func (s *managedAuthService) UserRole(ctx context.Context, userID string) (entity.Role, error) {
	user, err := s.provider.AdminGetUser(ctx, userID)
	if err != nil {
		return "", mapProviderError(err, ErrUserNotFound)
	}

	return metadataRoleOf(user), nil
}

func (s *managedAuthService) profileFromIdentity(ctx context.Context, user *supabase.User) (*types.ProfileResponse, error) {
	profile := &types.ProfileResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             string(metadataRoleOf(user)),
		EmailVerified:    string(verificationStatus(user)),
		RegistrationDate: formatTimestamp(user.CreatedAt),
		CreatedAt:        formatTimestamp(user.CreatedAt),
		UpdatedAt:        formatTimestamp(user.UpdatedAt),
	}
	if name, ok := user.MetadataString(metadataName); ok {
		profile.Name = &name
	}
	if phone, ok := user.MetadataString(metadataPhone); ok {
		profile.Phone = &phone
	}
	if dob, ok := user.MetadataString(metadataDateOfBirth); ok {
		profile.DateOfBirth = &dob
	}

	if metadataRoleOf(user) == entity.RoleCampaign {
		campaign, err := s.campaigns.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if campaign != nil {
			profile.CampaignID = &campaign.ID
		}
	}

	return profile, nil
}

// remainingLifetime reads exp from a provider token without verifying it. The
// provider has already accepted the token at this point.
func (s *managedAuthService) remainingLifetime(token string) time.Duration {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func metadataRoleOf(user *supabase.User) entity.Role {
	if value, ok := user.MetadataString(metadataRole); ok && entity.Role(value).Valid() {
		return entity.Role(value)
	}
	return entity.RoleUser
}

func verificationStatus(user *supabase.User) entity.VerificationStatus {
	if user.Confirmed() {
		return entity.EmailVerified
	}
	return entity.EmailNotVerified
}

// mapProviderError turns client-side provider rejections into fallback and
// passes everything else through. A nil fallback surfaces the provider message.
func mapProviderError(err error, fallback error) error {
	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == "user_already_exists" || apiErr.Code == "email_exists",
		strings.Contains(strings.ToLower(apiErr.Message), "already registered"):
		return ErrUserExists
	case apiErr.Code == "weak_password":
		return fmt.Errorf("%w: %s", ErrWeakPassword, apiErr.Message)
	case apiErr.Code == "same_password":
		return fmt.Errorf("%w: %s", ErrWeakPassword, apiErr.Message)
	case apiErr.Status == http.StatusNotFound:
		return ErrUserNotFound
	case apiErr.Status >= 400 && apiErr.Status < 500:
		if fallback == nil {
			return &IntegrationError{Message: apiErr.Message, Err: apiErr}
		}
		return fallback
	}
	return err
}
