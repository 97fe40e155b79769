package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/mail"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/types"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	MarkEmailVerified(ctx context.Context, id string, now time.Time) (bool, error)
	UpdateProfile(ctx context.Context, id string, changes repository.UserChanges, now time.Time) error
}

type passwordResetTokenCreator interface {
	Create(ctx context.Context, token *entity.PasswordResetToken) error
}

type localAuthService struct {
	authOptions
	db        *sql.DB
	userRepo  userRepository
	resetRepo passwordResetTokenCreator
	tokens    *TokenIssuer
	cfg       *config.Config
}

// NewLocalAuthService keeps users and credentials in MySQL and signs its own
// session tokens.
func NewLocalAuthService(
	db *sql.DB,
	userRepo userRepository,
	resetRepo passwordResetTokenCreator,
	tokens *TokenIssuer,
	cfg *config.Config,
	opts ...AuthServiceOption,
) AuthService {
	svc := &localAuthService{
		authOptions: defaultAuthOptions(),
		db:          db,
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		tokens:      tokens,
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(&svc.authOptions)
	}
	return svc
}

func (s *localAuthService) SignUp(ctx context.Context, req *types.SignUpRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("signup", err) }()

	role := req.RoleOrDefault()
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	var dateOfBirth sql.NullTime
	if req.DateOfBirth != "" {
		parsed, err := types.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateOfBirth
		}
		dateOfBirth = sql.NullTime{Time: parsed, Valid: true}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		ID:            uuid.New().String(),
		Email:         NormalizeEmail(req.Email),
		PasswordHash:  string(hashedPassword),
		Role:          role,
		Name:          nullString(req.Name),
		Phone:         nullString(req.Phone),
		DateOfBirth:   dateOfBirth,
		EmailVerified: entity.EmailNotVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = repository.NewUserRepository(tx).Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	if role == entity.RoleCampaign {
		campaign := defaultCampaign(uuid.New().String(), user.ID, req.Name, user.Email, now)
		if err = repository.NewCampaignRepository(tx).Create(ctx, campaign); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.sendConfirmation(user)

	return s.newSession(user.ID, user.EmailVerified)
}

func (s *localAuthService) SignIn(ctx context.Context, req *types.SignInRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("signin", err) }()

	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(user.ID, user.EmailVerified)
}

// ConfirmEmail only succeeds once per user; a replayed link is rejected.
func (s *localAuthService) ConfirmEmail(ctx context.Context, token string) (res *dto.AuthResult, err error) {
	defer func() { s.record("confirm", err) }()

	claims, err := s.tokens.ParseEmailConfirmation(token)
	if err != nil {
		return nil, ErrInvalidConfirmationLink
	}

	changed, err := s.userRepo.MarkEmailVerified(ctx, claims.Subject, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		exists, err := s.userRepo.Exists(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrInvalidConfirmationLink
		}
		return nil, ErrEmailAlreadyConfirmed
	}

	return s.newSession(claims.Subject, entity.EmailVerified)
}

func (s *localAuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		logrus.WithError(err).WithField("user_id", claims.Subject).Warn("Failed to revoke session")
	}
	s.events.RecordAuthEvent("signout", "success")

	return nil
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *localAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		s.events.RecordAuthEvent("reset_request", "unknown_email")
		return nil
	}

	rawToken, tokenHash, err := generateResetToken()
	if err != nil {
		return err
	}

	now := s.now()
	resetToken := &entity.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(s.cfg.Tokens.ResetTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, resetToken); err != nil {
		return err
	}

	msg, err := mail.NewPasswordReset(user.Email, mail.PasswordResetLink(s.cfg.Frontend.ResetBaseURL, rawToken))
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to render password reset email")
		return nil
	}
	s.deliver(msg)
	s.events.RecordAuthEvent("reset_request", "success")

	return nil
}

func (s *localAuthService) RedeemPasswordReset(ctx context.Context, req *types.NewPasswordRequest) (res *dto.AuthResult, err error) {
	defer func() { s.record("reset_redeem", err) }()

	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	resetRepo := repository.NewPasswordResetTokenRepository(tx)
	resetToken, err := resetRepo.FindActiveByHashForUpdate(ctx, hashResetToken(strings.TrimSpace(req.AccessToken)), now)
	if err != nil {
		return nil, err
	}
	if resetToken == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	userRepo := repository.NewUserRepository(tx)
	user, err := userRepo.FindByID(ctx, resetToken.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	if err = userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword), now); err != nil {
		return nil, err
	}
	if err = resetRepo.MarkUsed(ctx, resetToken.ID, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.newSession(user.ID, user.EmailVerified)
}

func (s *localAuthService) GetProfile(ctx context.Context, userID string) (*types.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return profileFromUser(user), nil
}

func (s *localAuthService) UpdateProfile(ctx context.Context, userID string, req *types.UpdateProfileRequest) (*types.ProfileResponse, error) {
	changes, err := profileChanges(req)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, changes, s.now()); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

func (s *localAuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if s.revocations.IsRevoked(ctx, claims.ID) {
		return "", ErrInvalidToken
	}

	exists, err := s.userRepo.Exists(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrUserNotFound
	}

	return claims.Subject, nil
}

func (s *localAuthService) UserRole(ctx context.Context, userID string) (entity.Role, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	return user.Role, nil
}

func (s *localAuthService) sendConfirmation(user *entity.User) {
	token, err := s.tokens.IssueEmailConfirmation(user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to issue confirmation token")
		return
	}

	msg, err := mail.NewEmailConfirmation(user.Email, mail.ConfirmationLink(s.cfg.Frontend.ConfirmBaseURL, token))
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to render confirmation email")
		return
	}
	s.deliver(msg)
}

func (s *localAuthService) newSession(userID string, status entity.VerificationStatus) (*dto.AuthResult, error) {
	token, err := s.tokens.IssueSession(userID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResult{
		UserID:        userID,
		EmailVerified: status,
		SessionToken:  token,
		ExpiresIn:     s.tokens.SessionTTL(),
	}, nil
}

func profileChanges(req *types.UpdateProfileRequest) (repository.UserChanges, error) {
	var changes repository.UserChanges

	if req.Role.Set {
		role := entity.Role(req.Role.Value)
		if !req.Role.Valid || !role.Valid() {
			return changes, ErrInvalidRole
		}
		changes.Role = &role
	}
	if req.Name.Set {
		name := nullString(req.Name.Value)
		changes.Name = &name
	}
	if req.Phone.Set {
		phone := nullString(req.Phone.Value)
		changes.Phone = &phone
	}
	if req.DateOfBirth.Set {
		var dateOfBirth sql.NullTime
		if req.DateOfBirth.Valid && req.DateOfBirth.Value != "" {
			parsed, err := types.ParseDate(req.DateOfBirth.Value)
			if err != nil {
				return changes, ErrInvalidDateOfBirth
			}
			dateOfBirth = sql.NullTime{Time: parsed, Valid: true}
		}
		changes.DateOfBirth = &dateOfBirth
	}

	if changes.Empty() {
		return changes, ErrNoProfileChanges
	}
	return changes, nil
}
