package service_test

import (
	"context"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/mail"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/types"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
)

type localFixture struct {
	svc     service.AuthService
	mock    sqlmock.Sqlmock
	tokens  *service.TokenIssuer
	mailer  *recordingMailer
	revoker *recordingRevoker
}

func newLocalAuthWithMock(t *testing.T, policy config.PasswordPolicy, opts ...service.AuthServiceOption) (*localFixture, func()) {
	t.Helper()

	db, mock, cleanup := newMockDB(t)
	cfg := newTestConfig(policy)
	tokens := service.NewTokenIssuer(cfg.JWT, cfg.Tokens)
	mailer := &recordingMailer{}
	revoker := newRecordingRevoker()

	opts = append([]service.AuthServiceOption{
		service.WithAsyncRunner(syncRunner),
		service.WithMailer(mailer),
		service.WithSessionRevoker(revoker),
	}, opts...)
	svc := service.NewLocalAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewPasswordResetTokenRepository(db),
		tokens,
		cfg,
		opts...,
	)

	return &localFixture{svc: svc, mock: mock, tokens: tokens, mailer: mailer, revoker: revoker}, cleanup
}

func openPolicy() config.PasswordPolicy {
	return config.PasswordPolicy{MinLength: 1}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func userRow(id, email, passwordHash string, role entity.Role, campaignID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).
		AddRow(id, email, passwordHash, string(role), nil, nil, nil, "NOT_VERIFIED", campaignID, now, now)
}

func TestLocalAuth_SignUp_CreatesUserAndSendsConfirmation(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(insertUserQuery).
		WithArgs(sqlmock.AnyArg(), "test@example.com", sqlmock.AnyArg(), "USER", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "NOT_VERIFIED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	res, err := f.svc.SignUp(context.Background(), &types.SignUpRequest{Email: " Test@Example.com ", Password: "secret"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if res.UserID == "" || res.SessionToken == "" {
		t.Fatalf("expected user id and session token, got %+v", res)
	}
	if res.EmailVerified != entity.EmailNotVerified {
		t.Fatalf("expected NOT_VERIFIED, got %s", res.EmailVerified)
	}
	if res.ExpiresIn != 7*24*time.Hour {
		t.Fatalf("unexpected session lifetime %s", res.ExpiresIn)
	}

	sent := f.mailer.sent()
	if len(sent) != 1 || sent[0].Template != mail.TemplateEmailConfirmation || sent[0].To != "test@example.com" {
		t.Fatalf("expected one confirmation email, got %+v", sent)
	}
	claims, err := f.tokens.ParseEmailConfirmation(tokenFromLink(t, sent[0]))
	if err != nil {
		t.Fatalf("confirmation link token invalid: %v", err)
	}
	if claims.Subject != res.UserID {
		t.Fatalf("confirmation token subject %q, want %q", claims.Subject, res.UserID)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignUp_CampaignRoleCreatesCampaign(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	anyArg := sqlmock.AnyArg()
	f.mock.ExpectBegin()
	f.mock.ExpectExec(insertUserQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(insertCampaignQuery).
		WithArgs(anyArg, anyArg, "Arena", anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	_, err := f.svc.SignUp(context.Background(), &types.SignUpRequest{
		Email:    "owner@example.com",
		Password: "secret",
		Role:     "CAMPAIGN",
		Name:     "  Arena ",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignUp_DuplicateEmailRollsBack(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(insertUserQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	f.mock.ExpectRollback()

	_, err := f.svc.SignUp(context.Background(), &types.SignUpRequest{Email: "TEST@example.com", Password: "secret"})
	if !errors.Is(err, service.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(f.mailer.sent()) != 0 {
		t.Fatalf("no email should be sent for a duplicate sign-up")
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignUp_WeakPassword(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, config.PasswordPolicy{MinLength: 8, RequireNumber: true})
	defer cleanup()

	_, err := f.svc.SignUp(context.Background(), &types.SignUpRequest{Email: "a@example.com", Password: "short"})
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignUp_PasswordTooLongForBcrypt(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	_, err := f.svc.SignUp(context.Background(), &types.SignUpRequest{
		Email:    "long@example.com",
		Password: strings.Repeat("p", 80),
	})
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignIn(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	hash := hashPassword(t, "secret")
	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("test@example.com").
		WillReturnRows(userRow("user-1", "test@example.com", hash, entity.RoleUser, nil))

	res, err := f.svc.SignIn(context.Background(), &types.SignInRequest{Email: "Test@Example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if res.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", res.UserID)
	}
	claims, err := f.tokens.ParseSession(res.SessionToken)
	if err != nil || claims.Subject != "user-1" {
		t.Fatalf("session token does not resolve to user-1: %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_SignIn_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("test@example.com").
		WillReturnRows(userRow("user-1", "test@example.com", hashPassword(t, "secret"), entity.RoleUser, nil))
	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, wrongPassword := f.svc.SignIn(context.Background(), &types.SignInRequest{Email: "test@example.com", Password: "nope"})
	_, unknownEmail := f.svc.SignIn(context.Background(), &types.SignInRequest{Email: "nobody@example.com", Password: "nope"})

	if !errors.Is(wrongPassword, service.ErrInvalidCredentials) || !errors.Is(unknownEmail, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_ConfirmEmail_OnlyOnce(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	token, err := f.tokens.IssueEmailConfirmation("user-1")
	if err != nil {
		t.Fatalf("issue confirmation: %v", err)
	}

	f.mock.ExpectExec(markEmailVerifiedQuery).
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(markEmailVerifiedQuery).
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(userExistsQuery).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	res, err := f.svc.ConfirmEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if res.UserID != "user-1" || res.EmailVerified != entity.EmailVerified || res.SessionToken == "" {
		t.Fatalf("unexpected confirm result: %+v", res)
	}

	_, err = f.svc.ConfirmEmail(context.Background(), token)
	if !errors.Is(err, service.ErrEmailAlreadyConfirmed) {
		t.Fatalf("expected replay to be rejected, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_ConfirmEmail_RejectsSessionToken(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	sessionToken, err := f.tokens.IssueSession("user-1")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	_, err = f.svc.ConfirmEmail(context.Background(), sessionToken)
	if !errors.Is(err, service.ErrInvalidConfirmationLink) {
		t.Fatalf("expected ErrInvalidConfirmationLink, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_RequestPasswordReset_UnknownEmailInsertsNothing(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	if err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(f.mailer.sent()) != 0 {
		t.Fatalf("no email should be sent for an unknown address")
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_PasswordReset_RedeemOnce(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("test@example.com").
		WillReturnRows(userRow("user-1", "test@example.com", "hash", entity.RoleUser, nil))
	f.mock.ExpectExec(insertResetTokenQuery).
		WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := f.svc.RequestPasswordReset(context.Background(), "test@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	sent := f.mailer.sent()
	if len(sent) != 1 || sent[0].Template != mail.TemplatePasswordReset {
		t.Fatalf("expected one reset email, got %+v", sent)
	}
	rawToken := tokenFromLink(t, sent[0])
	sum := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(sum[:])
	now := time.Now()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(findActiveResetQuery).
		WithArgs(tokenHash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "used_at", "created_at"}).
			AddRow("reset-1", "user-1", tokenHash, now.Add(time.Hour), nil, now))
	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "test@example.com", "hash", entity.RoleUser, nil))
	f.mock.ExpectExec(updatePasswordQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(markResetTokenUsedQuery).
		WithArgs(sqlmock.AnyArg(), "reset-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(findActiveResetQuery).
		WithArgs(tokenHash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "used_at", "created_at"}))
	f.mock.ExpectRollback()

	req := &types.NewPasswordRequest{Password: "new-secret", ConfirmPassword: "new-secret", AccessToken: rawToken}
	res, err := f.svc.RedeemPasswordReset(context.Background(), req)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if res.UserID != "user-1" || res.EmailVerified != entity.EmailNotVerified {
		t.Fatalf("unexpected redeem result: %+v", res)
	}

	_, err = f.svc.RedeemPasswordReset(context.Background(), req)
	if !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected second redeem to fail, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_RedeemPasswordReset_Mismatch(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	_, err := f.svc.RedeemPasswordReset(context.Background(), &types.NewPasswordRequest{
		Password:        "one",
		ConfirmPassword: "two",
		AccessToken:     "token",
	})
	if !errors.Is(err, service.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestLocalAuth_RedeemPasswordReset_PasswordTooLongForBcrypt(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	password := strings.Repeat("p", 80)
	_, err := f.svc.RedeemPasswordReset(context.Background(), &types.NewPasswordRequest{
		Password:        password,
		ConfirmPassword: password,
		AccessToken:     "token",
	})
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// timeArg matches any time.Time argument and remembers the last one seen.
type timeArg struct {
	value time.Time
}

func (a *timeArg) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	if ok {
		a.value = t
	}
	return ok
}

func TestLocalAuth_PasswordReset_ExpiresAfterOneHour(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	current := issuedAt
	f, cleanup := newLocalAuthWithMock(t, openPolicy(), service.WithClock(func() time.Time { return current }))
	defer cleanup()

	expiresAt := &timeArg{}
	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("test@example.com").
		WillReturnRows(userRow("user-1", "test@example.com", "hash", entity.RoleUser, nil))
	f.mock.ExpectExec(insertResetTokenQuery).
		WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), expiresAt, issuedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := f.svc.RequestPasswordReset(context.Background(), "test@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if want := issuedAt.Add(time.Hour); !expiresAt.value.Equal(want) {
		t.Fatalf("expected token to expire at %s, got %s", want, expiresAt.value)
	}

	rawToken := tokenFromLink(t, f.mailer.sent()[0])
	sum := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(sum[:])

	current = issuedAt.Add(61 * time.Minute)
	boundNow := &timeArg{}
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(findActiveResetQuery).
		WithArgs(tokenHash, boundNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "used_at", "created_at"}))
	f.mock.ExpectRollback()

	_, err := f.svc.RedeemPasswordReset(context.Background(), &types.NewPasswordRequest{
		Password:        "new-secret",
		ConfirmPassword: "new-secret",
		AccessToken:     rawToken,
	})
	if !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	if !boundNow.value.Equal(current) || !boundNow.value.After(expiresAt.value) {
		t.Fatalf("expected lookup bound to %s (after expiry %s), got %s", current, expiresAt.value, boundNow.value)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_GetProfile_CampaignIDOnlyForCampaignRole(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("owner").
		WillReturnRows(userRow("owner", "owner@example.com", "hash", entity.RoleCampaign, "campaign-1"))
	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("player").
		WillReturnRows(userRow("player", "player@example.com", "hash", entity.RoleUser, "campaign-2"))
	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	owner, err := f.svc.GetProfile(context.Background(), "owner")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if owner.CampaignID == nil || *owner.CampaignID != "campaign-1" {
		t.Fatalf("expected campaign id for owner, got %+v", owner.CampaignID)
	}
	if owner.RegistrationDate != owner.CreatedAt {
		t.Fatalf("registration_date should mirror created_at")
	}

	player, err := f.svc.GetProfile(context.Background(), "player")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if player.CampaignID != nil {
		t.Fatalf("USER profile must not expose campaign_id")
	}

	_, err = f.svc.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_UpdateProfile(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	f.mock.ExpectExec(`(?s)UPDATE users SET name = \?, date_of_birth = \?, updated_at = \? WHERE id = \?`).
		WithArgs("Alex", nil, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "test@example.com", "hash", entity.RoleUser, nil))

	_, err := f.svc.UpdateProfile(context.Background(), "user-1", &types.UpdateProfileRequest{
		Name:        types.Some("Alex"),
		DateOfBirth: types.Null(),
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}

	_, err = f.svc.UpdateProfile(context.Background(), "user-1", &types.UpdateProfileRequest{})
	if !errors.Is(err, service.ErrNoProfileChanges) {
		t.Fatalf("expected ErrNoProfileChanges, got %v", err)
	}
	_, err = f.svc.UpdateProfile(context.Background(), "user-1", &types.UpdateProfileRequest{Role: types.Null()})
	if !errors.Is(err, service.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocalAuth_ResolveSessionAndSignOut(t *testing.T) {
	f, cleanup := newLocalAuthWithMock(t, openPolicy())
	defer cleanup()

	token, err := f.tokens.IssueSession("user-1")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	confirmToken, err := f.tokens.IssueEmailConfirmation("user-1")
	if err != nil {
		t.Fatalf("issue confirmation: %v", err)
	}
	orphanToken, err := f.tokens.IssueSession("deleted-user")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	f.mock.ExpectQuery(userExistsQuery).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	f.mock.ExpectQuery(userExistsQuery).
		WithArgs("deleted-user").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	userID, err := f.svc.ResolveSession(context.Background(), token)
	if err != nil || userID != "user-1" {
		t.Fatalf("expected user-1, got %q %v", userID, err)
	}
	if _, err := f.svc.ResolveSession(context.Background(), confirmToken); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("confirmation token must not act as a session, got %v", err)
	}
	if _, err := f.svc.ResolveSession(context.Background(), orphanToken); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := f.svc.SignOut(context.Background(), token); err != nil {
		t.Fatalf("signout failed: %v", err)
	}
	if len(f.revoker.revoked) != 1 {
		t.Fatalf("expected the session to be revoked")
	}
	if _, err := f.svc.ResolveSession(context.Background(), token); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("revoked session must be rejected, got %v", err)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
