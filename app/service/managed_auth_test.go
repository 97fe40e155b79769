package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/supabase"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
)

type fakeProvider struct {
	users     map[string]*supabase.User
	tokens    map[string]string
	passwords map[string]string
	signUpErr error
	recovered []string
	loggedOut []string
	metadata  map[string]interface{}
	deleted   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:     make(map[string]*supabase.User),
		tokens:    make(map[string]string),
		passwords: make(map[string]string),
	}
}

func (p *fakeProvider) addUser(id, email, password string, confirmed bool, metadata map[string]interface{}) *supabase.User {
	user := &supabase.User{ID: id, Email: email, UserMetadata: metadata, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if confirmed {
		at := time.Now()
		user.EmailConfirmedAt = &at
	}
	p.users[id] = user
	p.passwords[email] = password
	return user
}

func (p *fakeProvider) SignUp(_ context.Context, email, password string, metadata map[string]interface{}, _ string) (*supabase.User, *supabase.Session, error) {
	if p.signUpErr != nil {
		return nil, nil, p.signUpErr
	}
	user := p.addUser("new-user", email, password, false, metadata)
	return user, nil, nil
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*supabase.Session, error) {
	for _, user := range p.users {
		if user.Email == email && p.passwords[email] == password {
			return &supabase.Session{AccessToken: "access-" + user.ID, ExpiresIn: 3600, User: user}, nil
		}
	}
	return nil, &supabase.APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
}

func (p *fakeProvider) GetUser(_ context.Context, accessToken string) (*supabase.User, error) {
	id, ok := p.tokens[accessToken]
	if !ok {
		return nil, &supabase.APIError{Status: http.StatusUnauthorized, Message: "invalid JWT"}
	}
	return p.users[id], nil
}

func (p *fakeProvider) UpdatePassword(ctx context.Context, accessToken, password string) (*supabase.User, error) {
	user, err := p.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	p.passwords[user.Email] = password
	return user, nil
}

func (p *fakeProvider) Recover(_ context.Context, email, _ string) error {
	p.recovered = append(p.recovered, email)
	return nil
}

func (p *fakeProvider) Logout(_ context.Context, accessToken string) error {
	p.loggedOut = append(p.loggedOut, accessToken)
	return nil
}

func (p *fakeProvider) AdminGetUser(_ context.Context, id string) (*supabase.User, error) {
	user, ok := p.users[id]
	if !ok {
		return nil, &supabase.APIError{Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"}
	}
	return user, nil
}

func (p *fakeProvider) AdminUpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*supabase.User, error) {
	user, err := p.AdminGetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p.metadata = metadata
	for key, value := range metadata {
		if value == nil {
			delete(user.UserMetadata, key)
			continue
		}
		user.UserMetadata[key] = value
	}
	return user, nil
}

func (p *fakeProvider) AdminDeleteUser(_ context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	delete(p.users, id)
	return nil
}

func newManagedAuthWithMock(t *testing.T, provider *fakeProvider) (service.AuthService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, cleanup := newMockDB(t)
	svc := service.NewManagedAuthService(provider, repository.NewCampaignRepository(db), newTestConfig(openPolicy()))
	return svc, mock, cleanup
}

func TestManagedAuth_SignUpCampaignFailureRemovesProviderAccount(t *testing.T) {
	provider := newFakeProvider()
	svc, mock, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	insertErr := errors.New("connection reset")
	mock.ExpectExec(insertCampaignQuery).WillReturnError(insertErr)

	_, err := svc.SignUp(context.Background(), &types.SignUpRequest{
		Email:    "owner@example.com",
		Password: "secret",
		Role:     "CAMPAIGN",
		Name:     "Arena",
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected campaign insert error, got %v", err)
	}
	if len(provider.deleted) != 1 || provider.deleted[0] != "new-user" {
		t.Fatalf("expected provider account to be removed, got %v", provider.deleted)
	}
	if _, ok := provider.users["new-user"]; ok {
		t.Fatalf("provider account still present")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestManagedAuth_SignUpCampaignCreatesCampaign(t *testing.T) {
	provider := newFakeProvider()
	svc, mock, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	mock.ExpectExec(insertCampaignQuery).WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := svc.SignUp(context.Background(), &types.SignUpRequest{
		Email:    "Owner@Example.com",
		Password: "secret",
		Role:     "CAMPAIGN",
		Name:     "Arena",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if res.UserID != "new-user" || res.EmailVerified != entity.EmailNotVerified || res.SessionToken != "" {
		t.Fatalf("unexpected signup result: %+v", res)
	}
	if provider.users["new-user"].Email != "owner@example.com" {
		t.Fatalf("email was not normalized before reaching the provider")
	}
	if role, _ := provider.users["new-user"].MetadataString("role"); role != "CAMPAIGN" {
		t.Fatalf("role metadata not forwarded, got %q", role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestManagedAuth_SignUpMapsProviderErrors(t *testing.T) {
	provider := newFakeProvider()
	svc, _, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	provider.signUpErr = &supabase.APIError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	_, err := svc.SignUp(context.Background(), &types.SignUpRequest{Email: "a@example.com", Password: "secret"})
	if !errors.Is(err, service.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	provider.signUpErr = &supabase.APIError{Status: http.StatusBadRequest, Code: "email_address_invalid", Message: "Email address is invalid"}
	_, err = svc.SignUp(context.Background(), &types.SignUpRequest{Email: "a@example.com", Password: "secret"})
	var integrationErr *service.IntegrationError
	if !errors.As(err, &integrationErr) || integrationErr.Message != "Email address is invalid" {
		t.Fatalf("expected provider message to surface, got %v", err)
	}
}

func TestManagedAuth_SignIn(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("user-1", "test@example.com", "secret", true, map[string]interface{}{})
	svc, _, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	res, err := svc.SignIn(context.Background(), &types.SignInRequest{Email: "TEST@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if res.UserID != "user-1" || res.EmailVerified != entity.EmailVerified || res.ExpiresIn != time.Hour {
		t.Fatalf("unexpected signin result: %+v", res)
	}

	_, err = svc.SignIn(context.Background(), &types.SignInRequest{Email: "test@example.com", Password: "wrong"})
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestManagedAuth_ConfirmEmail(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("confirmed", "a@example.com", "x", true, nil)
	provider.addUser("pending", "b@example.com", "x", false, nil)

	expiresAt := time.Now().Add(30 * time.Minute)
	confirmedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "confirmed",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("provider-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	provider.tokens[confirmedToken] = "confirmed"
	provider.tokens["pending-token"] = "pending"

	svc, _, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	res, err := svc.ConfirmEmail(context.Background(), confirmedToken)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if res.UserID != "confirmed" || res.SessionToken != confirmedToken {
		t.Fatalf("unexpected confirm result: %+v", res)
	}
	if res.ExpiresIn <= 0 || res.ExpiresIn > 30*time.Minute {
		t.Fatalf("expected lifetime from token exp, got %s", res.ExpiresIn)
	}

	if _, err := svc.ConfirmEmail(context.Background(), "pending-token"); !errors.Is(err, service.ErrInvalidConfirmationLink) {
		t.Fatalf("unconfirmed identity must be rejected, got %v", err)
	}
	if _, err := svc.ConfirmEmail(context.Background(), "garbage"); !errors.Is(err, service.ErrInvalidConfirmationLink) {
		t.Fatalf("unknown token must be rejected, got %v", err)
	}
}

func TestManagedAuth_PasswordResetFlow(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("user-1", "test@example.com", "old", true, nil)
	provider.tokens["recovery-token"] = "user-1"
	svc, _, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	if err := svc.RequestPasswordReset(context.Background(), " Test@Example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if len(provider.recovered) != 1 || provider.recovered[0] != "test@example.com" {
		t.Fatalf("unexpected recover calls: %v", provider.recovered)
	}

	res, err := svc.RedeemPasswordReset(context.Background(), &types.NewPasswordRequest{
		Password:        "new",
		ConfirmPassword: "new",
		AccessToken:     "recovery-token",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if res.UserID != "user-1" || provider.passwords["test@example.com"] != "new" {
		t.Fatalf("password was not updated: %+v", res)
	}

	_, err = svc.RedeemPasswordReset(context.Background(), &types.NewPasswordRequest{
		Password:        "new",
		ConfirmPassword: "new",
		AccessToken:     "expired-token",
	})
	if !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestManagedAuth_ProfileReadsMetadataAndCampaign(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("owner", "owner@example.com", "x", true, map[string]interface{}{
		"role":  "CAMPAIGN",
		"name":  "Arena",
		"phone": "+70000000000",
	})
	svc, mock, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findCampaignByUserQuery).
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows(campaignColumns).
			AddRow("campaign-1", "owner", "Arena", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery(findCampaignByUserQuery).
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows(campaignColumns).
			AddRow("campaign-1", "owner", "Arena", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now))

	profile, err := svc.GetProfile(context.Background(), "owner")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.Role != "CAMPAIGN" || profile.Name == nil || *profile.Name != "Arena" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.CampaignID == nil || *profile.CampaignID != "campaign-1" {
		t.Fatalf("expected campaign id, got %v", profile.CampaignID)
	}

	profile, err = svc.UpdateProfile(context.Background(), "owner", &types.UpdateProfileRequest{
		Phone: types.Null(),
		Name:  types.Some("Arena 2"),
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if profile.Phone != nil || *profile.Name != "Arena 2" {
		t.Fatalf("metadata not applied: %+v", profile)
	}
	if _, ok := provider.metadata["phone"]; !ok || provider.metadata["phone"] != nil {
		t.Fatalf("cleared field must be sent as null, got %v", provider.metadata)
	}

	if _, err := svc.GetProfile(context.Background(), "ghost"); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestManagedAuth_ResolveSessionAndRole(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("user-1", "test@example.com", "x", true, map[string]interface{}{"role": "bogus"})
	provider.tokens["access-user-1"] = "user-1"
	svc, _, cleanup := newManagedAuthWithMock(t, provider)
	defer cleanup()

	userID, err := svc.ResolveSession(context.Background(), "access-user-1")
	if err != nil || userID != "user-1" {
		t.Fatalf("expected user-1, got %q %v", userID, err)
	}
	if _, err := svc.ResolveSession(context.Background(), "bad"); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	role, err := svc.UserRole(context.Background(), "user-1")
	if err != nil || role != entity.RoleUser {
		t.Fatalf("unknown role metadata should fall back to USER, got %q %v", role, err)
	}

	if err := svc.SignOut(context.Background(), "access-user-1"); err != nil {
		t.Fatalf("signout failed: %v", err)
	}
	if len(provider.loggedOut) != 1 {
		t.Fatalf("expected provider logout")
	}
}
