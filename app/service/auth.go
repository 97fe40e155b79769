package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/mail"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/sirupsen/logrus"
)

const mailTimeout = 30 * time.Second

// AuthService is implemented once per identity provider. Controllers and
// middleware only see this interface.
type AuthService interface {
	SignUp(ctx context.Context, req *types.SignUpRequest) (*dto.AuthResult, error)
	SignIn(ctx context.Context, req *types.SignInRequest) (*dto.AuthResult, error)
	ConfirmEmail(ctx context.Context, token string) (*dto.AuthResult, error)
	SignOut(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	RedeemPasswordReset(ctx context.Context, req *types.NewPasswordRequest) (*dto.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*types.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *types.UpdateProfileRequest) (*types.ProfileResponse, error)
	ResolveSession(ctx context.Context, token string) (string, error)
	UserRole(ctx context.Context, userID string) (entity.Role, error)
}

type AsyncRunner func(task func())

type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) bool
}

type AuthEventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

type AuthServiceOption func(*authOptions)

type authOptions struct {
	asyncRunner AsyncRunner
	mailer      mail.Sender
	revocations SessionRevoker
	events      AuthEventRecorder
	now         func() time.Time
}

func defaultAuthOptions() authOptions {
	return authOptions{
		asyncRunner: func(task func()) {
			go task()
		},
		mailer:      mail.NewLogSender(),
		revocations: noopRevoker{},
		events:      noopEvents{},
		now:         time.Now,
	}
}

func WithAsyncRunner(runner AsyncRunner) AuthServiceOption {
	return func(o *authOptions) {
		if runner != nil {
			o.asyncRunner = runner
		}
	}
}

func WithMailer(mailer mail.Sender) AuthServiceOption {
	return func(o *authOptions) {
		if mailer != nil {
			o.mailer = mailer
		}
	}
}

func WithSessionRevoker(revoker SessionRevoker) AuthServiceOption {
	return func(o *authOptions) {
		if revoker != nil {
			o.revocations = revoker
		}
	}
}

func WithAuthEvents(events AuthEventRecorder) AuthServiceOption {
	return func(o *authOptions) {
		if events != nil {
			o.events = events
		}
	}
}

func WithClock(now func() time.Time) AuthServiceOption {
	return func(o *authOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// deliver hands a message to the mailer off the request path. Failures are
// logged and never reach the caller.
func (o *authOptions) deliver(msg mail.Message) {
	o.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := o.mailer.Send(ctx, msg); err != nil {
			logrus.WithError(err).WithField("template", msg.Template).Error("Failed to send email")
		}
	})
}

func (o *authOptions) record(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	o.events.RecordAuthEvent(event, outcome)
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Time) error {
	return nil
}

func (noopRevoker) IsRevoked(context.Context, string) bool {
	return false
}

type noopEvents struct{}

func (noopEvents) RecordAuthEvent(string, string) {}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func profileFromUser(user *entity.User) *types.ProfileResponse {
	profile := &types.ProfileResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             string(user.Role),
		Name:             stringPtr(user.Name),
		Phone:            stringPtr(user.Phone),
		EmailVerified:    string(user.EmailVerified),
		RegistrationDate: formatTimestamp(user.CreatedAt),
		CreatedAt:        formatTimestamp(user.CreatedAt),
		UpdatedAt:        formatTimestamp(user.UpdatedAt),
	}
	if user.DateOfBirth.Valid {
		dob := user.DateOfBirth.Time.Format(types.DateLayout)
		profile.DateOfBirth = &dob
	}
	if user.Role == entity.RoleCampaign {
		profile.CampaignID = stringPtr(user.CampaignID)
	}
	return profile
}

// defaultCampaign is the placeholder venue every CAMPAIGN account starts with.
func defaultCampaign(id, userID, name, email string, now time.Time) *entity.Campaign {
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	return &entity.Campaign{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
