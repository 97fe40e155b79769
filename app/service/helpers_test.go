package service_test

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/worckyky/sport-booking-backend/app/mail"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertUserQuery         = `(?s)INSERT INTO users \(id, email, password_hash, role, name, phone, date_of_birth, email_verified, created_at, updated_at\)`
	findUserByEmailQuery    = `(?s)SELECT u.id, .+FROM users u\s+LEFT JOIN campaign_info c ON c.user_id = u.id\s+WHERE u.email = \?`
	findUserByIDQuery       = `(?s)SELECT u.id, .+FROM users u\s+LEFT JOIN campaign_info c ON c.user_id = u.id\s+WHERE u.id = \?`
	userExistsQuery         = `(?s)SELECT 1 FROM users WHERE id = \?`
	markEmailVerifiedQuery  = `(?s)UPDATE users SET email_verified = 'VERIFIED'`
	updatePasswordQuery     = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	insertResetTokenQuery   = `(?s)INSERT INTO password_reset_tokens`
	findActiveResetQuery    = `(?s)SELECT id, user_id, token_hash, expires_at, used_at, created_at\s+FROM password_reset_tokens.+FOR UPDATE`
	markResetTokenUsedQuery = `(?s)UPDATE password_reset_tokens SET used_at = \?`
	insertCampaignQuery     = `(?s)INSERT INTO campaign_info`
	findCampaignByIDQuery   = `(?s)SELECT id, user_id, name, .+FROM campaign_info\s+WHERE id = \?$`
	findCampaignByUserQuery = `(?s)SELECT id, user_id, name, .+FROM campaign_info\s+WHERE user_id = \?`
	findOwnedCampaignQuery  = `(?s)SELECT id, user_id, name, .+FROM campaign_info\s+WHERE id = \? AND user_id = \?\s+FOR UPDATE`
	deleteCampaignQuery     = `(?s)DELETE FROM campaign_info WHERE id = \? AND user_id = \?`
)

var userColumns = []string{
	"id", "email", "password_hash", "role", "name", "phone", "date_of_birth", "email_verified",
	"campaign_id", "created_at", "updated_at",
}

var campaignColumns = []string{
	"id", "user_id", "name", "description", "short_description", "location", "contacts", "working_timetable",
	"socials_links", "payment_methods", "facilities", "sports", "media", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func newTestConfig(policy config.PasswordPolicy) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			SessionTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			ConfirmTTL: 24 * time.Hour,
			ResetTTL:   time.Hour,
		},
		Password: config.PasswordConfig{Policy: policy},
		Frontend: config.FrontendConfig{
			ConfirmBaseURL: "http://localhost:3000",
			ResetBaseURL:   "http://localhost:3000",
		},
	}
}

func syncRunner(task func()) {
	task()
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// tokenFromLink pulls access_token out of the link embedded in a message.
func tokenFromLink(t *testing.T, msg mail.Message) string {
	t.Helper()

	idx := strings.Index(msg.Text, "http")
	if idx < 0 {
		t.Fatalf("no link in message %q", msg.Text)
	}
	link, err := url.Parse(strings.TrimSpace(msg.Text[idx:]))
	if err != nil {
		t.Fatalf("bad link: %v", err)
	}
	token := link.Query().Get("access_token")
	if token == "" {
		t.Fatalf("link has no access_token: %s", link)
	}
	return token
}

type recordingRevoker struct {
	revoked map[string]time.Time
}

func newRecordingRevoker() *recordingRevoker {
	return &recordingRevoker{revoked: make(map[string]time.Time)}
}

func (r *recordingRevoker) Revoke(_ context.Context, sessionID string, expiresAt time.Time) error {
	r.revoked[sessionID] = expiresAt
	return nil
}

func (r *recordingRevoker) IsRevoked(_ context.Context, sessionID string) bool {
	_, ok := r.revoked[sessionID]
	return ok
}
