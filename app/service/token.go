package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/worckyky/sport-booking-backend/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const purposeEmailConfirm = "email_confirm"

// SessionClaims is shared by session and confirmation tokens. Session tokens
// never carry a purpose.
type SessionClaims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuerOption func(*TokenIssuer)

// WithTokenClock overrides the clock used for issuing and validating tokens.
func WithTokenClock(now func() time.Time) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	confirmTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(jwtCfg config.JWTConfig, tokens config.TokenConfig, opts ...TokenIssuerOption) *TokenIssuer {
	issuer := &TokenIssuer{
		secret:     []byte(jwtCfg.Secret),
		sessionTTL: jwtCfg.SessionTTL,
		confirmTTL: tokens.ConfirmTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

func (i *TokenIssuer) SessionTTL() time.Duration {
	return i.sessionTTL
}

func (i *TokenIssuer) IssueSession(userID string) (string, error) {
	now := i.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.sessionTTL)),
		},
	}
	return i.sign(claims)
}

func (i *TokenIssuer) IssueEmailConfirmation(userID string) (string, error) {
	now := i.now()
	claims := &SessionClaims{
		Purpose: purposeEmailConfirm,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.confirmTTL)),
		},
	}
	return i.sign(claims)
}

func (i *TokenIssuer) ParseSession(token string) (*SessionClaims, error) {
	claims, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) ParseEmailConfirmation(token string) (*SessionClaims, error) {
	claims, err := i.parse(token)
	if err != nil || claims.Purpose != purposeEmailConfirm {
		return nil, ErrInvalidConfirmationLink
	}
	return claims, nil
}

func (i *TokenIssuer) sign(claims *SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *TokenIssuer) parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// generateResetToken returns the raw token for the email link and the hash
// that is stored in its place.
func generateResetToken() (string, string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	raw := base64.RawURLEncoding.EncodeToString(secret)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
