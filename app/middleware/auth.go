package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/worckyky/sport-booking-backend/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	SessionCookieName = "auth_token"
	ContextKeyUserID  = "user_id"
)

type sessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	sessions sessionResolver
}

func NewAuthMiddleware(sessions sessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth resolves the session token and stores the user id on the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := SessionToken(c)
		if token == "" {
			logrus.Debug("Missing session token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized - No token provided",
			})
		}

		userID, err := m.sessions.ResolveSession(c.Request().Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				logrus.Debug("Session subject no longer exists")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized - User not found",
				})
			case errors.Is(err, service.ErrInvalidToken):
				logrus.Debug("Invalid or expired session token")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized - Invalid token",
				})
			}
			logrus.WithError(err).Error("Session resolution failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Internal server error",
			})
		}

		c.Set(ContextKeyUserID, userID)
		return next(c)
	}
}

// SessionToken reads the session from the auth cookie, falling back to a
// bearer Authorization header.
func SessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.Fields(c.Request().Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// UserID returns the id stored by RequireAuth.
func UserID(c echo.Context) string {
	userID, _ := c.Get(ContextKeyUserID).(string)
	return userID
}
