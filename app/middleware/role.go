package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyUserRole = "user_role"

type roleLookup interface {
	UserRole(ctx context.Context, userID string) (entity.Role, error)
}

type RoleMiddleware struct {
	roles roleLookup
}

func NewRoleMiddleware(roles roleLookup) *RoleMiddleware {
	return &RoleMiddleware{roles: roles}
}

// RequireRole must run after RequireAuth.
func (m *RoleMiddleware) RequireRole(role entity.Role) echo.MiddlewareFunc {
	forbidden := fmt.Sprintf("Forbidden - Only users with %s role can access this resource", role)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}

			current, err := m.roles.UserRole(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "User not found",
					})
				}
				logrus.WithError(err).WithField("user_id", userID).Error("Role lookup failed")
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "Internal server error",
				})
			}

			if current != role {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,
					"role":    current,
				}).Debug("Role check failed")
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": forbidden,
				})
			}

			c.Set(ContextKeyUserRole, current)
			return next(c)
		}
	}
}
