package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyCallerAccess = "caller_access"

type APIKeyMiddleware struct {
	authService service.InternalAuthService
}

func NewAPIKeyMiddleware(authService service.InternalAuthService) *APIKeyMiddleware {
	return &APIKeyMiddleware{authService: authService}
}

func (m *APIKeyMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Let CORS preflight pass.
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		apiKey := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
		if apiKey == "" {
			logrus.Debug("Missing x-api-key header")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
		}

		result, err := m.authService.ValidateInternalAPIKey(c.Request().Context(), apiKey)
		if err != nil {
			if errors.Is(err, service.ErrInvalidInternalAPIKey) {
				logrus.Debug("Invalid x-api-key header")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}
			logrus.WithError(err).Error("API key validation failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Internal server error",
			})
		}

		logrus.WithField("service", result.ServiceName).Debug("Internal caller authenticated")
		c.Set(ContextKeyCallerAccess, result)
		return next(c)
	}
}

// CallerAccess returns the grants stored by RequireAPIKey.
func CallerAccess(c echo.Context) *dto.InternalAccessResult {
	access, _ := c.Get(ContextKeyCallerAccess).(*dto.InternalAccessResult)
	return access
}
