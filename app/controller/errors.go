package controller

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/worckyky/sport-booking-backend/app/dto/http"
	"github.com/worckyky/sport-booking-backend/app/observability"
	"github.com/worckyky/sport-booking-backend/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusBadRequest, "Invalid email or password"},
	{service.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{service.ErrInvalidConfirmationLink, http.StatusBadRequest, "Invalid confirmation link"},
	{service.ErrEmailAlreadyConfirmed, http.StatusBadRequest, "Email is already confirmed"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "Passwords do not match"},
	{service.ErrInvalidOrExpiredToken, http.StatusBadRequest, "Invalid or expired token"},
	{service.ErrInvalidToken, http.StatusBadRequest, "Invalid token"},
	{service.ErrInvalidRole, http.StatusBadRequest, "Invalid role"},
	{service.ErrInvalidDateOfBirth, http.StatusBadRequest, "Invalid date_of_birth"},
	{service.ErrNoProfileChanges, http.StatusBadRequest, "No data provided for update"},
	{service.ErrNoCampaignChanges, http.StatusBadRequest, "No data provided for update"},
	{service.ErrCampaignExists, http.StatusBadRequest, "Campaign already exists for this user"},
	{service.ErrUserNotFound, http.StatusNotFound, "User profile not found"},
	{service.ErrCampaignNotFound, http.StatusNotFound, "Campaign not found"},
	{service.ErrInvalidFilterValue, http.StatusBadRequest, "Invalid filter value"},
	{service.ErrTableNotAllowed, http.StatusForbidden, "Access to this table is not allowed"},
}

// respondError writes the JSON error body for err. Unclassified errors are
// logged, reported and hidden behind a generic 500.
func respondError(ctx echo.Context, err error, fields logrus.Fields) error {
	var integrationErr *service.IntegrationError
	if errors.As(err, &integrationErr) {
		logrus.WithFields(fields).WithError(err).Warn("Upstream integration rejected request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: integrationErr.Message})
	}

	var identifierErr *service.IdentifierError
	if errors.As(err, &identifierErr) {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: identifierErr.Error()})
	}

	if errors.Is(err, service.ErrWeakPassword) {
		message := strings.TrimPrefix(err.Error(), service.ErrWeakPassword.Error()+": ")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: message})
	}

	for _, mapping := range serviceErrors {
		if errors.Is(err, mapping.target) {
			logrus.WithFields(fields).Debug(mapping.message)
			return ctx.JSON(mapping.status, httpdto.ErrorResponse{Error: mapping.message})
		}
	}

	logrus.WithFields(fields).WithError(err).Error("Request failed")
	observability.CaptureError(err, map[string]string{
		"method": ctx.Request().Method,
		"route":  ctx.Path(),
	})
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "Internal server error"})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: message})
}
