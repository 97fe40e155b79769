package controller

import (
	"net/http"
	"time"

	"github.com/worckyky/sport-booking-backend/app/dto"
	httpdto "github.com/worckyky/sport-booking-backend/app/dto/http"
	"github.com/worckyky/sport-booking-backend/app/middleware"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/types"
	"github.com/worckyky/sport-booking-backend/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService service.AuthService
	secure      bool
	sessionTTL  time.Duration
}

func NewAuthController(authService service.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{
		authService: authService,
		secure:      cfg.IsProduction(),
		sessionTTL:  cfg.JWT.SessionTTL,
	}
}

func (c *AuthController) SignUp(ctx echo.Context) error {
	req, err := types.NewSignUpRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Signup validation failed")
		return badRequest(ctx, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	result, err := c.authService.SignUp(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"email": req.Email})
	}

	logrus.WithField("user_id", result.UserID).Info("User signed up")
	return c.respondWithSession(ctx, result)
}

func (c *AuthController) SignIn(ctx echo.Context) error {
	req, err := types.NewSignInRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind signin request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.SignIn(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"email": req.Email})
	}

	logrus.WithField("user_id", result.UserID).Info("Signin successful")
	return c.respondWithSession(ctx, result)
}

func (c *AuthController) ConfirmEmail(ctx echo.Context) error {
	req := types.NewConfirmEmailRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.ConfirmEmail(ctx.Request().Context(), req.AccessToken)
	if err != nil {
		return respondError(ctx, err, nil)
	}

	logrus.WithField("user_id", result.UserID).Info("Email confirmed")
	return c.respondWithSession(ctx, result)
}

func (c *AuthController) SignOut(ctx echo.Context) error {
	if err := c.authService.SignOut(ctx.Request().Context(), middleware.SessionToken(ctx)); err != nil {
		logrus.WithError(err).Warn("Signout failed")
	}

	c.clearSessionCookie(ctx)
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "Signed out successfully"})
}

func (c *AuthController) GetProfile(ctx echo.Context) error {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "User not authenticated"})
	}

	profile, err := c.authService.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID})
	}

	return ctx.JSON(http.StatusOK, profile)
}

func (c *AuthController) UpdateProfile(ctx echo.Context) error {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "User not authenticated"})
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind profile update")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	profile, err := c.authService.UpdateProfile(ctx.Request().Context(), userID, req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID})
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, profile)
}

// RequestPasswordReset answers identically whether or not the email is known.
func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	req, err := types.NewRequestPasswordResetRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		return respondError(ctx, err, nil)
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "Password reset requested"})
}

func (c *AuthController) NewPassword(ctx echo.Context) error {
	req, err := types.NewNewPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind new password request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.RedeemPasswordReset(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, err, nil)
	}

	logrus.WithField("user_id", result.UserID).Info("Password updated")
	c.setSessionCookie(ctx, result)
	return ctx.JSON(http.StatusOK, types.NewPasswordResponse{
		Message:       "Password updated successfully",
		ID:            result.UserID,
		EmailVerified: string(result.EmailVerified),
	})
}

func (c *AuthController) respondWithSession(ctx echo.Context, result *dto.AuthResult) error {
	c.setSessionCookie(ctx, result)
	return ctx.JSON(http.StatusOK, types.AuthResponse{
		ID:            result.UserID,
		EmailVerified: string(result.EmailVerified),
	})
}

func (c *AuthController) setSessionCookie(ctx echo.Context, result *dto.AuthResult) {
	maxAge := result.ExpiresIn
	if maxAge <= 0 {
		maxAge = c.sessionTTL
	}

	ctx.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *AuthController) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
