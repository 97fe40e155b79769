package controller

import (
	"net/http"

	"github.com/worckyky/sport-booking-backend/app/middleware"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type YClientsController struct {
	yclientsService service.YClientsService
}

func NewYClientsController(yclientsService service.YClientsService) *YClientsController {
	return &YClientsController{yclientsService: yclientsService}
}

func (c *YClientsController) Get(ctx echo.Context) error {
	userID := middleware.UserID(ctx)

	res, err := c.yclientsService.Get(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID})
	}

	return ctx.JSON(http.StatusOK, res)
}

func (c *YClientsController) Update(ctx echo.Context) error {
	userID := middleware.UserID(ctx)

	req, err := types.NewUpdateYClientsRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind yclients update request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	res, err := c.yclientsService.Update(ctx.Request().Context(), userID, req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID})
	}

	logrus.WithField("user_id", userID).Info("YClients credentials updated")
	return ctx.JSON(http.StatusOK, res)
}
