package controller

import (
	"net/http"

	"github.com/worckyky/sport-booking-backend/app/middleware"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type QueryController struct {
	queryService service.QueryService
}

func NewQueryController(queryService service.QueryService) *QueryController {
	return &QueryController{queryService: queryService}
}

func (c *QueryController) Query(ctx echo.Context) error {
	req, err := types.NewQueryRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind query request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	access := middleware.CallerAccess(ctx)
	rows, err := c.queryService.Select(ctx.Request().Context(), access, req)
	if err != nil {
		fields := logrus.Fields{"table": req.Table}
		if access != nil {
			fields["service"] = access.ServiceName
		}
		return respondError(ctx, err, fields)
	}

	return ctx.JSON(http.StatusOK, rows)
}
