package controller

import (
	"net/http"
	"time"

	httpdto "github.com/worckyky/sport-booking-backend/app/dto/http"

	"github.com/labstack/echo/v4"
)

type HealthController struct {
	now func() time.Time
}

func NewHealthController() *HealthController {
	return &HealthController{now: time.Now}
}

func (c *HealthController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, httpdto.HealthResponse{
		Status:    "ok",
		Timestamp: c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
