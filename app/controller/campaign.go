package controller

import (
	"net/http"

	"github.com/worckyky/sport-booking-backend/app/middleware"
	"github.com/worckyky/sport-booking-backend/app/service"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CampaignController struct {
	campaignService service.CampaignService
}

func NewCampaignController(campaignService service.CampaignService) *CampaignController {
	return &CampaignController{campaignService: campaignService}
}

func (c *CampaignController) List(ctx echo.Context) error {
	campaigns, err := c.campaignService.List(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err, nil)
	}

	return ctx.JSON(http.StatusOK, campaigns)
}

func (c *CampaignController) Get(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return badRequest(ctx, "Campaign ID is required")
	}

	campaign, err := c.campaignService.Get(ctx.Request().Context(), id)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"campaign_id": id})
	}

	return ctx.JSON(http.StatusOK, campaign)
}

func (c *CampaignController) Create(ctx echo.Context) error {
	userID := middleware.UserID(ctx)

	req, err := types.NewCreateCampaignRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind campaign create request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Campaign validation failed")
		return badRequest(ctx, err.Error())
	}

	campaign, err := c.campaignService.Create(ctx.Request().Context(), userID, req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"campaign_id": campaign.ID,
	}).Info("Campaign created")
	return ctx.JSON(http.StatusCreated, campaign)
}

func (c *CampaignController) Update(ctx echo.Context) error {
	userID := middleware.UserID(ctx)
	id := ctx.Param("id")
	if id == "" {
		return badRequest(ctx, "Campaign ID is required")
	}

	req, err := types.NewUpdateCampaignRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind campaign update request")
		return badRequest(ctx, "Invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	campaign, err := c.campaignService.Update(ctx.Request().Context(), id, userID, req)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID, "campaign_id": id})
	}

	logrus.WithField("campaign_id", id).Info("Campaign updated")
	return ctx.JSON(http.StatusOK, campaign)
}

func (c *CampaignController) Delete(ctx echo.Context) error {
	userID := middleware.UserID(ctx)
	id := ctx.Param("id")
	if id == "" {
		return badRequest(ctx, "Campaign ID is required")
	}

	if err := c.campaignService.Delete(ctx.Request().Context(), id, userID); err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID, "campaign_id": id})
	}

	logrus.WithField("campaign_id", id).Info("Campaign deleted")
	return ctx.NoContent(http.StatusNoContent)
}
