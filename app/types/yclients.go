package types

import (
	"errors"

	"github.com/labstack/echo/v4"
)

type UpdateYClientsRequest struct {
	PartnerToken string `json:"ycPartnerToken" validate:"required"`
	Login        string `json:"ycLogin" validate:"required"`
	Password     string `json:"ycPassword" validate:"required"`
	CompanyID    string `json:"yclientsCompanyId" validate:"required"`
}

func NewUpdateYClientsRequestFromContext(ctx echo.Context) (*UpdateYClientsRequest, error) {
	var body UpdateYClientsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateYClientsRequest) Validate() error {
	if structValidator.Struct(r) != nil {
		return errors.New("ycPartnerToken, ycLogin, ycPassword and yclientsCompanyId are required")
	}

	return nil
}

type YClientsResponse struct {
	PartnerToken string `json:"ycPartnerToken"`
	UserToken    string `json:"ycUserToken"`
	CompanyID    string `json:"yclientsCompanyId"`
}
