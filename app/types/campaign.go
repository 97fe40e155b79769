package types

import (
	"errors"
	"strings"

	"github.com/worckyky/sport-booking-backend/app/entity"

	"github.com/labstack/echo/v4"
)

// campaignBlobs gathers the structured parts of a campaign payload so create
// and update share one set of validation rules.
type campaignBlobs struct {
	Location         *entity.Location         `json:"location"`
	Contacts         *entity.Contacts         `json:"contacts"`
	WorkingTimetable *entity.WorkingTimetable `json:"workingTimetable"`
	SocialsLinks     []entity.SocialLink      `json:"socialsLinks" validate:"omitempty,dive"`
	PaymentMethods   []entity.PaymentMethod   `json:"paymentMethods" validate:"omitempty,dive,oneof=MONEY CARD SBP"`
	Facilities       []entity.Facility        `json:"facilities" validate:"omitempty,dive,oneof=PARKING SHOWER LOCKER_ROOM WIFI LIGHTING AIR_CONDITIONING CAFE RENTAL VIDEO_SURVEILLANCE"`
	Sports           []entity.Sport           `json:"sports" validate:"omitempty,dive,oneof=FOOTBALL BASKETBALL TENNIS VOLLEYBALL"`
	Media            *entity.Media            `json:"media"`
}

type CreateCampaignRequest struct {
	Name             string                   `json:"name" validate:"max=255"`
	Description      string                   `json:"description"`
	ShortDescription *string                  `json:"shortDescription" validate:"omitempty,max=512"`
	Location         *entity.Location         `json:"location"`
	Contacts         *entity.Contacts         `json:"contacts"`
	WorkingTimetable *entity.WorkingTimetable `json:"workingTimetable"`
	SocialsLinks     []entity.SocialLink      `json:"socialsLinks"`
	PaymentMethods   []entity.PaymentMethod   `json:"paymentMethods"`
	Facilities       []entity.Facility        `json:"facilities"`
	Sports           []entity.Sport           `json:"sports"`
	Media            *entity.Media            `json:"media"`
}

func NewCreateCampaignRequestFromContext(ctx echo.Context) (*CreateCampaignRequest, error) {
	var body CreateCampaignRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *CreateCampaignRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Description) == "" {
		return errors.New("Name and description are required")
	}
	if err := validateStruct(r); err != nil {
		return err
	}

	return validateStruct(&campaignBlobs{
		Location:         r.Location,
		Contacts:         r.Contacts,
		WorkingTimetable: r.WorkingTimetable,
		SocialsLinks:     r.SocialsLinks,
		PaymentMethods:   r.PaymentMethods,
		Facilities:       r.Facilities,
		Sports:           r.Sports,
		Media:            r.Media,
	})
}

// UpdateCampaignRequest is a partial update; nil fields are left untouched.
type UpdateCampaignRequest struct {
	Name             *string                  `json:"name" validate:"omitempty,max=255"`
	Description      *string                  `json:"description"`
	ShortDescription *string                  `json:"shortDescription" validate:"omitempty,max=512"`
	Location         *entity.Location         `json:"location"`
	Contacts         *entity.Contacts         `json:"contacts"`
	WorkingTimetable *entity.WorkingTimetable `json:"workingTimetable"`
	SocialsLinks     *[]entity.SocialLink     `json:"socialsLinks"`
	PaymentMethods   *[]entity.PaymentMethod  `json:"paymentMethods"`
	Facilities       *[]entity.Facility       `json:"facilities"`
	Sports           *[]entity.Sport          `json:"sports"`
	Media            *entity.Media            `json:"media"`
}

func NewUpdateCampaignRequestFromContext(ctx echo.Context) (*UpdateCampaignRequest, error) {
	var body UpdateCampaignRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateCampaignRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.ShortDescription == nil &&
		r.Location == nil && r.Contacts == nil && r.WorkingTimetable == nil &&
		r.SocialsLinks == nil && r.PaymentMethods == nil && r.Facilities == nil &&
		r.Sports == nil && r.Media == nil
}

func (r *UpdateCampaignRequest) Validate() error {
	if r.Empty() {
		return errors.New("No data provided for update")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("Name cannot be empty")
	}
	if err := validateStruct(r); err != nil {
		return err
	}

	blobs := &campaignBlobs{
		Location:         r.Location,
		Contacts:         r.Contacts,
		WorkingTimetable: r.WorkingTimetable,
		Media:            r.Media,
	}
	if r.SocialsLinks != nil {
		blobs.SocialsLinks = *r.SocialsLinks
	}
	if r.PaymentMethods != nil {
		blobs.PaymentMethods = *r.PaymentMethods
	}
	if r.Facilities != nil {
		blobs.Facilities = *r.Facilities
	}
	if r.Sports != nil {
		blobs.Sports = *r.Sports
	}

	return validateStruct(blobs)
}

type CampaignResponse struct {
	ID               string                   `json:"id"`
	UserID           string                   `json:"userId"`
	Name             string                   `json:"name"`
	Description      *string                  `json:"description"`
	ShortDescription *string                  `json:"shortDescription"`
	Location         *entity.Location         `json:"location"`
	Contacts         *entity.Contacts         `json:"contacts"`
	WorkingTimetable *entity.WorkingTimetable `json:"workingTimetable"`
	SocialsLinks     []entity.SocialLink      `json:"socialsLinks"`
	PaymentMethods   []entity.PaymentMethod   `json:"paymentMethods"`
	Facilities       []entity.Facility        `json:"facilities"`
	Sports           []entity.Sport           `json:"sports"`
	Media            *entity.Media            `json:"media"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}
