package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/types"

	"github.com/google/uuid"
)

type campaignRepository interface {
	Create(ctx context.Context, campaign *entity.Campaign) error
	FindAll(ctx context.Context) ([]*entity.Campaign, error)
	FindByID(ctx context.Context, id string) (*entity.Campaign, error)
	FindByUserID(ctx context.Context, userID string) (*entity.Campaign, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type CampaignService interface {
	List(ctx context.Context) ([]*types.CampaignResponse, error)
	Get(ctx context.Context, id string) (*types.CampaignResponse, error)
	Create(ctx context.Context, userID string, req *types.CreateCampaignRequest) (*types.CampaignResponse, error)
	Update(ctx context.Context, id, userID string, req *types.UpdateCampaignRequest) (*types.CampaignResponse, error)
	Delete(ctx context.Context, id, userID string) error
}

type CampaignServiceOption func(*campaignService)

func WithCampaignClock(now func() time.Time) CampaignServiceOption {
	return func(s *campaignService) {
		if now != nil {
			s.now = now
		}
	}
}

type campaignService struct {
	db           *sql.DB
	campaignRepo campaignRepository
	now          func() time.Time
}

func NewCampaignService(db *sql.DB, campaignRepo campaignRepository, opts ...CampaignServiceOption) CampaignService {
	svc := &campaignService{
		db:           db,
		campaignRepo: campaignRepo,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *campaignService) List(ctx context.Context) ([]*types.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*types.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		res = append(res, campaignResponse(campaign))
	}
	return res, nil
}

func (s *campaignService) Get(ctx context.Context, id string) (*types.CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	return campaignResponse(campaign), nil
}

// Create registers the owner's venue. An owner has at most one campaign.
func (s *campaignService) Create(ctx context.Context, userID string, req *types.CreateCampaignRequest) (*types.CampaignResponse, error) {
	existing, err := s.campaignRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCampaignExists
	}

	now := s.now()
	campaign := &entity.Campaign{
		ID:               uuid.New().String(),
		UserID:           userID,
		Name:             strings.TrimSpace(req.Name),
		Description:      nullString(req.Description),
		Location:         req.Location,
		Contacts:         req.Contacts,
		WorkingTimetable: req.WorkingTimetable,
		SocialsLinks:     req.SocialsLinks,
		PaymentMethods:   req.PaymentMethods,
		Facilities:       req.Facilities,
		Sports:           req.Sports,
		Media:            req.Media,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.ShortDescription != nil {
		campaign.ShortDescription = nullString(*req.ShortDescription)
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrCampaignExists
		}
		return nil, err
	}

	return campaignResponse(campaign), nil
}

// Update applies the patch to a campaign owned by userID. Campaigns owned by
// someone else look exactly like missing ones.
func (s *campaignService) Update(ctx context.Context, id, userID string, req *types.UpdateCampaignRequest) (*types.CampaignResponse, error) {
	changes := repository.CampaignChanges{
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Location:         req.Location,
		Contacts:         req.Contacts,
		WorkingTimetable: req.WorkingTimetable,
		SocialsLinks:     req.SocialsLinks,
		PaymentMethods:   req.PaymentMethods,
		Facilities:       req.Facilities,
		Sports:           req.Sports,
		Media:            req.Media,
	}
	if changes.Empty() {
		return nil, ErrNoCampaignChanges
	}
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		changes.Name = &name
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := repository.NewCampaignRepository(tx)
	campaign, err := txRepo.FindOwnedForUpdate(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	now := s.now()
	if err = txRepo.Update(ctx, id, changes, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	applyCampaignChanges(campaign, changes)
	campaign.UpdatedAt = now

	return campaignResponse(campaign), nil
}

func (s *campaignService) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.campaignRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCampaignNotFound
	}

	return nil
}

func applyCampaignChanges(campaign *entity.Campaign, changes repository.CampaignChanges) {
	if changes.Name != nil {
		campaign.Name = *changes.Name
	}
	if changes.Description != nil {
		campaign.Description = sql.NullString{String: *changes.Description, Valid: true}
	}
	if changes.ShortDescription != nil {
		campaign.ShortDescription = sql.NullString{String: *changes.ShortDescription, Valid: true}
	}
	if changes.Location != nil {
		campaign.Location = changes.Location
	}
	if changes.Contacts != nil {
		campaign.Contacts = changes.Contacts
	}
	if changes.WorkingTimetable != nil {
		campaign.WorkingTimetable = changes.WorkingTimetable
	}
	if changes.SocialsLinks != nil {
		campaign.SocialsLinks = *changes.SocialsLinks
	}
	if changes.PaymentMethods != nil {
		campaign.PaymentMethods = *changes.PaymentMethods
	}
	if changes.Facilities != nil {
		campaign.Facilities = *changes.Facilities
	}
	if changes.Sports != nil {
		campaign.Sports = *changes.Sports
	}
	if changes.Media != nil {
		campaign.Media = changes.Media
	}
}

func campaignResponse(campaign *entity.Campaign) *types.CampaignResponse {
	return &types.CampaignResponse{
		ID:               campaign.ID,
		UserID:           campaign.UserID,
		Name:             campaign.Name,
		Description:      stringPtr(campaign.Description),
		ShortDescription: stringPtr(campaign.ShortDescription),
		Location:         campaign.Location,
		Contacts:         campaign.Contacts,
		WorkingTimetable: campaign.WorkingTimetable,
		SocialsLinks:     campaign.SocialsLinks,
		PaymentMethods:   campaign.PaymentMethods,
		Facilities:       campaign.Facilities,
		Sports:           campaign.Sports,
		Media:            campaign.Media,
		CreatedAt:        formatTimestamp(campaign.CreatedAt),
		UpdatedAt:        formatTimestamp(campaign.UpdatedAt),
	}
}
