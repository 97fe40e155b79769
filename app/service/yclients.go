package service

import (
	"context"
	"errors"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/types"
	"github.com/worckyky/sport-booking-backend/app/yclients"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const yclientsAuthFailed = "Failed to authenticate with YClients"

type yclientsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*entity.YClientsCredential, error)
	CreateEmpty(ctx context.Context, cred *entity.YClientsCredential) error
	Upsert(ctx context.Context, cred *entity.YClientsCredential) error
}

type yclientsAuthenticator interface {
	AuthenticateUser(ctx context.Context, partnerToken, login, password string) (string, error)
}

type YClientsRecorder interface {
	RecordYClientsAuth(outcome string)
}

type YClientsService interface {
	Get(ctx context.Context, userID string) (*types.YClientsResponse, error)
	Update(ctx context.Context, userID string, req *types.UpdateYClientsRequest) (*types.YClientsResponse, error)
}

type YClientsServiceOption func(*yclientsService)

func WithYClientsRecorder(recorder YClientsRecorder) YClientsServiceOption {
	return func(s *yclientsService) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

type yclientsService struct {
	repo     yclientsRepository
	client   yclientsAuthenticator
	recorder YClientsRecorder
	now      func() time.Time
}

func NewYClientsService(repo yclientsRepository, client yclientsAuthenticator, opts ...YClientsServiceOption) YClientsService {
	svc := &yclientsService{
		repo:     repo,
		client:   client,
		recorder: noopYClientsRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Get returns the stored credentials, creating an empty row on first access.
func (s *yclientsService) Get(ctx context.Context, userID string) (*types.YClientsResponse, error) {
	cred, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred != nil {
		return yclientsResponse(cred), nil
	}

	now := s.now()
	cred = &entity.YClientsCredential{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateEmpty(ctx, cred); err != nil {
		return nil, err
	}

	return yclientsResponse(cred), nil
}

// Update trades the login and password for a user token. The password itself
// is never stored.
func (s *yclientsService) Update(ctx context.Context, userID string, req *types.UpdateYClientsRequest) (*types.YClientsResponse, error) {
	userToken, err := s.client.AuthenticateUser(ctx, req.PartnerToken, req.Login, req.Password)
	if err != nil {
		s.recorder.RecordYClientsAuth("rejected")

		var apiErr *yclients.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, &IntegrationError{Message: apiErr.Message, Err: err}
		}
		logrus.WithError(err).WithField("user_id", userID).Warn("YClients authentication failed")
		return nil, &IntegrationError{Message: yclientsAuthFailed, Err: err}
	}
	s.recorder.RecordYClientsAuth("success")

	now := s.now()
	cred := &entity.YClientsCredential{
		ID:           uuid.New().String(),
		UserID:       userID,
		PartnerToken: req.PartnerToken,
		UserToken:    userToken,
		CompanyID:    req.CompanyID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}

	return yclientsResponse(cred), nil
}

type noopYClientsRecorder struct{}

func (noopYClientsRecorder) RecordYClientsAuth(string) {}

func yclientsResponse(cred *entity.YClientsCredential) *types.YClientsResponse {
	return &types.YClientsResponse{
		PartnerToken: cred.PartnerToken,
		UserToken:    cred.UserToken,
		CompanyID:    cred.CompanyID,
	}
}
