package request

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
	"github.com/hireside/marketplace-api/pkg/validator"
)

type Service struct {
	repo     repository.ServiceRequestRepository
	userRepo repository.UserRepository
	validate *validator.Validator
}

func NewService(repo repository.ServiceRequestRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		validate: validator.New(),
	}
}

// Create posts a new service request and raises the request.created
// event that fans out to providers subscribed to the category. Row and
// event commit together.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateServiceRequestRequest) (*model.ServiceRequest, error) {
	if actor.Role != model.RoleClient {
		return nil, apperrors.Unauthorized("only clients can post service requests")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	request := &model.ServiceRequest{
		ID:          uuid.New(),
		ClientID:    actor.ID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.ServiceRequestStatusOpen,
	}

	eventID := uuid.New()
	payload, err := json.Marshal(&model.ServiceRequestCreatedEvent{
		EventID:     eventID,
		RequestID:   request.ID,
		Category:    request.Category,
		CreatorName: creator.Name,
		Title:       request.Title,
		Link:        fmt.Sprintf("/requests/%s", request.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        eventID,
		EventType: model.EventTypeServiceRequestCreated,
		Payload:   payload,
	}

	if err := s.repo.Create(ctx, request, event); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	return s.repo.Get(ctx, id)
}

// Close stops the request from accepting offers. Only its creator may
// close it.
func (s *Service) Close(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if request.ClientID != actor.ID {
		return apperrors.NotOwner("service request")
	}
	if request.Status == model.ServiceRequestStatusClosed {
		return nil
	}
	return s.repo.Close(ctx, id)
}
