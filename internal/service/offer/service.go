package offer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
	"github.com/hireside/marketplace-api/pkg/metrics"
	"github.com/hireside/marketplace-api/pkg/validator"
)

type Service struct {
	repo        repository.OfferRepository
	requestRepo repository.ServiceRequestRepository
	userRepo    repository.UserRepository
	validate    *validator.Validator
	metrics     *metrics.Metrics
}

func NewService(repo repository.OfferRepository, requestRepo repository.ServiceRequestRepository, userRepo repository.UserRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		validate:    validator.New(),
		metrics:     m,
	}
}

// Submit creates the provider's offer on a service request. The offer
// row and its offer.submitted outbox event commit in one transaction,
// so the notification can never reference an unreadable offer. A second
// submit for the same (request, provider) pair fails with
// DuplicateOffer; callers route to Update instead.
func (s *Service) Submit(ctx context.Context, actor model.Actor, req *model.SubmitOfferRequest) (*model.Offer, error) {
	if actor.Role != model.RoleProvider {
		return nil, apperrors.Unauthorized("only providers can submit offers")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := checkOfferFields(req.Price, req.Message); err != nil {
		return nil, err
	}

	request, err := s.requestRepo.Get(ctx, req.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.ServiceRequestStatusOpen {
		return nil, apperrors.NotEditable("service request is no longer accepting offers")
	}

	provider, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	offer := &model.Offer{
		ID:               uuid.New(),
		ServiceRequestID: request.ID,
		ProviderID:       actor.ID,
		Price:            req.Price,
		Message:          strings.TrimSpace(req.Message),
		Status:           model.OfferStatusOpen,
	}

	event, err := offerSubmittedEvent(offer, provider, request)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, offer, event); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OffersSubmitted.Inc()
	}
	return offer, nil
}

// Update overwrites price and message of the actor's existing offer.
// Editing is not a new offer: no event is raised.
func (s *Service) Update(ctx context.Context, offerID uuid.UUID, actor model.Actor, req *model.UpdateOfferRequest) (*model.Offer, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := checkOfferFields(req.Price, req.Message); err != nil {
		return nil, err
	}

	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.ProviderID != actor.ID {
		return nil, apperrors.NotOwner("offer")
	}

	request, err := s.requestRepo.Get(ctx, offer.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.ServiceRequestStatusOpen {
		return nil, apperrors.NotEditable("service request is no longer accepting offers")
	}
	if offer.Status != model.OfferStatusOpen {
		return nil, apperrors.NotEditable(fmt.Sprintf("offer has been %s", offer.Status))
	}

	offer.Price = req.Price
	offer.Message = strings.TrimSpace(req.Message)

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// Accept is called by the request's creator: the offer becomes
// accepted, its siblings are declined, the request closes and a pending
// booking is created for the offer's provider and price.
func (s *Service) Accept(ctx context.Context, offerID uuid.UUID, actor model.Actor, req *model.AcceptOfferRequest) (*model.Booking, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.Get(ctx, offer.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != actor.ID {
		return nil, apperrors.NotOwner("service request")
	}
	if offer.Status != model.OfferStatusOpen {
		return nil, apperrors.Conflict("offer is no longer open")
	}

	provider, err := s.userRepo.Get(ctx, offer.ProviderID)
	if err != nil {
		return nil, err
	}

	price := offer.Price
	acceptedID := offer.ID
	booking := &model.Booking{
		ID:                uuid.New(),
		ClientID:          request.ClientID,
		ProviderID:        offer.ProviderID,
		ProviderServiceID: req.ProviderServiceID,
		OfferID:           &acceptedID,
		Status:            model.BookingStatusPending,
		ScheduledAt:       req.ScheduledAt,
		DurationMinutes:   req.DurationMinutes,
		Price:             &price,
		Currency:          provider.Currency,
	}

	if err := s.repo.Accept(ctx, offer, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByRequest returns a request's offers, oldest first.
func (s *Service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.Offer, error) {
	return s.repo.ListByRequest(ctx, requestID)
}

// GetOwn returns the actor's offer on a request, so a provider can tell
// whether a submit should be an edit.
func (s *Service) GetOwn(ctx context.Context, requestID uuid.UUID, actor model.Actor) (*model.Offer, error) {
	return s.repo.GetByRequestAndProvider(ctx, requestID, actor.ID)
}

func checkOfferFields(price float64, message string) error {
	if price <= 0 {
		return apperrors.Validation("price", "price must be greater than zero")
	}
	if strings.TrimSpace(message) == "" {
		return apperrors.Validation("message", "message must not be blank")
	}
	return nil
}

func offerSubmittedEvent(offer *model.Offer, provider *model.User, request *model.ServiceRequest) (*model.OutboxEvent, error) {
	eventID := uuid.New()
	payload, err := json.Marshal(&model.OfferSubmittedEvent{
		EventID:      eventID,
		ClientID:     request.ClientID,
		OffererName:  provider.Name,
		Price:        offer.Price,
		RequestTitle: request.Title,
		Link:         fmt.Sprintf("/requests/%s", request.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &model.OutboxEvent{
		ID:        eventID,
		EventType: model.EventTypeOfferSubmitted,
		Payload:   payload,
	}, nil
}
