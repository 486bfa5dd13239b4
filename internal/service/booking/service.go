package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
	"github.com/hireside/marketplace-api/pkg/metrics"
	"github.com/hireside/marketplace-api/pkg/validator"
)

type Service struct {
	repo     repository.BookingRepository
	userRepo repository.UserRepository
	validate *validator.Validator
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo repository.BookingRepository, userRepo repository.UserRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		validate: validator.New(),
		metrics:  m,
		now:      time.Now,
	}
}

// Create books a provider's service directly. The booking starts
// pending, like one created by accepting an offer, and the provider
// confirms or rejects it from there.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateBookingRequest) (*model.BookingView, error) {
	if actor.Role != model.RoleClient {
		return nil, apperrors.Unauthorized("only clients can create bookings")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, apperrors.Validation("scheduled_at", "bookings must be scheduled in the future")
	}

	provider, err := s.userRepo.Get(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.Role != model.RoleProvider {
		return nil, apperrors.Validation("provider_id", "user is not a provider")
	}

	booking := &model.Booking{
		ID:                uuid.New(),
		ClientID:          actor.ID,
		ProviderID:        provider.ID,
		ProviderServiceID: req.ProviderServiceID,
		Status:            model.BookingStatusPending,
		ScheduledAt:       req.ScheduledAt,
		DurationMinutes:   req.DurationMinutes,
		Price:             req.Price,
		Currency:          provider.Currency,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return view(booking, actor.Role), nil
}

// Get returns the booking with action flags derived for the actor.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.BookingView, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeParticipant(booking, actor); err != nil {
		return nil, err
	}

	return view(booking, actor.Role), nil
}

// Transition moves the booking to target if the transition table allows
// it for the actor's role. The status write is a compare-and-swap, so
// of two concurrent transitions on the same booking exactly one wins;
// the loser gets a Conflict.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target model.BookingStatus, actor model.Actor) (*model.BookingView, error) {
	if !target.Valid() {
		return nil, apperrors.Validation("target_status", fmt.Sprintf("unknown status %q", target))
	}

	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeParticipant(booking, actor); err != nil {
		return nil, err
	}

	from := booking.Status
	if IsTerminal(from) {
		s.observeTransition(from, target, "terminal")
		return nil, apperrors.TerminalState(string(from))
	}
	if !CanTransition(from, target, actor.Role) {
		s.observeTransition(from, target, "illegal")
		return nil, apperrors.IllegalTransition(string(from), string(target))
	}
	if target == model.BookingStatusInProgress && s.now().Before(booking.ScheduledAt) {
		s.observeTransition(from, target, "too_early")
		return nil, apperrors.TooEarly("booking cannot start before its scheduled time")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, target)
	if err != nil {
		return nil, fmt.Errorf("failed to transition booking: %w", err)
	}
	if !updated {
		s.observeTransition(from, target, "conflict")
		return nil, apperrors.Conflict("booking status changed concurrently, reload and retry")
	}
	s.observeTransition(from, target, "ok")

	booking.Status = target
	booking.UpdatedAt = s.now()
	return view(booking, actor.Role), nil
}

// GetProviderDashboard loads the provider's full booking set and builds
// the derived partitions and stats on demand.
func (s *Service) GetProviderDashboard(ctx context.Context, providerID uuid.UUID) (*model.ProviderDashboard, error) {
	provider, err := s.userRepo.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider bookings: %w", err)
	}

	return BuildDashboard(bookings, s.now(), provider.Currency), nil
}

func (s *Service) observeTransition(from, to model.BookingStatus, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingTransitions.WithLabelValues(string(from), string(to), outcome).Inc()
}

// authorizeParticipant rejects actors who are neither the booking's
// client nor its provider in the matching role.
func authorizeParticipant(booking *model.Booking, actor model.Actor) error {
	switch actor.Role {
	case model.RoleClient:
		if booking.ClientID == actor.ID {
			return nil
		}
	case model.RoleProvider:
		if booking.ProviderID == actor.ID {
			return nil
		}
	}
	return apperrors.NotOwner("booking")
}

func view(booking *model.Booking, role model.Role) *model.BookingView {
	canUpdate, canCancel := AllowedActions(booking.Status, role)
	return &model.BookingView{
		Booking:   *booking,
		CanUpdate: canUpdate,
		CanCancel: canCancel,
	}
}
