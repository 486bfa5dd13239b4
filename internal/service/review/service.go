package review

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
	repo     repository.ReviewRepository
	userRepo repository.UserRepository
	validate *validator.Validator
}

func NewService(repo repository.ReviewRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		validate: validator.New(),
	}
}

// Create stores the review and raises review.posted for the ratee, in
// one transaction.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateReviewRequest) (*model.Review, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.RateeID == actor.ID {
		return nil, apperrors.Validation("ratee_id", "users cannot review themselves")
	}

	reviewer, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.Get(ctx, req.RateeID); err != nil {
		return nil, err
	}

	review := &model.Review{
		ID:         uuid.New(),
		ReviewerID: actor.ID,
		RateeID:    req.RateeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	eventID := uuid.New()
	payload, err := json.Marshal(&model.ReviewPostedEvent{
		EventID:      eventID,
		RateeID:      review.RateeID,
		ReviewerName: reviewer.Name,
		Rating:       review.Rating,
		Comment:      review.Comment,
		Link:         fmt.Sprintf("/users/%s/reviews", review.RateeID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        eventID,
		EventType: model.EventTypeReviewPosted,
		Payload:   payload,
	}

	if err := s.repo.Create(ctx, review, event); err != nil {
		return nil, err
	}
	return review, nil
}
