package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type Service struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// List returns the actor's notifications, newest first.
func (s *Service) List(ctx context.Context, actor model.Actor, page *model.Pagination) ([]*model.Notification, error) {
	page.Normalize()
	return s.repo.List(ctx, actor.ID, page)
}

// MarkRead marks one notification read. Marking an already-read
// notification succeeds without changing anything; a notification owned
// by someone else is a NotOwner error, not a silent no-op.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	changed, err := s.repo.MarkRead(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}

	// Nothing changed: distinguish missing, foreign and already-read.
	notification, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if notification.UserID != actor.ID {
		return apperrors.NotOwner("notification")
	}
	return nil
}

// MarkAllRead marks every unread notification created at or before the
// moment the call started. Notifications arriving while the sweep runs
// stay unread.
func (s *Service) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	cutoff := s.now()
	return s.repo.MarkAllRead(ctx, actor.ID, cutoff)
}

// UnreadCount recomputes the actor's unread total on every call.
// Notifications are written by the worker process while this is read
// from the API process, so any in-process cache here would serve counts
// stale past a write. The query is a single indexed lookup.
func (s *Service) UnreadCount(ctx context.Context, actor model.Actor) (int, error) {
	return s.repo.UnreadCount(ctx, actor.ID)
}

// Create persists a dispatched notification. It reports false when a
// row for the same (event, user) already exists, which makes retried
// fan-outs idempotent.
func (s *Service) Create(ctx context.Context, notification *model.Notification) (bool, error) {
	return s.repo.CreateIfAbsent(ctx, notification)
}
