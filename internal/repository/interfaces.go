package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
)

// All repository interfaces in one file
type (
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Booking, error)
		// UpdateStatus performs a compare-and-swap on the booking's
		// status; it reports false when no row matched (id, from),
		// meaning a concurrent transition won the race.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (bool, error)
	}

	OfferRepository interface {
		// Create inserts the offer and its outbox event in one
		// transaction. The unique (service_request_id, provider_id)
		// constraint surfaces as a DuplicateOffer error.
		Create(ctx context.Context, offer *model.Offer, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Offer, error)
		GetByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*model.Offer, error)
		Update(ctx context.Context, offer *model.Offer) error
		ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.Offer, error)
		// Accept marks the offer accepted, declines its siblings,
		// closes the parent request and creates the booking, all in
		// one transaction.
		Accept(ctx context.Context, offer *model.Offer, booking *model.Booking) error
	}

	ServiceRequestRepository interface {
		Create(ctx context.Context, request *model.ServiceRequest, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error)
		Close(ctx context.Context, id uuid.UUID) error
	}

	ReviewRepository interface {
		Create(ctx context.Context, review *model.Review, event *model.OutboxEvent) error
	}

	NotificationRepository interface {
		// CreateIfAbsent inserts the notification unless a row for the
		// same (event_id, user_id) already exists; it reports whether a
		// row was written. Retried fan-outs stay idempotent this way.
		CreateIfAbsent(ctx context.Context, notification *model.Notification) (bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		List(ctx context.Context, userID uuid.UUID, page *model.Pagination) ([]*model.Notification, error)
		// MarkRead sets read_at if the row is owned by userID and still
		// unread; it reports whether a row changed.
		MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
		// MarkAllRead sets read_at on every unread notification created
		// at or before cutoff. Rows created after cutoff are untouched.
		MarkAllRead(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error)
		UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		ListProvidersByCategory(ctx context.Context, category string) ([]*model.User, error)
	}

	OutboxRepository interface {
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
