package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	"github.com/hireside/marketplace-api/pkg/logger"
	"github.com/hireside/marketplace-api/pkg/metrics"
)

// EmailSender mirrors a notification to the recipient's inbox.
type EmailSender interface {
	Send(to, subject, body string) error
}

// Dispatcher turns domain events into per-user notifications. Every
// write goes through Service.Create, which is idempotent per
// (event, user): a retried event only fills in the recipients an
// earlier attempt missed.
type Dispatcher struct {
	notifications *Service
	userRepo      repository.UserRepository
	email         EmailSender
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewDispatcher(notifications *Service, userRepo repository.UserRepository, email EmailSender, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		userRepo:      userRepo,
		email:         email,
		metrics:       m,
		logger:        log,
	}
}

// Dispatch routes one event payload to its recipients. Unknown event
// types are logged and dropped so a newer producer cannot wedge the
// worker.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload []byte) error {
	switch eventType {
	case model.EventTypeReviewPosted:
		return d.dispatchReviewPosted(ctx, payload)
	case model.EventTypeServiceRequestCreated:
		return d.dispatchRequestCreated(ctx, payload)
	case model.EventTypeOfferSubmitted:
		return d.dispatchOfferSubmitted(ctx, payload)
	default:
		d.logger.Warn("skipping unknown event type", "event_type", eventType)
		return nil
	}
}

func (d *Dispatcher) dispatchReviewPosted(ctx context.Context, payload []byte) error {
	var event model.ReviewPostedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal review.posted payload: %w", err)
	}

	notification, err := model.NewNotification(event.RateeID, event.EventID, model.NotificationTypeNewReview, &model.ReviewPayload{
		ReviewerName: event.ReviewerName,
		Rating:       event.Rating,
		Comment:      event.Comment,
		Link:         event.Link,
	})
	if err != nil {
		return err
	}

	if err := d.deliver(ctx, notification, fmt.Sprintf("%s left you a review", event.ReviewerName)); err != nil {
		return err
	}
	d.observeFanout(1)
	return nil
}

func (d *Dispatcher) dispatchRequestCreated(ctx context.Context, payload []byte) error {
	var event model.ServiceRequestCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal request.created payload: %w", err)
	}

	providers, err := d.userRepo.ListProvidersByCategory(ctx, event.Category)
	if err != nil {
		return fmt.Errorf("failed to list providers for category %s: %w", event.Category, err)
	}

	subject := fmt.Sprintf("New %s request: %s", event.Category, event.Title)
	for _, provider := range providers {
		notification, err := model.NewNotification(provider.ID, event.EventID, model.NotificationTypeNewServiceRequest, &model.ServiceRequestPayload{
			CreatorName:         event.CreatorName,
			ServiceRequestTitle: event.Title,
			Link:                event.Link,
		})
		if err != nil {
			return err
		}
		// Stop at the first failed write; already-written recipients
		// are skipped by the (event, user) constraint on retry.
		if err := d.deliver(ctx, notification, subject); err != nil {
			return err
		}
	}

	d.observeFanout(len(providers))
	return nil
}

func (d *Dispatcher) dispatchOfferSubmitted(ctx context.Context, payload []byte) error {
	var event model.OfferSubmittedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal offer.submitted payload: %w", err)
	}

	notification, err := model.NewNotification(event.ClientID, event.EventID, model.NotificationTypeNewOffer, &model.OfferPayload{
		OffererName:         event.OffererName,
		Price:               event.Price,
		ServiceRequestTitle: event.RequestTitle,
		Link:                event.Link,
	})
	if err != nil {
		return err
	}

	if err := d.deliver(ctx, notification, fmt.Sprintf("%s made an offer on %q", event.OffererName, event.RequestTitle)); err != nil {
		return err
	}
	d.observeFanout(1)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, notification *model.Notification, subject string) error {
	written, err := d.notifications.Create(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to store notification for user %s: %w", notification.UserID, err)
	}
	if !written {
		d.logger.Debug("notification already delivered",
			"user_id", notification.UserID, "type", notification.Type)
		return nil
	}

	if d.metrics != nil {
		d.metrics.NotificationsDispatched.WithLabelValues(string(notification.Type)).Inc()
	}

	d.mirrorToEmail(ctx, notification, subject)
	return nil
}

// mirrorToEmail is best effort: a bounced email never fails the event.
func (d *Dispatcher) mirrorToEmail(ctx context.Context, notification *model.Notification, subject string) {
	if d.email == nil {
		return
	}

	user, err := d.userRepo.Get(ctx, notification.UserID)
	if err != nil {
		d.logger.Error(err, "failed to load recipient for email mirror", "user_id", notification.UserID)
		return
	}

	if err := d.email.Send(user.Email, subject, string(notification.Payload)); err != nil {
		d.logger.Error(err, "failed to mirror notification to email", "user_id", notification.UserID)
	}
}

func (d *Dispatcher) observeFanout(recipients int) {
	if d.metrics != nil {
		d.metrics.NotificationFanoutSize.Observe(float64(recipients))
	}
}
