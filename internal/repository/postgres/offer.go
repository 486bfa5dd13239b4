package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

func (r *offerRepository) Create(ctx context.Context, offer *model.Offer, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO offers (
			id, service_request_id, provider_id, price, message, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt

	_, err = tx.ExecContext(ctx, query,
		offer.ID,
		offer.ServiceRequestID,
		offer.ProviderID,
		offer.Price,
		offer.Message,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.DuplicateOffer()
	}
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *offerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	query := `
		SELECT id, service_request_id, provider_id, price, message, status,
			   created_at, updated_at
		FROM offers
		WHERE id = $1
	`
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("offer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) GetByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*model.Offer, error) {
	query := `
		SELECT id, service_request_id, provider_id, price, message, status,
			   created_at, updated_at
		FROM offers
		WHERE service_request_id = $1 AND provider_id = $2
	`
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, query, requestID, providerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("offer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) Update(ctx context.Context, offer *model.Offer) error {
	query := `
		UPDATE offers
		SET price = $1, message = $2, updated_at = $3
		WHERE id = $4
	`
	offer.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, offer.Price, offer.Message, offer.UpdatedAt, offer.ID)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("offer")
	}
	return nil
}

func (r *offerRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.Offer, error) {
	query := `
		SELECT id, service_request_id, provider_id, price, message, status,
			   created_at, updated_at
		FROM offers
		WHERE service_request_id = $1
		ORDER BY created_at ASC
	`
	var offers []*model.Offer
	err := r.db.SelectContext(ctx, &offers, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) Accept(ctx context.Context, offer *model.Offer, booking *model.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.ExecContext(ctx, `
		UPDATE offers SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, model.OfferStatusAccepted, now, offer.ID, model.OfferStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to accept offer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("offer is no longer open")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE offers SET status = $1, updated_at = $2
		WHERE service_request_id = $3 AND id != $4 AND status = $5
	`, model.OfferStatusDeclined, now, offer.ServiceRequestID, offer.ID, model.OfferStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to decline sibling offers: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE service_requests SET status = $1, updated_at = $2
		WHERE id = $3
	`, model.ServiceRequestStatusClosed, now, offer.ServiceRequestID)
	if err != nil {
		return fmt.Errorf("failed to close service request: %w", err)
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, client_id, provider_id, provider_service_id, offer_id,
			status, scheduled_at, duration_minutes, price, currency,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		booking.ID,
		booking.ClientID,
		booking.ProviderID,
		booking.ProviderServiceID,
		booking.OfferID,
		booking.Status,
		booking.ScheduledAt,
		booking.DurationMinutes,
		booking.Price,
		booking.Currency,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
