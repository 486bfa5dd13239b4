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

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, client_id, provider_id, provider_service_id, offer_id,
			status, scheduled_at, duration_minutes, price, currency,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
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
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, client_id, provider_id, provider_service_id, offer_id,
			   status, scheduled_at, duration_minutes, price, currency,
			   created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT id, client_id, provider_id, provider_service_id, offer_id,
			   status, scheduled_at, duration_minutes, price, currency,
			   created_at, updated_at
		FROM bookings
		WHERE provider_id = $1
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus is the single-writer-per-row guard: the WHERE clause
// pins the expected current status, so a concurrent transition on the
// same booking makes exactly one of the two calls match.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
