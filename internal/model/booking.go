package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusRejected   BookingStatus = "rejected"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// Booking is a scheduled engagement between a client and a provider for
// a provider service. Rows are never deleted; terminal statuses are
// retained for history and stats.
type Booking struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	ClientID          uuid.UUID     `db:"client_id" json:"client_id"`
	ProviderID        uuid.UUID     `db:"provider_id" json:"provider_id"`
	ProviderServiceID uuid.UUID     `db:"provider_service_id" json:"provider_service_id"`
	OfferID           *uuid.UUID    `db:"offer_id" json:"offer_id,omitempty"`
	Status            BookingStatus `db:"status" json:"status"`
	ScheduledAt       time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes   int           `db:"duration_minutes" json:"duration_minutes"`
	Price             *float64      `db:"price" json:"price,omitempty"`
	Currency          string        `db:"currency" json:"currency"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingView is a booking plus the derived action flags for a given
// actor. The flags are computed from the transition table, never stored.
type BookingView struct {
	Booking
	CanUpdate bool `json:"can_update"`
	CanCancel bool `json:"can_cancel"`
}

// PendingBooking is the narrowed representation used by the dashboard's
// pending partition. Status and the derived action flags are omitted on
// purpose: they are not meaningful before the provider confirms.
type PendingBooking struct {
	ID                uuid.UUID `json:"id"`
	ClientID          uuid.UUID `json:"client_id"`
	ProviderServiceID uuid.UUID `json:"provider_service_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	Price             *float64  `json:"price,omitempty"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// DashboardStats is derived from a provider's full booking set, never
// persisted. Revenue sums prices of completed bookings only, in the
// provider's nominal currency.
type DashboardStats struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Confirmed int     `json:"confirmed"`
	Completed int     `json:"completed"`
	Revenue   float64 `json:"revenue"`
	Currency  string  `json:"currency"`
}

// ProviderDashboard is the provider-facing aggregation: summary stats
// plus the four partitions of the provider's bookings.
type ProviderDashboard struct {
	Stats    DashboardStats    `json:"stats"`
	Upcoming []*BookingView    `json:"upcoming"`
	Pending  []*PendingBooking `json:"pending"`
	Today    []*BookingView    `json:"today"`
	Recent   []*BookingView    `json:"recent"`
}

// CreateBookingRequest books a provider's service directly, without
// going through a service request and offer.
type CreateBookingRequest struct {
	ProviderID        uuid.UUID `json:"provider_id" validate:"required"`
	ProviderServiceID uuid.UUID `json:"provider_service_id" validate:"required"`
	ScheduledAt       time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes   int       `json:"duration_minutes" validate:"required,gt=0"`
	Price             *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
}

type TransitionBookingRequest struct {
	TargetStatus BookingStatus `json:"target_status" validate:"required,oneof=pending confirmed in_progress completed cancelled rejected"`
}
