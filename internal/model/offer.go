package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusOpen     OfferStatus = "open"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
)

// Offer is a provider's priced, messaged bid against a service request.
// At most one offer per (service request, provider) pair exists; a
// second submit for the same pair is an edit, enforced by a unique
// constraint.
type Offer struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	ServiceRequestID uuid.UUID   `db:"service_request_id" json:"service_request_id"`
	ProviderID       uuid.UUID   `db:"provider_id" json:"provider_id"`
	Price            float64     `db:"price" json:"price"`
	Message          string      `db:"message" json:"message"`
	Status           OfferStatus `db:"status" json:"status"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

type SubmitOfferRequest struct {
	ServiceRequestID uuid.UUID `json:"service_request_id" validate:"required"`
	Price            float64   `json:"price" validate:"required,gt=0"`
	Message          string    `json:"message" validate:"required,max=1000"`
}

type UpdateOfferRequest struct {
	Price   float64 `json:"price" validate:"required,gt=0"`
	Message string  `json:"message" validate:"required,max=1000"`
}

type AcceptOfferRequest struct {
	ProviderServiceID uuid.UUID `json:"provider_service_id" validate:"required"`
	ScheduledAt       time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes   int       `json:"duration_minutes" validate:"required,gt=0"`
}
