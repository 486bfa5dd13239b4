package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceRequestStatus string

const (
	ServiceRequestStatusOpen   ServiceRequestStatus = "open"
	ServiceRequestStatusClosed ServiceRequestStatus = "closed"
)

// ServiceRequest is a client-posted need for a service, open to
// provider offers while status is open.
type ServiceRequest struct {
	ID          uuid.UUID            `db:"id" json:"id"`
	ClientID    uuid.UUID            `db:"client_id" json:"client_id"`
	Category    string               `db:"category" json:"category"`
	Title       string               `db:"title" json:"title"`
	Description string               `db:"description" json:"description,omitempty"`
	Status      ServiceRequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

type CreateServiceRequestRequest struct {
	Category    string `json:"category" validate:"required,max=100"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}
