package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Event types published through the outbox. The notification
// dispatcher consumes all three.
const (
	EventTypeReviewPosted          = "review.posted"
	EventTypeServiceRequestCreated = "request.created"
	EventTypeOfferSubmitted        = "offer.submitted"
)

// OutboxEvent is written in the same transaction as the aggregate
// change that caused it, so a notification is only ever raised for a
// persisted row.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ReviewPostedEvent notifies the ratee about a new review. Names are
// denormalized at emit time so the dispatcher needs no extra lookups.
type ReviewPostedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	RateeID      uuid.UUID `json:"ratee_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	Link         string    `json:"link,omitempty"`
}

// ServiceRequestCreatedEvent fans out to every provider subscribed to
// the request's category.
type ServiceRequestCreatedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	RequestID   uuid.UUID `json:"request_id"`
	Category    string    `json:"category"`
	CreatorName string    `json:"creator_name"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
}

// OfferSubmittedEvent notifies the request's creator about a new offer.
type OfferSubmittedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	ClientID     uuid.UUID `json:"client_id"`
	OffererName  string    `json:"offerer_name"`
	Price        float64   `json:"price"`
	RequestTitle string    `json:"request_title"`
	Link         string    `json:"link,omitempty"`
}
