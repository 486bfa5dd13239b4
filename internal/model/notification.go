package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type NotificationType string

const (
	NotificationTypeNewReview         NotificationType = "new_review"
	NotificationTypeNewServiceRequest NotificationType = "new_service_request"
	NotificationTypeNewOffer          NotificationType = "new_offer"
)

// requiredPayloadKeys maps each notification type to the exact payload
// field set it must carry. "link" is optional for every type.
var requiredPayloadKeys = map[NotificationType][]string{
	NotificationTypeNewReview:         {"reviewer_name", "rating", "comment"},
	NotificationTypeNewServiceRequest: {"creator_name", "service_request_title"},
	NotificationTypeNewOffer:          {"offerer_name", "price", "service_request_title"},
}

// Notification is a tagged payload delivered to one user. Payload shape
// is fixed by Type and validated at construction; a nil ReadAt means
// unread. EventID names the source domain event so a retried fan-out is
// idempotent per (event, user).
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	EventID   uuid.UUID        `db:"event_id" json:"-"`
	Type      NotificationType `db:"type" json:"type"`
	Payload   json.RawMessage  `db:"payload" json:"payload"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at,omitempty"`
}

// ReviewPayload is the new_review notification body.
type ReviewPayload struct {
	ReviewerName string  `json:"reviewer_name"`
	Rating       int     `json:"rating"`
	Comment      *string `json:"comment"`
	Link         string  `json:"link,omitempty"`
}

// ServiceRequestPayload is the new_service_request notification body.
type ServiceRequestPayload struct {
	CreatorName         string `json:"creator_name"`
	ServiceRequestTitle string `json:"service_request_title"`
	Link                string `json:"link,omitempty"`
}

// OfferPayload is the new_offer notification body.
type OfferPayload struct {
	OffererName         string  `json:"offerer_name"`
	Price               float64 `json:"price"`
	ServiceRequestTitle string  `json:"service_request_title"`
	Link                string  `json:"link,omitempty"`
}

// NewNotification builds a notification for recipient, validating that
// the payload's field set exactly matches the schema for typ. A
// mismatch is an InvalidPayload error: it indicates a dispatcher bug,
// not bad user input.
func NewNotification(recipient uuid.UUID, eventID uuid.UUID, typ NotificationType, payload interface{}) (*Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.InvalidPayload(fmt.Sprintf("payload not serializable: %v", err))
	}

	if err := ValidatePayload(typ, raw); err != nil {
		return nil, err
	}

	return &Notification{
		ID:        uuid.New(),
		UserID:    recipient,
		EventID:   eventID,
		Type:      typ,
		Payload:   raw,
		CreatedAt: time.Now(),
	}, nil
}

// ValidatePayload checks that raw carries exactly the fields required
// for typ (plus the optional link) and that field values are usable.
func ValidatePayload(typ NotificationType, raw json.RawMessage) error {
	required, ok := requiredPayloadKeys[typ]
	if !ok {
		return apperrors.InvalidPayload(fmt.Sprintf("unknown notification type %q", typ))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return apperrors.InvalidPayload(fmt.Sprintf("payload is not an object: %v", err))
	}

	allowed := make(map[string]bool, len(required)+1)
	for _, k := range required {
		allowed[k] = true
	}
	allowed["link"] = true

	for k := range keys {
		if !allowed[k] {
			return apperrors.InvalidPayload(fmt.Sprintf("field %q does not belong to type %s", k, typ))
		}
	}
	for _, k := range required {
		if _, present := keys[k]; !present {
			return apperrors.InvalidPayload(fmt.Sprintf("field %q is required for type %s", k, typ))
		}
	}

	return validatePayloadValues(typ, raw)
}

func validatePayloadValues(typ NotificationType, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	switch typ {
	case NotificationTypeNewReview:
		var p ReviewPayload
		if err := dec.Decode(&p); err != nil {
			return apperrors.InvalidPayload(err.Error())
		}
		if p.ReviewerName == "" {
			return apperrors.InvalidPayload("reviewer_name must not be empty")
		}
		if p.Rating < 1 || p.Rating > 5 {
			return apperrors.InvalidPayload("rating must be between 1 and 5")
		}
	case NotificationTypeNewServiceRequest:
		var p ServiceRequestPayload
		if err := dec.Decode(&p); err != nil {
			return apperrors.InvalidPayload(err.Error())
		}
		if p.CreatorName == "" || p.ServiceRequestTitle == "" {
			return apperrors.InvalidPayload("creator_name and service_request_title must not be empty")
		}
	case NotificationTypeNewOffer:
		var p OfferPayload
		if err := dec.Decode(&p); err != nil {
			return apperrors.InvalidPayload(err.Error())
		}
		if p.OffererName == "" || p.ServiceRequestTitle == "" {
			return apperrors.InvalidPayload("offerer_name and service_request_title must not be empty")
		}
		if p.Price <= 0 {
			return apperrors.InvalidPayload("price must be positive")
		}
	}

	return nil
}
