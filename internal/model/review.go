package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	RateeID    uuid.UUID `db:"ratee_id" json:"ratee_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type CreateReviewRequest struct {
	RateeID uuid.UUID `json:"ratee_id" validate:"required"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Comment *string   `json:"comment" validate:"omitempty,max=2000"`
}
