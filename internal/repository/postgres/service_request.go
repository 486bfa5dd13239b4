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

func (r *serviceRequestRepository) Create(ctx context.Context, request *model.ServiceRequest, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO service_requests (
			id, client_id, category, title, description, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt

	_, err = tx.ExecContext(ctx, query,
		request.ID,
		request.ClientID,
		request.Category,
		request.Title,
		request.Description,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *serviceRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	query := `
		SELECT id, client_id, category, title, description, status,
			   created_at, updated_at
		FROM service_requests
		WHERE id = $1
	`
	var request model.ServiceRequest
	err := r.db.GetContext(ctx, &request, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("service request")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return &request, nil
}

func (r *serviceRequestRepository) Close(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE service_requests
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, model.ServiceRequestStatusClosed, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to close service request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("service request")
	}
	return nil
}
