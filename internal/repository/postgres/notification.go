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

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, notification *model.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (
			id, user_id, event_id, type, payload, created_at, read_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULL)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query,
		notification.ID,
		notification.UserID,
		notification.EventID,
		notification.Type,
		notification.Payload,
		notification.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT id, user_id, event_id, type, payload, created_at, read_at
		FROM notifications
		WHERE id = $1
	`
	var notification model.Notification
	err := r.db.GetContext(ctx, &notification, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("notification")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &notification, nil
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, page *model.Pagination) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, event_id, type, payload, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET read_at = $1
		WHERE id = $2 AND user_id = $3 AND read_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkAllRead scopes the update to rows created at or before cutoff so
// a notification arriving mid-operation is never swept in.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET read_at = $1
		WHERE user_id = $2 AND read_at IS NULL AND created_at <= $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND read_at IS NULL
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
