package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/model"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, role, currency, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ListProvidersByCategory(ctx context.Context, category string) ([]*model.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.currency, u.created_at, u.updated_at
		FROM users u
		JOIN provider_categories pc ON pc.provider_id = u.id
		WHERE u.role = $1 AND pc.category = $2
		ORDER BY u.id
	`
	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, model.RoleProvider, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers by category: %w", err)
	}
	return users, nil
}
