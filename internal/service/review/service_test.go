package review

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireside/marketplace-api/internal/model"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type fakeReviewRepo struct {
	reviews []*model.Review
	events  []*model.OutboxEvent
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *model.Review, event *model.OutboxEvent) error {
	r.reviews = append(r.reviews, review)
	r.events = append(r.events, event)
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (r *fakeUserRepo) ListProvidersByCategory(ctx context.Context, category string) ([]*model.User, error) {
	return nil, nil
}

func newFixture() (*Service, *fakeReviewRepo, *model.User, *model.User) {
	reviewer := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	ratee := &model.User{ID: uuid.New(), Name: "Pat", Role: model.RoleProvider}
	repo := &fakeReviewRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		reviewer.ID: reviewer,
		ratee.ID:    ratee,
	}}
	return NewService(repo, users), repo, reviewer, ratee
}

func TestCreateReview(t *testing.T) {
	svc, repo, reviewer, ratee := newFixture()

	comment := "great work"
	created, err := svc.Create(context.Background(), model.Actor{ID: reviewer.ID, Role: model.RoleClient},
		&model.CreateReviewRequest{RateeID: ratee.ID, Rating: 5, Comment: &comment})
	require.NoError(t, err)

	assert.Equal(t, reviewer.ID, created.ReviewerID)
	assert.Equal(t, ratee.ID, created.RateeID)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, model.EventTypeReviewPosted, event.EventType)

	var payload model.ReviewPostedEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, "Cleo", payload.ReviewerName)
	assert.Equal(t, 5, payload.Rating)
}

func TestCreateReviewRatingBounds(t *testing.T) {
	svc, _, reviewer, ratee := newFixture()
	actor := model.Actor{ID: reviewer.ID, Role: model.RoleClient}

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), actor,
			&model.CreateReviewRequest{RateeID: ratee.ID, Rating: rating})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), "rating %d", rating)
	}
}

func TestCreateReviewSelfReviewRejected(t *testing.T) {
	svc, _, reviewer, _ := newFixture()

	_, err := svc.Create(context.Background(), model.Actor{ID: reviewer.ID, Role: model.RoleClient},
		&model.CreateReviewRequest{RateeID: reviewer.ID, Rating: 4})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestCreateReviewUnknownRatee(t *testing.T) {
	svc, repo, reviewer, _ := newFixture()

	_, err := svc.Create(context.Background(), model.Actor{ID: reviewer.ID, Role: model.RoleClient},
		&model.CreateReviewRequest{RateeID: uuid.New(), Rating: 4})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Empty(t, repo.events)
}
