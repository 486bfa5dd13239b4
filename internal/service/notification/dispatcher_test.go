package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/repository"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
	"github.com/hireside/marketplace-api/pkg/logger"
)

type fakeUserRepo struct {
	users     map[uuid.UUID]*model.User
	providers map[string][]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[uuid.UUID]*model.User),
		providers: make(map[string][]*model.User),
	}
}

func (r *fakeUserRepo) addProvider(name, category string) *model.User {
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: model.RoleProvider}
	r.users[u.ID] = u
	r.providers[category] = append(r.providers[category], u)
	return u
}

func (r *fakeUserRepo) addClient(name string) *model.User {
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: model.RoleClient}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (r *fakeUserRepo) ListProvidersByCategory(ctx context.Context, category string) ([]*model.User, error) {
	return r.providers[category], nil
}

// flakyNotificationRepo fails writes for one user until cleared, to
// exercise partial fan-out recovery.
type flakyNotificationRepo struct {
	*fakeNotificationRepo
	failFor uuid.UUID
}

func (r *flakyNotificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	if n.UserID == r.failFor {
		return false, errors.New("connection reset")
	}
	return r.fakeNotificationRepo.CreateIfAbsent(ctx, n)
}

func testDispatcher(repo repository.NotificationRepository, users *fakeUserRepo) *Dispatcher {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewDispatcher(NewService(repo), users, nil, nil, log)
}

func payloadKeys(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestDispatchRequestCreatedFansOut(t *testing.T) {
	users := newFakeUserRepo()
	plumber1 := users.addProvider("Pat", "plumbing")
	plumber2 := users.addProvider("Sam", "plumbing")
	users.addProvider("Lee", "painting")

	repo := newFakeNotificationRepo()
	d := testDispatcher(repo, users)

	event := &model.ServiceRequestCreatedEvent{
		EventID:     uuid.New(),
		RequestID:   uuid.New(),
		Category:    "plumbing",
		CreatorName: "Cleo",
		Title:       "Fix leaking sink",
		Link:        "/requests/abc",
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeServiceRequestCreated, payload))

	require.Len(t, repo.notifications, 2, "only same-category providers notified")

	recipients := make(map[uuid.UUID]bool)
	for _, n := range repo.notifications {
		recipients[n.UserID] = true
		assert.Equal(t, model.NotificationTypeNewServiceRequest, n.Type)
		assert.ElementsMatch(t,
			[]string{"creator_name", "service_request_title", "link"},
			payloadKeys(t, n.Payload))
	}
	assert.True(t, recipients[plumber1.ID])
	assert.True(t, recipients[plumber2.ID])
}

func TestDispatchReviewPosted(t *testing.T) {
	users := newFakeUserRepo()
	ratee := users.addProvider("Pat", "plumbing")

	repo := newFakeNotificationRepo()
	d := testDispatcher(repo, users)

	comment := "great work"
	payload, err := json.Marshal(&model.ReviewPostedEvent{
		EventID:      uuid.New(),
		RateeID:      ratee.ID,
		ReviewerName: "Cleo",
		Rating:       5,
		Comment:      &comment,
	})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeReviewPosted, payload))

	require.Len(t, repo.notifications, 1)
	for _, n := range repo.notifications {
		assert.Equal(t, ratee.ID, n.UserID)
		assert.Equal(t, model.NotificationTypeNewReview, n.Type)
		assert.ElementsMatch(t,
			[]string{"reviewer_name", "rating", "comment"},
			payloadKeys(t, n.Payload))
	}
}

func TestDispatchOfferSubmitted(t *testing.T) {
	users := newFakeUserRepo()
	client := users.addClient("Cleo")

	repo := newFakeNotificationRepo()
	d := testDispatcher(repo, users)

	payload, err := json.Marshal(&model.OfferSubmittedEvent{
		EventID:      uuid.New(),
		ClientID:     client.ID,
		OffererName:  "Pat",
		Price:        120,
		RequestTitle: "Fix leaking sink",
		Link:         "/requests/abc",
	})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeOfferSubmitted, payload))

	require.Len(t, repo.notifications, 1)
	for _, n := range repo.notifications {
		assert.Equal(t, client.ID, n.UserID)
		assert.Equal(t, model.NotificationTypeNewOffer, n.Type)
	}
}

func TestDispatchUnknownTypeIsDropped(t *testing.T) {
	repo := newFakeNotificationRepo()
	d := testDispatcher(repo, newFakeUserRepo())

	require.NoError(t, d.Dispatch(context.Background(), "account.deleted", []byte(`{}`)))
	assert.Empty(t, repo.notifications)
}

// The outbox publishes at least once; a duplicate delivery of an
// already-handled event must not produce duplicate notifications.
func TestDispatchRedeliveredEventWritesNothing(t *testing.T) {
	users := newFakeUserRepo()
	client := users.addClient("Cleo")

	repo := newFakeNotificationRepo()
	d := testDispatcher(repo, users)

	payload, err := json.Marshal(&model.OfferSubmittedEvent{
		EventID:      uuid.New(),
		ClientID:     client.ID,
		OffererName:  "Pat",
		Price:        120,
		RequestTitle: "Fix leaking sink",
	})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeOfferSubmitted, payload))
	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeOfferSubmitted, payload))
	assert.Len(t, repo.notifications, 1)
}

// A fan-out interrupted by a storage error fills in only the missing
// recipients on redelivery; the ones already written stay single.
func TestDispatchRetryCompletesPartialFanout(t *testing.T) {
	users := newFakeUserRepo()
	users.addProvider("Pat", "plumbing")
	plumber2 := users.addProvider("Sam", "plumbing")

	inner := newFakeNotificationRepo()
	repo := &flakyNotificationRepo{fakeNotificationRepo: inner, failFor: plumber2.ID}
	d := testDispatcher(repo, users)

	payload, err := json.Marshal(&model.ServiceRequestCreatedEvent{
		EventID:     uuid.New(),
		RequestID:   uuid.New(),
		Category:    "plumbing",
		CreatorName: "Cleo",
		Title:       "Fix leaking sink",
	})
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), model.EventTypeServiceRequestCreated, payload)
	require.Error(t, err)
	assert.Len(t, inner.notifications, 1, "first recipient written before the failure")

	repo.failFor = uuid.Nil

	require.NoError(t, d.Dispatch(context.Background(), model.EventTypeServiceRequestCreated, payload))
	assert.Len(t, inner.notifications, 2, "retry writes only the missing recipient")
}
