package request

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

type fakeRequestRepo struct {
	requests map[uuid.UUID]*model.ServiceRequest
	events   []*model.OutboxEvent
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.ServiceRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, request *model.ServiceRequest, event *model.OutboxEvent) error {
	r.requests[request.ID] = request
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRequestRepo) Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("service request")
	}
	return req, nil
}

func (r *fakeRequestRepo) Close(ctx context.Context, id uuid.UUID) error {
	req, ok := r.requests[id]
	if !ok {
		return apperrors.NotFound("service request")
	}
	req.Status = model.ServiceRequestStatusClosed
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

func TestCreateRequest(t *testing.T) {
	client := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	repo := newFakeRequestRepo()
	svc := NewService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{client.ID: client}})

	created, err := svc.Create(context.Background(), model.Actor{ID: client.ID, Role: model.RoleClient},
		&model.CreateServiceRequestRequest{
			Category:    "plumbing",
			Title:       "Fix leaking sink",
			Description: "Kitchen sink drips",
		})
	require.NoError(t, err)

	assert.Equal(t, model.ServiceRequestStatusOpen, created.Status)
	assert.Equal(t, client.ID, created.ClientID)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, model.EventTypeServiceRequestCreated, event.EventType)

	var payload model.ServiceRequestCreatedEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, event.ID, payload.EventID, "outbox row and payload share the event ID")
	assert.Equal(t, "Cleo", payload.CreatorName)
	assert.Equal(t, "plumbing", payload.Category)
}

func TestCreateRequestProviderRejected(t *testing.T) {
	svc := NewService(newFakeRequestRepo(), &fakeUserRepo{})

	_, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RoleProvider},
		&model.CreateServiceRequestRequest{Category: "plumbing", Title: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotOwner))
}

func TestCreateRequestValidation(t *testing.T) {
	client := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	svc := NewService(newFakeRequestRepo(), &fakeUserRepo{users: map[uuid.UUID]*model.User{client.ID: client}})

	_, err := svc.Create(context.Background(), model.Actor{ID: client.ID, Role: model.RoleClient},
		&model.CreateServiceRequestRequest{Category: "", Title: "Fix sink"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestCloseRequest(t *testing.T) {
	client := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	repo := newFakeRequestRepo()
	svc := NewService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{client.ID: client}})
	actor := model.Actor{ID: client.ID, Role: model.RoleClient}

	created, err := svc.Create(context.Background(), actor,
		&model.CreateServiceRequestRequest{Category: "plumbing", Title: "Fix sink"})
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background(), created.ID, actor))
	assert.Equal(t, model.ServiceRequestStatusClosed, repo.requests[created.ID].Status)

	// Closing twice is a no-op.
	require.NoError(t, svc.Close(context.Background(), created.ID, actor))
}

func TestCloseRequestNotOwner(t *testing.T) {
	client := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	repo := newFakeRequestRepo()
	svc := NewService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{client.ID: client}})

	created, err := svc.Create(context.Background(), model.Actor{ID: client.ID, Role: model.RoleClient},
		&model.CreateServiceRequestRequest{Category: "plumbing", Title: "Fix sink"})
	require.NoError(t, err)

	err = svc.Close(context.Background(), created.ID, model.Actor{ID: uuid.New(), Role: model.RoleClient})
	assert.True(t, apperrors.Is(err, apperrors.KindNotOwner))
}
