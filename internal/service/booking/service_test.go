package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireside/marketplace-api/internal/model"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type fakeBookingRepo struct {
	bookings  map[uuid.UUID]*model.Booking
	casResult bool
	casCalls  int
}

func newFakeBookingRepo(bookings ...*model.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[uuid.UUID]*model.Booking), casResult: true}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	copy := *b
	return &copy, nil
}

func (r *fakeBookingRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (bool, error) {
	r.casCalls++
	if !r.casResult {
		return false, nil
	}
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
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

func testService(repo *fakeBookingRepo, userRepo *fakeUserRepo, now time.Time) *Service {
	s := NewService(repo, userRepo, nil)
	s.now = func() time.Time { return now }
	return s
}

func testBooking(status model.BookingStatus, scheduledAt time.Time) (*model.Booking, model.Actor, model.Actor) {
	b := &model.Booking{
		ID:                uuid.New(),
		ClientID:          uuid.New(),
		ProviderID:        uuid.New(),
		ProviderServiceID: uuid.New(),
		Status:            status,
		ScheduledAt:       scheduledAt,
		DurationMinutes:   60,
		Currency:          "USD",
	}
	client := model.Actor{ID: b.ClientID, Role: model.RoleClient}
	provider := model.Actor{ID: b.ProviderID, Role: model.RoleProvider}
	return b, client, provider
}

func TestCreateBooking(t *testing.T) {
	now := time.Now()
	provider := &model.User{ID: uuid.New(), Name: "Pat", Role: model.RoleProvider, Currency: "EUR"}
	repo := newFakeBookingRepo()
	svc := testService(repo, newFakeUserRepo(provider), now)
	client := model.Actor{ID: uuid.New(), Role: model.RoleClient}

	p := 40.0
	view, err := svc.Create(context.Background(), client, &model.CreateBookingRequest{
		ProviderID:        provider.ID,
		ProviderServiceID: uuid.New(),
		ScheduledAt:       now.Add(48 * time.Hour),
		DurationMinutes:   60,
		Price:             &p,
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, view.Status)
	assert.Equal(t, client.ID, view.ClientID)
	assert.Equal(t, "EUR", view.Currency, "currency follows the provider")
	assert.True(t, view.CanUpdate)
	assert.True(t, view.CanCancel)
	assert.Len(t, repo.bookings, 1)
}

func TestCreateBookingRejectsProviderActor(t *testing.T) {
	now := time.Now()
	svc := testService(newFakeBookingRepo(), newFakeUserRepo(), now)

	_, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RoleProvider},
		&model.CreateBookingRequest{
			ProviderID:        uuid.New(),
			ProviderServiceID: uuid.New(),
			ScheduledAt:       now.Add(time.Hour),
			DurationMinutes:   60,
		})
	assert.True(t, apperrors.Is(err, apperrors.KindNotOwner))
}

func TestCreateBookingRejectsPastSchedule(t *testing.T) {
	now := time.Now()
	provider := &model.User{ID: uuid.New(), Role: model.RoleProvider, Currency: "USD"}
	svc := testService(newFakeBookingRepo(), newFakeUserRepo(provider), now)

	_, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RoleClient},
		&model.CreateBookingRequest{
			ProviderID:        provider.ID,
			ProviderServiceID: uuid.New(),
			ScheduledAt:       now.Add(-time.Hour),
			DurationMinutes:   60,
		})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTransitionHappyPath(t *testing.T) {
	now := time.Now()
	b, _, provider := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)

	view, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusConfirmed, provider)
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, view.Status)
	assert.True(t, view.CanUpdate)
	assert.True(t, view.CanCancel)
	assert.Equal(t, model.BookingStatusConfirmed, repo.bookings[b.ID].Status)
}

func TestTransitionRejectsStranger(t *testing.T) {
	now := time.Now()
	b, _, _ := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleProvider}

	_, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusConfirmed, stranger)
	assert.True(t, apperrors.Is(err, apperrors.KindNotOwner))
	assert.Zero(t, repo.casCalls)
}

func TestTransitionTerminalState(t *testing.T) {
	now := time.Now()
	for _, status := range []model.BookingStatus{
		model.BookingStatusCompleted, model.BookingStatusCancelled, model.BookingStatusRejected,
	} {
		b, client, _ := testBooking(status, now.Add(-time.Hour))
		repo := newFakeBookingRepo(b)

		_, err := testService(repo, newFakeUserRepo(), now).Transition(
			context.Background(), b.ID, model.BookingStatusCancelled, client)
		assert.True(t, apperrors.Is(err, apperrors.KindTerminalState), "status %s", status)
	}
}

func TestTransitionIllegalEdge(t *testing.T) {
	now := time.Now()
	b, client, _ := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)

	// Confirming is the provider's move, not the client's.
	_, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusConfirmed, client)
	assert.True(t, apperrors.Is(err, apperrors.KindIllegalTransition))
}

func TestTransitionTooEarly(t *testing.T) {
	now := time.Now()
	b, _, provider := testBooking(model.BookingStatusConfirmed, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)

	_, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusInProgress, provider)
	assert.True(t, apperrors.Is(err, apperrors.KindTooEarly))
	assert.Equal(t, model.BookingStatusConfirmed, repo.bookings[b.ID].Status)
}

func TestTransitionStartAtScheduledTime(t *testing.T) {
	now := time.Now()
	b, _, provider := testBooking(model.BookingStatusConfirmed, now)
	repo := newFakeBookingRepo(b)

	view, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusInProgress, provider)
	require.NoError(t, err, "starting exactly at the scheduled time is allowed")
	assert.Equal(t, model.BookingStatusInProgress, view.Status)
}

func TestTransitionConcurrentLoserGetsConflict(t *testing.T) {
	now := time.Now()
	b, _, provider := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)
	repo.casResult = false

	_, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatusConfirmed, provider)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestTransitionUnknownStatus(t *testing.T) {
	now := time.Now()
	b, _, provider := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)

	_, err := testService(repo, newFakeUserRepo(), now).Transition(
		context.Background(), b.ID, model.BookingStatus("archived"), provider)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestGetDerivesActionFlagsPerRole(t *testing.T) {
	now := time.Now()
	b, client, provider := testBooking(model.BookingStatusPending, now.Add(time.Hour))
	repo := newFakeBookingRepo(b)
	s := testService(repo, newFakeUserRepo(), now)

	clientView, err := s.Get(context.Background(), b.ID, client)
	require.NoError(t, err)
	assert.True(t, clientView.CanUpdate)
	assert.True(t, clientView.CanCancel)

	providerView, err := s.Get(context.Background(), b.ID, provider)
	require.NoError(t, err)
	assert.True(t, providerView.CanUpdate)
	assert.False(t, providerView.CanCancel, "provider rejects, not cancels, a pending booking")
}

func TestGetProviderDashboard(t *testing.T) {
	now := time.Now()
	providerID := uuid.New()
	provider := &model.User{ID: providerID, Name: "Pat", Role: model.RoleProvider, Currency: "EUR"}

	p := 80.0
	b := &model.Booking{
		ID:          uuid.New(),
		ClientID:    uuid.New(),
		ProviderID:  providerID,
		Status:      model.BookingStatusCompleted,
		ScheduledAt: now.Add(-48 * time.Hour),
		Price:       &p,
		Currency:    "EUR",
	}
	repo := newFakeBookingRepo(b)

	d, err := testService(repo, newFakeUserRepo(provider), now).GetProviderDashboard(context.Background(), providerID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", d.Stats.Currency)
	assert.Equal(t, 80.0, d.Stats.Revenue)
}
