package notification

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireside/marketplace-api/internal/model"
	apperrors "github.com/hireside/marketplace-api/pkg/errors"
)

type fakeNotificationRepo struct {
	notifications map[uuid.UUID]*model.Notification
	unreadCalls   int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (r *fakeNotificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	for _, existing := range r.notifications {
		if existing.EventID == n.EventID && existing.UserID == n.UserID {
			return false, nil
		}
	}
	copy := *n
	r.notifications[n.ID] = &copy
	return true, nil
}

func (r *fakeNotificationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, apperrors.NotFound("notification")
	}
	copy := *n
	return &copy, nil
}

func (r *fakeNotificationRepo) List(ctx context.Context, userID uuid.UUID, page *model.Pagination) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	offset := page.Offset()
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + page.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID || n.ReadAt != nil {
		return false, nil
	}
	now := time.Now()
	n.ReadAt = &now
	return true, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error) {
	var marked int64
	for _, n := range r.notifications {
		if n.UserID == userID && n.ReadAt == nil && !n.CreatedAt.After(cutoff) {
			now := time.Now()
			n.ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

func (r *fakeNotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	r.unreadCalls++
	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func seedNotification(t *testing.T, repo *fakeNotificationRepo, userID uuid.UUID, createdAt time.Time) *model.Notification {
	t.Helper()
	n, err := model.NewNotification(userID, uuid.New(), model.NotificationTypeNewOffer, &model.OfferPayload{
		OffererName: "Pat", Price: 50, ServiceRequestTitle: "Fix sink",
	})
	require.NoError(t, err)
	n.CreatedAt = createdAt

	written, err := repo.CreateIfAbsent(context.Background(), n)
	require.NoError(t, err)
	require.True(t, written)
	return n
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	actor := model.Actor{ID: userID, Role: model.RoleClient}

	n := seedNotification(t, repo, userID, time.Now())

	require.NoError(t, svc.MarkRead(context.Background(), n.ID, actor))
	require.NoError(t, svc.MarkRead(context.Background(), n.ID, actor), "second mark is a no-op success")
}

func TestMarkReadForeignNotification(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)

	n := seedNotification(t, repo, uuid.New(), time.Now())

	stranger := model.Actor{ID: uuid.New(), Role: model.RoleClient}
	err := svc.MarkRead(context.Background(), n.ID, stranger)
	assert.True(t, apperrors.Is(err, apperrors.KindNotOwner))
}

func TestMarkReadMissingNotification(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), model.Actor{ID: uuid.New()})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMarkAllReadUsesCutoff(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	actor := model.Actor{ID: userID, Role: model.RoleClient}

	frozen := time.Now()
	svc.now = func() time.Time { return frozen }

	old := seedNotification(t, repo, userID, frozen.Add(-time.Hour))
	during := seedNotification(t, repo, userID, frozen.Add(time.Second))

	marked, err := svc.MarkAllRead(context.Background(), actor)
	require.NoError(t, err)

	assert.Equal(t, int64(1), marked)
	assert.NotNil(t, repo.notifications[old.ID].ReadAt)
	assert.Nil(t, repo.notifications[during.ID].ReadAt, "notification arriving mid-sweep stays unread")
}

func TestListNewestFirst(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	actor := model.Actor{ID: userID, Role: model.RoleClient}

	base := time.Now()
	older := seedNotification(t, repo, userID, base.Add(-2*time.Hour))
	newer := seedNotification(t, repo, userID, base.Add(-time.Hour))
	seedNotification(t, repo, uuid.New(), base)

	list, err := svc.List(context.Background(), actor, &model.Pagination{})
	require.NoError(t, err)

	require.Len(t, list, 2, "only the actor's notifications")
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestUnreadCountRecomputedOnDemand(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	actor := model.Actor{ID: userID, Role: model.RoleClient}

	seedNotification(t, repo, userID, time.Now())

	count, err := svc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = svc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.unreadCalls, "every read hits storage")
}

func TestUnreadCountSeesWritesFromOtherProcess(t *testing.T) {
	// The API and worker binaries each build their own Service over the
	// shared store; a write through one must be visible to a read
	// through the other immediately.
	repo := newFakeNotificationRepo()
	apiSvc := NewService(repo)
	workerSvc := NewService(repo)
	userID := uuid.New()
	actor := model.Actor{ID: userID, Role: model.RoleClient}

	count, err := apiSvc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	fresh, err := model.NewNotification(userID, uuid.New(), model.NotificationTypeNewOffer, &model.OfferPayload{
		OffererName: "Pat", Price: 10, ServiceRequestTitle: "Paint fence",
	})
	require.NoError(t, err)
	written, err := workerSvc.Create(context.Background(), fresh)
	require.NoError(t, err)
	require.True(t, written)

	count, err = apiSvc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "dispatcher write visible to the API reader")

	require.NoError(t, apiSvc.MarkRead(context.Background(), fresh.ID, actor))
	count, err = workerSvc.UnreadCount(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateIdempotentPerEventAndUser(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	eventID := uuid.New()

	build := func() *model.Notification {
		n, err := model.NewNotification(userID, eventID, model.NotificationTypeNewOffer, &model.OfferPayload{
			OffererName: "Pat", Price: 10, ServiceRequestTitle: "Paint fence",
		})
		require.NoError(t, err)
		return n
	}

	written, err := svc.Create(context.Background(), build())
	require.NoError(t, err)
	assert.True(t, written)

	written, err = svc.Create(context.Background(), build())
	require.NoError(t, err)
	assert.False(t, written, "same (event, user) pair writes nothing")
	assert.Len(t, repo.notifications, 1)
}
