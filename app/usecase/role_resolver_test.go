package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pmts-access/app/domain"
	mock_port "pmts-access/app/mocks"
	"pmts-access/app/utils/logger"
)

func newTestResolver(t *testing.T, store *mock_port.MockRoleStore, ttl time.Duration) *RoleResolver {
	t.Helper()

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	return NewRoleResolver(store, ttl, testLogger)
}

func TestRoleResolver_Wait(t *testing.T) {
	subjectID := uuid.New()

	tests := []struct {
		name       string
		setupMocks func(*mock_port.MockRoleStore)
		wantRole   domain.Role
	}{
		{
			name: "single role row",
			setupMocks: func(store *mock_port.MockRoleStore) {
				store.EXPECT().
					FetchRoles(gomock.Any(), subjectID).
					Return([]domain.Role{domain.RoleStaff}, nil)
			},
			wantRole: domain.RoleStaff,
		},
		{
			name: "no role row resolves to none",
			setupMocks: func(store *mock_port.MockRoleStore) {
				store.EXPECT().
					FetchRoles(gomock.Any(), subjectID).
					Return(nil, nil)
			},
			wantRole: domain.RoleNone,
		},
		{
			name: "multiple rows use first in provider order",
			setupMocks: func(store *mock_port.MockRoleStore) {
				store.EXPECT().
					FetchRoles(gomock.Any(), subjectID).
					Return([]domain.Role{domain.RoleStaff, domain.RoleAdmin}, nil)
			},
			wantRole: domain.RoleStaff,
		},
		{
			name: "lookup failure fails closed to unresolved",
			setupMocks: func(store *mock_port.MockRoleStore) {
				store.EXPECT().
					FetchRoles(gomock.Any(), subjectID).
					Return(nil, errors.New("connection refused"))
			},
			wantRole: domain.RoleUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock_port.NewMockRoleStore(ctrl)
			tt.setupMocks(store)

			resolver := newTestResolver(t, store, 5*time.Minute)

			role, err := resolver.Wait(context.Background(), subjectID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestRoleResolver_AnonymousSubjectNeverFetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	// No FetchRoles expectation: any call fails the test.

	resolver := newTestResolver(t, store, 5*time.Minute)

	assert.Equal(t, domain.RoleUnresolved, resolver.Resolve(uuid.Nil))
	assert.False(t, resolver.Loading(uuid.Nil))

	role, err := resolver.Wait(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUnresolved, role)
}

func TestRoleResolver_CachesWithinTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		Return([]domain.Role{domain.RoleExecutive}, nil).
		Times(1)

	resolver := newTestResolver(t, store, 5*time.Minute)

	role, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleExecutive, role)

	// Repeated resolution inside the TTL never touches the store again
	for i := 0; i < 5; i++ {
		assert.Equal(t, domain.RoleExecutive, resolver.Resolve(subjectID))
	}
}

func TestRoleResolver_StaleEntryServedWhileRevalidating(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	base := time.Now()
	release := make(chan struct{})

	gomock.InOrder(
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			Return([]domain.Role{domain.RoleStaff}, nil),
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			DoAndReturn(func(context.Context, uuid.UUID) ([]domain.Role, error) {
				<-release
				return []domain.Role{domain.RoleExecutive}, nil
			}),
	)

	resolver := newTestResolver(t, store, 5*time.Minute)
	resolver.now = func() time.Time { return base }

	role, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, role)

	resolver.mu.Lock()
	resolver.now = func() time.Time { return base.Add(6 * time.Minute) }
	resolver.mu.Unlock()

	// The stale value is served synchronously; the mock's Times(1) on
	// the second expectation proves only one refetch is in flight.
	assert.Equal(t, domain.RoleStaff, resolver.Resolve(subjectID))
	assert.Equal(t, domain.RoleStaff, resolver.Resolve(subjectID))

	close(release)

	require.Eventually(t, func() bool {
		return resolver.Resolve(subjectID) == domain.RoleExecutive
	}, time.Second, 10*time.Millisecond)
}

func TestRoleResolver_RefetchFailureKeepsPriorValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	base := time.Now()

	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		Return([]domain.Role{domain.RoleStaff}, nil).
		Times(1)
	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		Return(nil, errors.New("data service down")).
		AnyTimes()

	resolver := newTestResolver(t, store, 5*time.Minute)
	resolver.now = func() time.Time { return base }

	role, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, role)

	resolver.mu.Lock()
	resolver.now = func() time.Time { return base.Add(6 * time.Minute) }
	resolver.mu.Unlock()

	assert.Equal(t, domain.RoleStaff, resolver.Resolve(subjectID))

	require.Eventually(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		_, busy := resolver.inflight[subjectID]
		return !busy
	}, time.Second, 10*time.Millisecond)

	// Failed refetch never downgrades or drops the cached value
	assert.Equal(t, domain.RoleStaff, resolver.Resolve(subjectID))
}

func TestRoleResolver_LoadingOnlyWithoutCachedValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	release := make(chan struct{})
	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		DoAndReturn(func(context.Context, uuid.UUID) ([]domain.Role, error) {
			<-release
			return []domain.Role{domain.RoleStaff}, nil
		})

	resolver := newTestResolver(t, store, 5*time.Minute)

	assert.Equal(t, domain.RoleUnresolved, resolver.Resolve(subjectID))
	assert.True(t, resolver.Loading(subjectID))

	close(release)

	require.Eventually(t, func() bool {
		return !resolver.Loading(subjectID)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.RoleStaff, resolver.Resolve(subjectID))
}

func TestRoleResolver_InvalidateForcesRefetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	gomock.InOrder(
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			Return([]domain.Role{domain.RoleStaff}, nil),
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			Return([]domain.Role{domain.RoleExecutive}, nil),
	)

	resolver := newTestResolver(t, store, 5*time.Minute)

	role, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStaff, role)

	resolver.Invalidate(subjectID)

	role, err = resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleExecutive, role)
}

func TestRoleResolver_InvalidateDuringFetchDiscardsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	release := make(chan struct{})
	gomock.InOrder(
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			DoAndReturn(func(context.Context, uuid.UUID) ([]domain.Role, error) {
				<-release
				return []domain.Role{domain.RoleAdmin}, nil
			}),
		store.EXPECT().
			FetchRoles(gomock.Any(), subjectID).
			Return([]domain.Role{domain.RoleStaff}, nil),
	)

	resolver := newTestResolver(t, store, 5*time.Minute)

	assert.Equal(t, domain.RoleUnresolved, resolver.Resolve(subjectID))

	resolver.Invalidate(subjectID)
	close(release)

	require.Eventually(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		_, busy := resolver.inflight[subjectID]
		return !busy
	}, time.Second, 10*time.Millisecond)

	// The admin result arrived for a dead epoch and must not be cached
	resolver.mu.Lock()
	_, cached := resolver.entries[subjectID]
	resolver.mu.Unlock()
	assert.False(t, cached)

	role, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, role)
}

func TestRoleResolver_WaitHonorsCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	release := make(chan struct{})

	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		DoAndReturn(func(context.Context, uuid.UUID) ([]domain.Role, error) {
			<-release
			return []domain.Role{domain.RoleStaff}, nil
		})

	resolver := newTestResolver(t, store, 5*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	role, err := resolver.Wait(ctx, subjectID)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RoleUnresolved, role)

	// Let the background fetch finish before the controller verifies
	close(release)
	require.Eventually(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		_, busy := resolver.inflight[subjectID]
		return !busy
	}, time.Second, 10*time.Millisecond)
}

func TestRoleResolver_NotifiesObservers(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_port.NewMockRoleStore(ctrl)
	subjectID := uuid.New()

	store.EXPECT().
		FetchRoles(gomock.Any(), subjectID).
		Return([]domain.Role{domain.RoleExecutive}, nil)

	resolver := newTestResolver(t, store, 5*time.Minute)

	var mu sync.Mutex
	var gotSubject uuid.UUID
	var gotRole domain.Role

	unsubscribe := resolver.Subscribe(func(id uuid.UUID, role domain.Role) {
		mu.Lock()
		defer mu.Unlock()
		gotSubject = id
		gotRole = role
	})
	defer unsubscribe()

	_, err := resolver.Wait(context.Background(), subjectID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotSubject == subjectID && gotRole == domain.RoleExecutive
	}, time.Second, 10*time.Millisecond)
}
