package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmts-access/app/domain"
	"pmts-access/app/utils/logger"
)

// stubClient is a hand-rolled IdentityClient double; function fields
// keep each test's behavior next to its assertions
type stubClient struct {
	login         func(ctx context.Context, email, password string) (*domain.Identity, error)
	register      func(ctx context.Context, email, password string) (*domain.Identity, error)
	whoAmI        func(ctx context.Context) (*domain.Identity, error)
	logout        func(ctx context.Context) error
	startRecovery func(ctx context.Context, email string) error
	updatePass    func(ctx context.Context, newPassword string) error
}

func (s *stubClient) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.login(ctx, email, password)
}

func (s *stubClient) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.register(ctx, email, password)
}

func (s *stubClient) WhoAmI(ctx context.Context) (*domain.Identity, error) {
	return s.whoAmI(ctx)
}

func (s *stubClient) Logout(ctx context.Context) error {
	return s.logout(ctx)
}

func (s *stubClient) StartRecovery(ctx context.Context, email string) error {
	return s.startRecovery(ctx, email)
}

func (s *stubClient) UpdatePassword(ctx context.Context, newPassword string) error {
	return s.updatePass(ctx, newPassword)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *eventRecorder) record(ev domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func newTestGateway(t *testing.T, client *stubClient) (*ProviderGateway, *eventRecorder) {
	t.Helper()

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	gw := NewProviderGateway(client, testLogger)
	rec := &eventRecorder{}
	gw.Subscribe(rec.record)
	return gw, rec
}

func TestProviderGateway_SignInEmitsSignedIn(t *testing.T) {
	identity := &domain.Identity{SubjectID: uuid.New(), Email: "jane@county.go.ke"}
	client := &stubClient{
		login: func(context.Context, string, string) (*domain.Identity, error) {
			return identity, nil
		},
	}
	gw, rec := newTestGateway(t, client)

	got, err := gw.SignIn(context.Background(), domain.Credentials{Email: identity.Email, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuthEventSignedIn, events[0].Kind)
	assert.Equal(t, identity.SubjectID, events[0].Identity.SubjectID)
	assert.Equal(t, uint64(1), events[0].Seq)
}

func TestProviderGateway_SignInFailureEmitsNothing(t *testing.T) {
	client := &stubClient{
		login: func(context.Context, string, string) (*domain.Identity, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	gw, rec := newTestGateway(t, client)

	_, err := gw.SignIn(context.Background(), domain.Credentials{Email: "a@b.ke", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, rec.all())
}

func TestProviderGateway_SlowSignInIsSuperseded(t *testing.T) {
	slow := &domain.Identity{SubjectID: uuid.New(), Email: "slow@county.go.ke"}
	fast := &domain.Identity{SubjectID: uuid.New(), Email: "fast@county.go.ke"}

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls int32

	client := &stubClient{
		login: func(_ context.Context, email, _ string) (*domain.Identity, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(firstStarted)
				<-releaseFirst
				return slow, nil
			}
			return fast, nil
		},
	}
	gw, rec := newTestGateway(t, client)

	firstResult := make(chan error, 1)
	go func() {
		_, err := gw.SignIn(context.Background(), domain.Credentials{Email: slow.Email, Password: "pw"})
		firstResult <- err
	}()

	<-firstStarted

	// A second sign-in issued while the first is in flight wins
	got, err := gw.SignIn(context.Background(), domain.Credentials{Email: fast.Email, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, fast.SubjectID, got.SubjectID)

	close(releaseFirst)

	select {
	case err := <-firstResult:
		assert.ErrorIs(t, err, domain.ErrSignInSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first sign-in never completed")
	}

	// Both events were emitted; the winner carries the higher sequence
	// number so a consumer applying by sequence keeps the fast identity.
	events := rec.all()
	require.Len(t, events, 2)
	var slowSeq, fastSeq uint64
	for _, ev := range events {
		switch ev.Identity.SubjectID {
		case slow.SubjectID:
			slowSeq = ev.Seq
		case fast.SubjectID:
			fastSeq = ev.Seq
		}
	}
	assert.Greater(t, fastSeq, slowSeq)
}

func TestProviderGateway_SignOutEmitsEvenOnProviderFailure(t *testing.T) {
	providerErr := errors.New("revocation endpoint down")
	client := &stubClient{
		logout: func(context.Context) error { return providerErr },
	}
	gw, rec := newTestGateway(t, client)

	err := gw.SignOut(context.Background())
	assert.ErrorIs(t, err, providerErr)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuthEventSignedOut, events[0].Kind)
}

func TestProviderGateway_RecoveryDoesNotSupersedeSignIn(t *testing.T) {
	identity := &domain.Identity{SubjectID: uuid.New(), Email: "jane@county.go.ke"}

	signInStarted := make(chan struct{})
	releaseSignIn := make(chan struct{})

	client := &stubClient{
		login: func(context.Context, string, string) (*domain.Identity, error) {
			close(signInStarted)
			<-releaseSignIn
			return identity, nil
		},
		startRecovery: func(context.Context, string) error { return nil },
	}
	gw, rec := newTestGateway(t, client)

	signInResult := make(chan error, 1)
	go func() {
		_, err := gw.SignIn(context.Background(), domain.Credentials{Email: identity.Email, Password: "pw"})
		signInResult <- err
	}()

	<-signInStarted

	// Recovery advances the event sequence but is not an auth attempt
	require.NoError(t, gw.ResetPassword(context.Background(), "jane@county.go.ke"))

	close(releaseSignIn)
	require.NoError(t, <-signInResult)

	kinds := make([]domain.AuthEventKind, 0, 2)
	for _, ev := range rec.all() {
		kinds = append(kinds, ev.Kind)
	}
	assert.ElementsMatch(t, []domain.AuthEventKind{domain.AuthEventPasswordRecovery, domain.AuthEventSignedIn}, kinds)
}

func TestProviderGateway_UnsubscribeStopsDelivery(t *testing.T) {
	client := &stubClient{
		logout: func(context.Context) error { return nil },
	}

	testLogger, err := logger.New("debug")
	require.NoError(t, err)
	gw := NewProviderGateway(client, testLogger)

	rec := &eventRecorder{}
	unsubscribe := gw.Subscribe(rec.record)
	unsubscribe()

	require.NoError(t, gw.SignOut(context.Background()))
	assert.Empty(t, rec.all())
}
