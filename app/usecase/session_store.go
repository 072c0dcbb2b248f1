package usecase

import (
	"context"
	"log/slog"
	"sync"

	"pmts-access/app/domain"
	"pmts-access/app/port"
	apperrors "pmts-access/app/utils/errors"
)

// SessionStore is the single source of truth for "who, if anyone, is
// currently authenticated". It subscribes to the identity provider's
// event stream, restores any persisted session at startup, and
// invalidates the role resolver's cache entry for the old subject in
// the same synchronous step as every identity transition — no reader
// can observe a new identity paired with the old subject's cached role.
type SessionStore struct {
	provider port.IdentityProvider
	profiles port.ProfileStore
	roles    port.RoleResolver
	logger   *slog.Logger

	mu          sync.Mutex
	identity    *domain.Identity
	loading     bool
	readyCh     chan struct{}
	appliedSeq  uint64
	unsubscribe func()
	observers   map[int]func(domain.SessionSnapshot)
	nextObs     int
}

// NewSessionStore creates a session store in its loading state.
// Call Start to subscribe to the provider and restore any persisted
// session.
func NewSessionStore(
	provider port.IdentityProvider,
	profiles port.ProfileStore,
	roles port.RoleResolver,
	logger *slog.Logger,
) *SessionStore {
	return &SessionStore{
		provider:  provider,
		profiles:  profiles,
		roles:     roles,
		logger:    logger.With("component", "session_store"),
		loading:   true,
		readyCh:   make(chan struct{}),
		observers: make(map[int]func(domain.SessionSnapshot)),
	}
}

// Start subscribes to the provider's event stream synchronously, then
// asks for an already-persisted session in the background. Whichever
// resolves first closes the loading window.
func (s *SessionStore) Start(ctx context.Context) {
	s.mu.Lock()
	s.unsubscribe = s.provider.Subscribe(s.handleEvent)
	s.mu.Unlock()

	go s.restore(ctx)
}

// Close releases the provider subscription
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *SessionStore) restore(ctx context.Context) {
	identity, err := s.provider.CurrentIdentity(ctx)

	s.mu.Lock()
	if !s.loading {
		// The first provider event won the race; its state stands.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.logger.Warn("persisted session restore failed", "error", err)
		s.markReadyLocked()
		s.mu.Unlock()
		return
	}

	s.setIdentityLocked(identity)
	s.markReadyLocked()
	snap, observers := s.snapshotAndObserversLocked()
	s.mu.Unlock()

	if identity != nil {
		s.logger.Info("persisted session restored", "subject_id", identity.SubjectID)
	}
	notifySession(observers, snap)
}

func (s *SessionStore) handleEvent(ev domain.AuthEvent) {
	s.mu.Lock()

	switch ev.Kind {
	case domain.AuthEventSignedIn, domain.AuthEventTokenRefreshed:
		if ev.Seq <= s.appliedSeq {
			s.logger.Debug("discarding stale auth event", "kind", ev.Kind, "seq", ev.Seq, "applied_seq", s.appliedSeq)
			s.markReadyLocked()
			s.mu.Unlock()
			return
		}
		s.appliedSeq = ev.Seq
		s.setIdentityLocked(ev.Identity)

	case domain.AuthEventSignedOut:
		// An explicit sign-out always clears, stale or not
		if ev.Seq > s.appliedSeq {
			s.appliedSeq = ev.Seq
		}
		s.setIdentityLocked(nil)

	case domain.AuthEventPasswordRecovery:
		// Surfaced for the recovery UI; identity is unchanged

	default:
		s.logger.Warn("unknown auth event kind", "kind", ev.Kind)
	}

	s.markReadyLocked()
	snap, observers := s.snapshotAndObserversLocked()
	s.mu.Unlock()

	notifySession(observers, snap)
}

// setIdentityLocked replaces the identity and invalidates the old
// subject's role cache entry before anyone can observe the transition
func (s *SessionStore) setIdentityLocked(identity *domain.Identity) {
	old := s.identity
	s.identity = identity

	if old != nil && (identity == nil || old.SubjectID != identity.SubjectID) {
		s.roles.Invalidate(old.SubjectID)
	}
}

func (s *SessionStore) markReadyLocked() {
	if s.loading {
		s.loading = false
		close(s.readyCh)
	}
}

// SignIn delegates to the identity provider. State is updated by the
// subscription callback; a failure returns without mutating anything.
func (s *SessionStore) SignIn(ctx context.Context, creds domain.Credentials) error {
	if _, err := s.provider.SignIn(ctx, creds); err != nil {
		return err
	}
	return nil
}

// SignUp creates a new identity plus its profile row. A profile write
// failure is surfaced but the identity remains valid; there is no
// rollback, and the role resolver treats the subject as having no role
// until a row appears.
func (s *SessionStore) SignUp(ctx context.Context, creds domain.Credentials, profile domain.Profile) error {
	identity, err := s.provider.SignUp(ctx, creds)
	if err != nil {
		return err
	}

	profile.SubjectID = identity.SubjectID
	if err := s.profiles.CreateProfile(ctx, &profile); err != nil {
		s.logger.Error("profile write failed after identity creation; identity kept",
			"subject_id", identity.SubjectID, "error", err)
		return apperrors.NewProfileWriteFailure(err)
	}

	return nil
}

// SignOut clears local identity state no matter what the provider's
// network call does: local state never stays signed-in after an
// explicit sign-out.
func (s *SessionStore) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)

	// The provider gateway emits SIGNED_OUT even on upstream failure,
	// but clear here too so the invariant holds for any provider.
	s.mu.Lock()
	if s.identity != nil {
		s.setIdentityLocked(nil)
	}
	s.markReadyLocked()
	snap, observers := s.snapshotAndObserversLocked()
	s.mu.Unlock()

	notifySession(observers, snap)
	return err
}

// Snapshot returns the current session state
func (s *SessionStore) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionSnapshot{Identity: s.identity, Loading: s.loading}
}

// WaitReady blocks until the startup loading window has closed or ctx
// is done
func (s *SessionStore) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a snapshot observer; returns a cancel func
func (s *SessionStore) Subscribe(fn func(domain.SessionSnapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *SessionStore) snapshotAndObserversLocked() (domain.SessionSnapshot, []func(domain.SessionSnapshot)) {
	snap := domain.SessionSnapshot{Identity: s.identity, Loading: s.loading}
	observers := make([]func(domain.SessionSnapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	return snap, observers
}

func notifySession(observers []func(domain.SessionSnapshot), snap domain.SessionSnapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
