package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pmts-access/app/domain"
	"pmts-access/app/port"
	apperrors "pmts-access/app/utils/errors"
)

const defaultFetchTimeout = 10 * time.Second

// RoleResolver maps an authenticated subject to exactly one role, with
// a time-bounded cache. A stale entry is served synchronously while a
// single background re-fetch runs (stale-while-revalidate); a lookup
// failure falls back to the prior cached value or unresolved, never to
// a privileged default.
type RoleResolver struct {
	store        port.RoleStore
	logger       *slog.Logger
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu        sync.Mutex
	entries   map[uuid.UUID]domain.RoleCacheEntry
	epochs    map[uuid.UUID]uint64
	inflight  map[uuid.UUID]chan struct{}
	observers map[int]func(uuid.UUID, domain.Role)
	nextObs   int
}

// NewRoleResolver creates a new RoleResolver instance
func NewRoleResolver(store port.RoleStore, ttl time.Duration, logger *slog.Logger) *RoleResolver {
	return &RoleResolver{
		store:        store,
		logger:       logger.With("component", "role_resolver"),
		ttl:          ttl,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
		entries:      make(map[uuid.UUID]domain.RoleCacheEntry),
		epochs:       make(map[uuid.UUID]uint64),
		inflight:     make(map[uuid.UUID]chan struct{}),
		observers:    make(map[int]func(uuid.UUID, domain.Role)),
	}
}

// SetFetchTimeout overrides the per-lookup deadline applied to
// background fetches
func (r *RoleResolver) SetFetchTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.fetchTimeout = d
	}
}

// Resolve returns the subject's role from cache, synchronously. A
// missing entry comes back as unresolved with a background fetch
// scheduled; a stale entry is returned as-is while exactly one re-fetch
// runs. An anonymous subject is never charged a lookup.
func (r *RoleResolver) Resolve(subjectID uuid.UUID) domain.Role {
	if subjectID == uuid.Nil {
		return domain.RoleUnresolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, cached := r.entries[subjectID]
	if cached && !entry.Stale(r.ttl, r.now()) {
		return entry.Role
	}

	r.fetchLocked(subjectID)

	if cached {
		// Stale-while-revalidate: serve the old value, don't block
		return entry.Role
	}
	return domain.RoleUnresolved
}

// Loading reports whether a fetch is in flight with no cached value to
// serve in the meantime
func (r *RoleResolver) Loading(subjectID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, busy := r.inflight[subjectID]
	_, cached := r.entries[subjectID]
	return busy && !cached
}

// Wait resolves like Resolve but blocks while the first fetch for the
// subject is in flight. Cancellation via ctx returns unresolved and the
// ctx error; a completed-but-failed lookup returns unresolved with nil
// error, which callers must treat as least-privileged.
func (r *RoleResolver) Wait(ctx context.Context, subjectID uuid.UUID) (domain.Role, error) {
	if subjectID == uuid.Nil {
		return domain.RoleUnresolved, nil
	}

	r.mu.Lock()
	entry, cached := r.entries[subjectID]
	if cached && !entry.Stale(r.ttl, r.now()) {
		r.mu.Unlock()
		return entry.Role, nil
	}

	r.fetchLocked(subjectID)

	if cached {
		r.mu.Unlock()
		return entry.Role, nil
	}

	done := r.inflight[subjectID]
	r.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return domain.RoleUnresolved, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[subjectID]; ok {
		return entry.Role, nil
	}
	// Lookup failed with no prior cache entry: fail closed
	return domain.RoleUnresolved, nil
}

// Invalidate drops the subject's cache entry. A fetch already in flight
// for the subject is ignored when it completes.
func (r *RoleResolver) Invalidate(subjectID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, subjectID)
	r.epochs[subjectID]++
}

// Subscribe registers an observer for role changes; returns a cancel func
func (r *RoleResolver) Subscribe(fn func(subjectID uuid.UUID, role domain.Role)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextObs
	r.nextObs++
	r.observers[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.observers, id)
	}
}

// fetchLocked schedules a background fetch unless one is already in
// flight for the subject
func (r *RoleResolver) fetchLocked(subjectID uuid.UUID) {
	if _, busy := r.inflight[subjectID]; busy {
		return
	}

	done := make(chan struct{})
	r.inflight[subjectID] = done
	epoch := r.epochs[subjectID]

	go r.fetch(subjectID, epoch, done)
}

func (r *RoleResolver) fetch(subjectID uuid.UUID, epoch uint64, done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.fetchTimeout)
	defer cancel()

	roles, err := r.store.FetchRoles(ctx, subjectID)

	r.mu.Lock()
	delete(r.inflight, subjectID)

	if err != nil {
		// Keep whatever was cached before; never escalate on error
		r.logger.Warn("role lookup failed, serving cached-or-unresolved",
			"subject_id", subjectID,
			"error", apperrors.NewRoleLookupFailure(err))
		close(done)
		r.mu.Unlock()
		return
	}

	if r.epochs[subjectID] != epoch {
		// Subject was invalidated while the fetch was in flight;
		// the result belongs to a dead identity
		r.logger.Debug("discarding role fetch for invalidated subject", "subject_id", subjectID)
		close(done)
		r.mu.Unlock()
		return
	}

	role := domain.RoleNone
	if len(roles) > 0 {
		role = roles[0]
		if len(roles) > 1 {
			// Should not happen under correct data. First row in
			// provider order wins; picking the highest privilege here
			// would change security semantics.
			r.logger.Warn("multiple role rows for subject, using first in provider order",
				"subject_id", subjectID,
				"row_count", len(roles),
				"selected", role)
		}
	}

	r.entries[subjectID] = domain.RoleCacheEntry{
		SubjectID: subjectID,
		Role:      role,
		FetchedAt: r.now(),
	}

	observers := make([]func(uuid.UUID, domain.Role), 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	close(done)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(subjectID, role)
	}
}
