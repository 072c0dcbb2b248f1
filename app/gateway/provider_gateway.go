package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pmts-access/app/domain"
)

// IdentityClient is what the provider gateway needs from the Kratos driver
type IdentityClient interface {
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Register(ctx context.Context, email, password string) (*domain.Identity, error)
	WhoAmI(ctx context.Context) (*domain.Identity, error)
	Logout(ctx context.Context) error
	StartRecovery(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
}

// ProviderGateway implements port.IdentityProvider over the Kratos
// driver. It owns the session-change event stream: every state-changing
// operation emits an event carrying a sequence number assigned in
// request-issue order, which lets the session store discard a slow
// response that completes after a newer one.
type ProviderGateway struct {
	client IdentityClient
	logger *slog.Logger

	mu       sync.Mutex
	seq      uint64
	lastAuth uint64
	subs     map[int]func(domain.AuthEvent)
	nextSub  int
}

// NewProviderGateway creates a new ProviderGateway instance
func NewProviderGateway(client IdentityClient, logger *slog.Logger) *ProviderGateway {
	return &ProviderGateway{
		client: client,
		logger: logger.With("component", "provider_gateway"),
		subs:   make(map[int]func(domain.AuthEvent)),
	}
}

// Subscribe registers an event observer and returns its cancel function
func (g *ProviderGateway) Subscribe(fn func(domain.AuthEvent)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

// CurrentIdentity returns the already-persisted session, if any.
// No event is emitted; the session store applies the restore directly.
func (g *ProviderGateway) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	return g.client.WhoAmI(ctx)
}

// SignIn authenticates and emits SIGNED_IN with the attempt's sequence
// number. When a newer sign-in was issued while this one was in flight,
// the caller gets ErrSignInSuperseded and the stale event is discarded
// downstream by its sequence number.
func (g *ProviderGateway) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	seq := g.issueAuthSeq()

	identity, err := g.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		g.logger.Warn("sign-in failed", "error", err)
		return nil, err
	}

	g.emit(domain.AuthEvent{Kind: domain.AuthEventSignedIn, Identity: identity, Seq: seq})

	if g.superseded(seq) {
		g.logger.Info("sign-in superseded by a newer request", "seq", seq)
		return nil, domain.ErrSignInSuperseded
	}

	g.logger.Info("sign-in completed", "subject_id", identity.SubjectID, "seq", seq)
	return identity, nil
}

// SignUp registers a new identity. Registration signs the subject in,
// so it emits SIGNED_IN like a sign-in does.
func (g *ProviderGateway) SignUp(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	seq := g.issueAuthSeq()

	identity, err := g.client.Register(ctx, creds.Email, creds.Password)
	if err != nil {
		g.logger.Warn("sign-up failed", "error", err)
		return nil, err
	}

	g.emit(domain.AuthEvent{Kind: domain.AuthEventSignedIn, Identity: identity, Seq: seq})

	g.logger.Info("sign-up completed", "subject_id", identity.SubjectID)
	return identity, nil
}

// SignOut revokes the provider session. SIGNED_OUT is emitted even when
// upstream revocation fails: an explicit sign-out always clears local
// state.
func (g *ProviderGateway) SignOut(ctx context.Context) error {
	err := g.client.Logout(ctx)

	g.emit(domain.AuthEvent{Kind: domain.AuthEventSignedOut, Seq: g.issueAuthSeq()})

	if err != nil {
		g.logger.Warn("provider sign-out failed, local session cleared anyway", "error", err)
		return err
	}

	g.logger.Info("sign-out completed")
	return nil
}

// ResetPassword starts the recovery flow and emits PASSWORD_RECOVERY
func (g *ProviderGateway) ResetPassword(ctx context.Context, email string) error {
	if err := g.client.StartRecovery(ctx, email); err != nil {
		if errors.Is(err, domain.ErrRecoveryLinkExpired) {
			return err
		}
		g.logger.Warn("recovery flow failed", "error", err)
		return err
	}

	g.emit(domain.AuthEvent{Kind: domain.AuthEventPasswordRecovery, Seq: g.issueSeq()})
	return nil
}

// UpdatePassword changes the current subject's password
func (g *ProviderGateway) UpdatePassword(ctx context.Context, newPassword string) error {
	return g.client.UpdatePassword(ctx, newPassword)
}

func (g *ProviderGateway) issueSeq() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.seq
}

// issueAuthSeq sequences identity-affecting operations (sign-in,
// sign-up, sign-out); recovery events share the counter but do not
// supersede an in-flight sign-in.
func (g *ProviderGateway) issueAuthSeq() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.lastAuth = g.seq
	return g.seq
}

func (g *ProviderGateway) superseded(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return seq != g.lastAuth
}

func (g *ProviderGateway) emit(ev domain.AuthEvent) {
	g.mu.Lock()
	observers := make([]func(domain.AuthEvent), 0, len(g.subs))
	for _, fn := range g.subs {
		observers = append(observers, fn)
	}
	g.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}
