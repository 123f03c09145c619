// Package session holds the single source of truth for "who is the caller,
// right now": the raw identity assertion observed from the provider and the
// application user record resolved from the backend.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// Phase is the session readiness tri-state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	Identity *ports.Identity
	User     *domain.User
	Phase    Phase

	// version orders snapshots so a slow delivery can never overwrite a
	// newer one at a listener.
	version uint64
}

// Authenticated is true iff both the identity assertion and the application
// user are present simultaneously. One without the other never counts.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil && s.User != nil
}

// Ready reports whether resolution has settled, successfully or not.
func (s Snapshot) Ready() bool {
	return s.Phase == PhaseReady
}

// Listener receives a snapshot after every state transition.
type Listener func(Snapshot)

// ProfileService resolves the application user record for a given identity
// assertion. Implementations call the backend with the identity's bearer
// token; the identity argument exists so a completion can be matched to the
// identity that requested it.
type ProfileService interface {
	Profile(ctx context.Context, id ports.Identity) (*domain.User, error)
}

// Store is the session state container. Views read it through Snapshot and
// never mutate it directly; all writes go through the operations below.
type Store struct {
	mu           sync.Mutex
	identity     *ports.Identity
	user         *domain.User
	phase        Phase
	version      uint64
	listeners    map[int]Listener
	nextListener int

	notifyMu  sync.Mutex
	delivered uint64

	profiles ProfileService
	log      zerolog.Logger
}

// NewStore returns a Store in the uninitialized phase.
func NewStore(profiles ProfileService, log zerolog.Logger) *Store {
	return &Store{
		phase:     PhaseUninitialized,
		listeners: make(map[int]Listener),
		profiles:  profiles,
		log:       log.With().Str("component", "session").Logger(),
	}
}

// Subscribe registers a listener and returns its unsubscribe handle.
// Listeners are invoked outside the store lock; invocation order across
// listeners is unspecified.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ObserveIdentity applies an identity-provider event. A present identity
// enters the loading phase and resolves the profile asynchronously; an
// absent identity clears the user and is ready immediately, so logout never
// leaves the session loading. Events must be applied in emission order:
// the last writer on identity wins.
func (s *Store) ObserveIdentity(ctx context.Context, id *ports.Identity) {
	s.mu.Lock()
	if id == nil {
		s.identity = nil
		s.user = nil
		s.phase = PhaseReady
		snap := s.transitionLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	s.identity = id
	// A profile resolved for a previous identity must not leak into this one.
	s.user = nil
	s.phase = PhaseLoading
	snap := s.transitionLocked()
	s.mu.Unlock()
	s.notify(snap)

	go s.resolveProfile(ctx, *id)
}

// resolveProfile fetches the application user for the identity that was
// current when the fetch started. Completions for identities that are no
// longer current are discarded rather than applied.
func (s *Store) resolveProfile(ctx context.Context, id ports.Identity) {
	user, err := s.profiles.Profile(ctx, id)

	s.mu.Lock()
	if s.identity == nil || s.identity.UID != id.UID {
		s.mu.Unlock()
		s.log.Debug().Str("uid", id.UID).Msg("discarding stale profile resolution")
		return
	}

	if err != nil {
		// The session still settles: ready, unauthenticated. The UI decides
		// whether to show an error state or force re-login.
		s.user = nil
	} else {
		s.user = user
	}
	s.phase = PhaseReady
	snap := s.transitionLocked()
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("uid", id.UID).Msg("profile resolution failed")
	}
	s.notify(snap)
}

// SetUser sets the resolved profile explicitly. Once identity and user are
// both present the session is ready and authenticated.
func (s *Store) SetUser(user *domain.User) {
	s.mu.Lock()
	s.user = user
	if s.identity != nil && s.user != nil {
		s.phase = PhaseReady
	}
	snap := s.transitionLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// MarkLoading forces the loading phase. Idempotent.
func (s *Store) MarkLoading() {
	s.setPhase(PhaseLoading)
}

// MarkReady forces the ready phase. Idempotent.
func (s *Store) MarkReady() {
	s.setPhase(PhaseReady)
}

func (s *Store) setPhase(p Phase) {
	s.mu.Lock()
	if s.phase == p {
		s.mu.Unlock()
		return
	}
	s.phase = p
	snap := s.transitionLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SignOut synchronously clears identity and user and marks the session
// ready. The provider sign-out call is the caller's concern and is fail-open:
// local state clears regardless of its outcome, so the user can always leave
// an authenticated view.
func (s *Store) SignOut() {
	s.mu.Lock()
	s.identity = nil
	s.user = nil
	s.phase = PhaseReady
	snap := s.transitionLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Identity: s.identity, User: s.user, Phase: s.phase, version: s.version}
}

// transitionLocked stamps a state change with the next version and returns
// the snapshot to notify with. Call under the lock for every mutation.
func (s *Store) transitionLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

// notify delivers snap to the listeners. Deliveries are serialized and a
// snapshot superseded by an already-delivered newer one is dropped, so a
// profile resolution racing a sign-out cannot resurrect the old session at
// a listener.
func (s *Store) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if snap.version <= s.delivered {
		return
	}
	s.delivered = snap.version

	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
