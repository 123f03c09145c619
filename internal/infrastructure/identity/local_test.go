package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

type memoryStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Credential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byEmail: make(map[string]*domain.Credential)}
}

func (s *memoryStore) Create(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[cred.Email]; ok {
		return domain.ErrUserExists
	}
	clone := *cred
	s.byEmail[cred.Email] = &clone
	return nil
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *cred
	return &clone, nil
}

func newTestProvider(t *testing.T) *LocalProvider {
	t.Helper()
	return NewLocalProvider(newMemoryStore(), "test-secret", time.Hour)
}

func TestLocalProvider_RegisterAndSignIn(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	cred, err := p.Register(ctx, "admin@implantei.com.br", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if cred.UID == "" {
		t.Fatalf("expected a generated uid")
	}
	if cred.PasswordHash == "s3cret" {
		t.Fatalf("password stored in plain text")
	}

	id, err := p.SignIn(ctx, "admin@implantei.com.br", "s3cret")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if id.UID != cred.UID || id.Email != "admin@implantei.com.br" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestLocalProvider_SignInWrongPassword(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	if _, err := p.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := p.SignIn(ctx, "admin@implantei.com.br", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLocalProvider_SignInUnknownEmailHidesExistence(t *testing.T) {
	p := newTestProvider(t)

	// Unknown email and wrong password must be indistinguishable.
	if _, err := p.SignIn(context.Background(), "ghost@implantei.com.br", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLocalProvider_RegisterDuplicate(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	if _, err := p.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := p.Register(ctx, "admin@implantei.com.br", "other"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLocalProvider_SubscribersObserveSignInAndOut(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	if _, err := p.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	var events []*ports.Identity
	unsubscribe := p.Subscribe(func(id *ports.Identity) {
		events = append(events, id)
	})
	defer unsubscribe()

	if _, err := p.SignIn(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0] == nil || events[0].Email != "admin@implantei.com.br" {
		t.Fatalf("first event must carry the signed-in identity: %+v", events[0])
	}
	if events[1] != nil {
		t.Fatalf("sign-out must emit nil, got %+v", events[1])
	}
}

func TestLocalProvider_FailedSignInDoesNotNotify(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	if _, err := p.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	notified := 0
	unsubscribe := p.Subscribe(func(*ports.Identity) { notified++ })
	defer unsubscribe()

	if _, err := p.SignIn(ctx, "admin@implantei.com.br", "wrong"); err == nil {
		t.Fatalf("expected sign-in failure")
	}
	if notified != 0 {
		t.Fatalf("failed sign-in must not notify, got %d events", notified)
	}
}

func TestLocalProvider_TokenRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	if _, err := p.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	id, err := p.SignIn(ctx, "admin@implantei.com.br", "s3cret")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	token, err := p.IDToken(ctx)
	if err != nil {
		t.Fatalf("token fetch failed: %v", err)
	}
	verified, err := p.VerifyIDToken(ctx, token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.UID != id.UID || verified.Email != id.Email {
		t.Fatalf("verified identity mismatch: %+v vs %+v", verified, id)
	}
}

func TestLocalProvider_VerifyRejectsForgedToken(t *testing.T) {
	p := newTestProvider(t)
	other := NewLocalProvider(newMemoryStore(), "other-secret", time.Hour)
	ctx := context.Background()

	if _, err := other.Register(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := other.SignIn(ctx, "admin@implantei.com.br", "s3cret"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	forged, err := other.IDToken(ctx)
	if err != nil {
		t.Fatalf("token fetch failed: %v", err)
	}

	if _, err := p.VerifyIDToken(ctx, forged); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for foreign signature, got %v", err)
	}
	if _, err := p.VerifyIDToken(ctx, "not-a-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for garbage, got %v", err)
	}
}

func TestLocalProvider_IDTokenRequiresSession(t *testing.T) {
	p := newTestProvider(t)
	if _, err := p.IDToken(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
