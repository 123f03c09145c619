// Package identity implements a credential-backed identity provider: emails
// and bcrypt password hashes stored locally, HS256 bearer tokens issued on
// sign-in. It stands in for a hosted identity service behind the same port.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// CredentialStore persists local identities.
type CredentialStore interface {
	Create(ctx context.Context, cred *domain.Credential) error
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

// LocalProvider implements ports.IdentityProvider and ports.TokenVerifier
// against a CredentialStore.
type LocalProvider struct {
	store     CredentialStore
	jwtSecret string
	tokenTTL  time.Duration

	mu           sync.Mutex
	current      *ports.Identity
	currentToken string
	listeners    map[int]func(*ports.Identity)
	nextListener int
}

func NewLocalProvider(store CredentialStore, jwtSecret string, tokenTTL time.Duration) *LocalProvider {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &LocalProvider{
		store:     store,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		listeners: make(map[int]func(*ports.Identity)),
	}
}

// Register creates a credential. It does not sign the new identity in.
func (p *LocalProvider) Register(ctx context.Context, email, password string) (*domain.Credential, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cred := &domain.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.store.Create(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Subscribe registers fn for identity changes. The current identity is not
// replayed; callers observe transitions from the point of subscription.
func (p *LocalProvider) Subscribe(fn func(*ports.Identity)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignIn verifies credentials, issues a bearer token and notifies
// subscribers. A failed attempt leaves the current identity untouched.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*ports.Identity, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		// Not-found collapses into invalid-credentials so the response does
		// not reveal which emails exist.
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	identity := &ports.Identity{UID: cred.UID, Email: cred.Email}
	token, err := p.generateToken(identity)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = identity
	p.currentToken = token
	p.mu.Unlock()
	p.notify(identity)

	return identity, nil
}

// SignOut clears the provider session and notifies subscribers with nil.
func (p *LocalProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.currentToken = ""
	p.mu.Unlock()
	p.notify(nil)
	return nil
}

// IDToken returns the bearer token for the current identity, re-issuing it
// when the stored one has expired. Refreshes do not notify subscribers.
func (p *LocalProvider) IDToken(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return "", domain.ErrUnauthenticated
	}

	if _, err := p.parseToken(p.currentToken); err != nil {
		token, genErr := p.generateToken(p.current)
		if genErr != nil {
			return "", genErr
		}
		p.currentToken = token
	}
	return p.currentToken, nil
}

// VerifyIDToken validates an HS256 bearer and returns the identity it was
// issued for.
func (p *LocalProvider) VerifyIDToken(_ context.Context, token string) (*ports.Identity, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	uid, _ := claims["uid"].(string)
	email, _ := claims["email"].(string)
	if uid == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &ports.Identity{UID: uid, Email: email}, nil
}

func (p *LocalProvider) generateToken(id *ports.Identity) (string, error) {
	claims := jwt.MapClaims{
		"uid":   id.UID,
		"email": id.Email,
		"exp":   time.Now().Add(p.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(p.jwtSecret))
}

func (p *LocalProvider) parseToken(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

func (p *LocalProvider) notify(id *ports.Identity) {
	p.mu.Lock()
	fns := make([]func(*ports.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
