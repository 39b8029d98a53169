package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var ErrNotAuthenticated = errors.New("not logged in")

// Identity is the authenticated user. It does not change for the lifetime of a login.
type Identity struct {
	UserID int               `json:"userId"`
	Email  string            `json:"email"`
	Role   smartrecruit.Role `json:"role"`
}

// Authenticator is the part of the backend client a login needs.
type Authenticator interface {
	Login(ctx context.Context, creds smartrecruit.Credentials) (*smartrecruit.Token, error)
	Me(ctx context.Context) (*smartrecruit.Profile, error)
}

// Session owns the bearer token, the identity derived from it and the applied-set.
// It is passed explicitly to every component that needs any of them.
type Session struct {
	mu        sync.RWMutex
	creds     *TokenFile
	store     Store
	logger    *zap.Logger
	token     string
	identity  Identity
	profile   smartrecruit.Profile
	expiresAt time.Time

	hooks []func(ctx context.Context)
	now   func() time.Time
}

// Open restores the persisted login, if any. An expired or unreadable token is discarded
// and the session starts unauthenticated.
func Open(ctx context.Context, creds *TokenFile, store Store, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}

	s := &Session{
		creds:  creds,
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	saved, err := creds.Load()
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return s, nil
	}

	if err := s.adopt(saved.Token, saved.Profile); err != nil {
		logger.Info("discarding stored login", zap.Error(err))
		if err := s.Teardown(ctx); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// adopt installs token as the current login.
func (s *Session) adopt(token string, profile smartrecruit.Profile) error {
	c, err := parseClaims(token)
	if err != nil {
		return err
	}
	if c.expired(s.now()) {
		return ErrTokenExpired
	}

	identity := Identity{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   smartrecruit.Role(c.Role),
	}
	if identity.UserID == 0 {
		identity.UserID = profile.ID
	}
	if identity.Email == "" {
		identity.Email = profile.Email
	}
	if identity.Role == "" {
		identity.Role = profile.Role
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.profile = profile
	s.expiresAt = c.ExpiresAt
	s.mu.Unlock()

	s.scopeStore(identity.UserID)
	return nil
}

// UserScoped is implemented by stores that keep records of several users apart. Their
// rows outlive a login, so teardown unscopes them instead of clearing.
type UserScoped interface {
	Scope(userID int)
	Unscope()
}

func (s *Session) scopeStore(userID int) {
	if scoped, ok := s.store.(UserScoped); ok && userID > 0 {
		scoped.Scope(userID)
	}
}

// Login authenticates against the backend and persists the result. Any previous login
// is torn down first.
func (s *Session) Login(ctx context.Context, auth Authenticator, creds smartrecruit.Credentials) (Identity, error) {
	if s.Authenticated() {
		if err := s.Teardown(ctx); err != nil {
			return Identity{}, err
		}
	}

	token, err := auth.Login(ctx, creds)
	if err != nil {
		return Identity{}, err
	}

	if err := s.adopt(token.AccessToken, smartrecruit.Profile{}); err != nil {
		return Identity{}, fmt.Errorf("login: %w", err)
	}

	// The token is live now, so Me goes out authenticated.
	profile, err := auth.Me(ctx)
	var backendErr *smartrecruit.BackendError
	if errors.As(err, &backendErr) && backendErr.Unauthorized() {
		s.HandleUnauthorized(ctx)
		return Identity{}, err
	}
	if err != nil {
		s.logger.Warn("could not load profile after login", zap.Error(err))
		profile = &smartrecruit.Profile{}
	}
	if err := s.adopt(token.AccessToken, *profile); err != nil {
		return Identity{}, fmt.Errorf("login: %w", err)
	}

	identity, _ := s.Identity()
	stored := *profile
	if stored.Email == "" {
		stored.Email = identity.Email
	}
	if stored.Role == "" {
		stored.Role = identity.Role
	}
	if stored.ID == 0 {
		stored.ID = identity.UserID
	}
	if err := s.creds.Save(Credentials{Token: token.AccessToken, Profile: stored}); err != nil {
		return Identity{}, err
	}

	s.logger.Info("logged in",
		zap.String("email", identity.Email),
		zap.String("role", string(identity.Role)),
		zap.Int("user_id", identity.UserID),
	)
	return identity, nil
}

// Token implements smartrecruit.TokenSource. It is empty when logged out or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return ""
	}
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Identity reports the current user. ok is false when logged out.
func (s *Session) Identity() (Identity, bool) {
	if !s.Authenticated() {
		return Identity{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, true
}

// RequireIdentity is Identity for callers that cannot proceed anonymously.
func (s *Session) RequireIdentity() (Identity, error) {
	identity, ok := s.Identity()
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	return identity, nil
}

func (s *Session) Profile() smartrecruit.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// FillUserID sets the user id when neither the token nor the profile carried one.
// An identity that already has an id is left untouched.
func (s *Session) FillUserID(id int) {
	if id <= 0 {
		return
	}
	s.mu.Lock()
	filled := s.token != "" && s.identity.UserID == 0
	if filled {
		s.identity.UserID = id
	}
	s.mu.Unlock()

	if filled {
		s.scopeStore(id)
	}
}

// Store is the applied-set of this session.
func (s *Session) Store() Store {
	return s.store
}

// OnTeardown registers fn to run after every teardown.
func (s *Session) OnTeardown(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Teardown forgets the token and the identity, then runs the registered hooks. A local
// applied-set is cleared; a UserScoped one is only detached from the user. It is safe
// to call repeatedly.
func (s *Session) Teardown(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.identity = Identity{}
	s.profile = smartrecruit.Profile{}
	s.expiresAt = time.Time{}
	hooks := append([]func(context.Context){}, s.hooks...)
	s.mu.Unlock()

	var errs []error
	if err := s.creds.Clear(); err != nil {
		errs = append(errs, err)
	}
	if scoped, ok := s.store.(UserScoped); ok {
		scoped.Unscope()
	} else if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear applied jobs: %w", err))
	}

	for _, fn := range hooks {
		fn(ctx)
	}

	return errors.Join(errs...)
}

// HandleUnauthorized is wired into smartrecruit.Client.Unauthorized.
func (s *Session) HandleUnauthorized(ctx context.Context) {
	if err := s.Teardown(ctx); err != nil {
		s.logger.Warn("teardown after 401 was incomplete", zap.Error(err))
	}
}
