package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fakeAuth struct {
	token   string
	profile *smartrecruit.Profile
	meErr   error
	logins  int
}

func (f *fakeAuth) Login(_ context.Context, _ smartrecruit.Credentials) (*smartrecruit.Token, error) {
	f.logins++
	return &smartrecruit.Token{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Me(_ context.Context) (*smartrecruit.Profile, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.profile, nil
}

func TestLoginDerivesIdentityAndPersists(t *testing.T) {
	ctx := context.Background()
	creds := &TokenFile{Path: filepath.Join(t.TempDir(), "credentials.json")}

	s, err := Open(ctx, creds, nil, nil)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	token := signToken(t, jwt.MapClaims{
		"sub":  "Ada@Example.com",
		"role": "candidate",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	auth := &fakeAuth{token: token, profile: &smartrecruit.Profile{ID: 42, Email: "ada@example.com", FirstName: "Ada"}}

	identity, err := s.Login(ctx, auth, smartrecruit.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Email: "ada@example.com", Role: smartrecruit.RoleCandidate}, identity)
	assert.Equal(t, token, s.Token())

	reopened, err := Open(ctx, creds, nil, nil)
	require.NoError(t, err)
	got, ok := reopened.Identity()
	require.True(t, ok)
	assert.Equal(t, identity, got)
	assert.Equal(t, "Ada", reopened.Profile().FirstName)
}

func TestOpenDiscardsExpiredToken(t *testing.T) {
	ctx := context.Background()
	creds := &TokenFile{Path: filepath.Join(t.TempDir(), "credentials.json")}
	require.NoError(t, creds.Save(Credentials{Token: signToken(t, jwt.MapClaims{
		"sub": "ada@example.com",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})}))

	store := NewMemoryStore()
	require.NoError(t, store.Add(ctx, Record{JobID: 1, ResumeID: "r1", ApplicationID: "a1"}))

	s, err := Open(ctx, creds, store, nil)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	saved, err := creds.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTokenExpiresDuringSession(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, nil, nil, nil)
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	auth := &fakeAuth{
		token:   signToken(t, jwt.MapClaims{"sub": "ada@example.com", "user_id": 7, "exp": exp.Unix()}),
		profile: &smartrecruit.Profile{},
	}
	_, err = s.Login(ctx, auth, smartrecruit.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	require.True(t, s.Authenticated())

	s.now = func() time.Time { return exp.Add(time.Second) }
	assert.Empty(t, s.Token())
	_, err = s.RequireIdentity()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTeardownClearsEverythingAndRunsHooks(t *testing.T) {
	ctx := context.Background()
	creds := &TokenFile{Path: filepath.Join(t.TempDir(), "credentials.json")}
	store := NewMemoryStore()
	s, err := Open(ctx, creds, store, nil)
	require.NoError(t, err)

	auth := &fakeAuth{
		token:   signToken(t, jwt.MapClaims{"sub": "ada@example.com", "user_id": "9", "exp": time.Now().Add(time.Hour).Unix()}),
		profile: &smartrecruit.Profile{},
	}
	identity, err := s.Login(ctx, auth, smartrecruit.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 9, identity.UserID)

	require.NoError(t, store.Add(ctx, Record{JobID: 3, ResumeID: "r1", ApplicationID: "a3"}))

	calls := 0
	s.OnTeardown(func(context.Context) { calls++ })

	s.HandleUnauthorized(ctx)
	s.HandleUnauthorized(ctx)

	assert.Equal(t, 2, calls)
	assert.False(t, s.Authenticated())
	_, ok := s.Identity()
	assert.False(t, ok)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	saved, err := creds.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestLoginRejectedProfileTearsDown(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, nil, nil, nil)
	require.NoError(t, err)

	auth := &fakeAuth{
		token: signToken(t, jwt.MapClaims{"sub": "ada@example.com", "exp": time.Now().Add(time.Hour).Unix()}),
		meErr: &smartrecruit.BackendError{Status: http.StatusUnauthorized, Detail: "invalid token"},
	}

	_, err = s.Login(ctx, auth, smartrecruit.Credentials{Email: "ada@example.com", Password: "pw"})
	var backendErr *smartrecruit.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.False(t, s.Authenticated())
}

func TestFillUserIDKeepsExistingIdentity(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, nil, nil, nil)
	require.NoError(t, err)

	s.FillUserID(5)
	_, ok := s.Identity()
	assert.False(t, ok, "anonymous sessions get no id")

	auth := &fakeAuth{
		token:   signToken(t, jwt.MapClaims{"sub": "ada@example.com", "exp": time.Now().Add(time.Hour).Unix()}),
		profile: &smartrecruit.Profile{},
	}
	_, err = s.Login(ctx, auth, smartrecruit.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	s.FillUserID(5)
	s.FillUserID(6)
	identity, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, 5, identity.UserID)
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := parseClaims("not-a-token")
	assert.Error(t, err)
}
