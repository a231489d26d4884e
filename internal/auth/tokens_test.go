package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk-core/internal/config"
)

// fakeRevocations is an in-memory RevocationStore.
type fakeRevocations struct {
	cutoffs map[string]time.Time
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{cutoffs: make(map[string]time.Time)}
}

func (r *fakeRevocations) SetRevokedAt(_ context.Context, userID string, at time.Time, _ time.Duration) error {
	r.cutoffs[userID] = at
	return nil
}

func (r *fakeRevocations) RevokedAt(_ context.Context, userID string) (time.Time, bool, error) {
	at, ok := r.cutoffs[userID]
	return at, ok, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.Issuer = "jobdesk"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager(testConfig(), newFakeRevocations())

	token, err := m.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jobdesk", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager(testConfig(), newFakeRevocations())

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Validate(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager(testConfig(), newFakeRevocations())

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	other := testConfig()
	other.Auth.JWTSecret = "different-secret"
	m2 := NewTokenManager(other, newFakeRevocations())

	_, err = m2.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.Issuer = "someone-else"
	token, err := NewTokenManager(cfg, newFakeRevocations()).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager(testConfig(), newFakeRevocations()).Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeAllKillsOutstandingTokens(t *testing.T) {
	ctx := context.Background()
	revocations := newFakeRevocations()
	m := NewTokenManager(testConfig(), revocations)

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	// Push the cutoff past the issue time so the token is unambiguously older.
	require.NoError(t, revocations.SetRevokedAt(ctx, "user-1", time.Now().Add(time.Minute), time.Hour))

	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Other users are unaffected.
	otherToken, err := m.Issue("user-2")
	require.NoError(t, err)
	_, err = m.Validate(ctx, otherToken)
	assert.NoError(t, err)
}

func TestTokenIssuedAfterCutoffSurvives(t *testing.T) {
	ctx := context.Background()
	revocations := newFakeRevocations()
	m := NewTokenManager(testConfig(), revocations)

	// Revocation in the past; a fresh token postdates it and stays valid.
	require.NoError(t, revocations.SetRevokedAt(ctx, "user-1", time.Now().Add(-time.Minute), time.Hour))

	token, err := m.Issue("user-1")
	require.NoError(t, err)
	_, err = m.Validate(ctx, token)
	assert.NoError(t, err)
}
