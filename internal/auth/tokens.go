// Package auth issues and validates the session tokens whose revocation backs
// the forced-logout side effect of credential changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"jobdesk-core/internal/config"
)

var (
	// ErrInvalidToken is returned for malformed, mis-signed, or expired tokens.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrTokenRevoked is returned for tokens issued before the user's most
	// recent revoke-all.
	ErrTokenRevoked = errors.New("session token revoked")
)

// Claims is the session token payload.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// RevocationStore records the revoke-all cutoff per user. Tokens issued
// before the cutoff are dead regardless of their expiry.
type RevocationStore interface {
	SetRevokedAt(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, userID string) (time.Time, bool, error)
}

// RedisRevocations implements RevocationStore on Redis. The cutoff only needs
// to outlive the longest-lived token, so entries carry the token TTL.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations returns a RevocationStore backed by the given client.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func revocationKey(userID string) string {
	return fmt.Sprintf("auth:revoked:%s", userID)
}

// SetRevokedAt stores the revocation cutoff for a user.
func (r *RedisRevocations) SetRevokedAt(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return r.client.Set(ctx, revocationKey(userID), at.Unix(), ttl).Err()
}

// RevokedAt reads the revocation cutoff for a user, reporting false when none
// is recorded.
func (r *RedisRevocations) RevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	unix, err := r.client.Get(ctx, revocationKey(userID)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read revocation cutoff: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// TokenManager issues HS256 session tokens and validates them against the
// revocation store. It satisfies the security package's SessionRevoker.
type TokenManager struct {
	secret      []byte
	ttl         time.Duration
	issuer      string
	revocations RevocationStore
}

// NewTokenManager returns a TokenManager using the configured secret and TTL.
func NewTokenManager(cfg *config.Config, revocations RevocationStore) *TokenManager {
	return &TokenManager{
		secret:      []byte(cfg.Auth.JWTSecret),
		ttl:         cfg.Auth.TokenTTL,
		issuer:      cfg.Auth.Issuer,
		revocations: revocations,
	}
}

// Issue creates a signed session token for a user.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, rejecting anything issued before the
// user's revocation cutoff.
func (m *TokenManager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	cutoff, revoked, err := m.revocations.RevokedAt(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if revoked && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeAll invalidates every outstanding session for a user by moving the
// revocation cutoff to now.
func (m *TokenManager) RevokeAll(ctx context.Context, userID string) error {
	return m.revocations.SetRevokedAt(ctx, userID, time.Now(), m.ttl)
}
