package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobdesk-core/internal/config"
	"jobdesk-core/internal/logging"
)

// RedisClient wraps the Redis client with OTP and notification-state management
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// OTPRecord is the stored form of an issued one-time code. The key's TTL is
// the code's validity window; AttemptsLeft is decremented on every mismatch
// and the record is removed when it reaches zero or on successful verify.
type OTPRecord struct {
	Code         string    `json:"code"`
	AttemptsLeft int       `json:"attempts_left"`
	IssuedAt     time.Time `json:"issued_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	// Parse Redis URL
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	// Configure timeouts
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	return &RedisClient{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Client exposes the underlying go-redis client for pub/sub and other
// consumers that need raw command access.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Ping checks connectivity to the Redis server.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying connection pool.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func otpKey(email string) string {
	return fmt.Sprintf("otp:email:%s", email)
}

func unseenKey(userID string) string {
	return fmt.Sprintf("notify:unseen:%s", userID)
}

// StoreOTP stores a freshly issued code for the given address, replacing any
// previous code. The record expires after the configured validity window.
func (r *RedisClient) StoreOTP(ctx context.Context, email, code string) error {
	record := OTPRecord{
		Code:         code,
		AttemptsLeft: r.config.OTP.MaxAttempts,
		IssuedAt:     time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}

	if err := r.client.Set(ctx, otpKey(email), data, r.config.OTP.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store OTP record: %w", err)
	}

	r.logger.Debug("OTP stored", map[string]interface{}{
		"email": email,
		"ttl":   r.config.OTP.TTL.String(),
	})
	return nil
}

// CheckOTP verifies a submitted code against the stored record. A successful
// match consumes the record; a mismatch burns one attempt and removes the
// record when the budget is exhausted. A missing or expired record verifies
// as false without error.
func (r *RedisClient) CheckOTP(ctx context.Context, email, code string) (bool, error) {
	key := otpKey(email)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load OTP record: %w", err)
	}

	var record OTPRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return false, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}

	if record.Code == code {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			r.logger.Warn("Failed to consume OTP record", map[string]interface{}{
				"email": email,
				"error": err.Error(),
			})
		}
		return true, nil
	}

	record.AttemptsLeft--
	if record.AttemptsLeft <= 0 {
		_ = r.client.Del(ctx, key).Err()
		return false, nil
	}

	updated, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal OTP record: %w", err)
	}
	// Preserve the remaining validity window rather than extending it
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = r.config.OTP.TTL
	}
	if err := r.client.Set(ctx, key, updated, ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to update OTP record: %w", err)
	}

	return false, nil
}

// IncrUnseen bumps the poll-and-check notification counter for a user.
func (r *RedisClient) IncrUnseen(ctx context.Context, userID string, n int64) error {
	return r.client.IncrBy(ctx, unseenKey(userID), n).Err()
}

// GetUnseen returns the current unseen-match count for a user. A missing key
// reads as zero.
func (r *RedisClient) GetUnseen(ctx context.Context, userID string) (int64, error) {
	count, err := r.client.Get(ctx, unseenKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read unseen counter: %w", err)
	}
	return count, nil
}

// ClearUnseen resets the unseen-match counter after the user has checked.
func (r *RedisClient) ClearUnseen(ctx context.Context, userID string) error {
	return r.client.Del(ctx, unseenKey(userID)).Err()
}
