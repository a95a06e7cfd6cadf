// Package session implements the gateway's default session checker over
// Redis. A session record binds a session identifier to a user and role;
// validation confirms the binding and Touch extends liveness with sliding
// expiration. Session creation belongs to the identity service — Put exists
// so that service (and tests) can write records through the same codec.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the session backend is unreachable.
var ErrUnavailable = errors.New("session backend unavailable")

// Record is the stored session state.
type Record struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

// Store reads and refreshes session records in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a session store. Keys live under prefix (default "gs");
// ttl is the sliding window applied on Put and Touch (default 30 minutes).
func NewStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "gs"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{redis: redisClient, prefix: prefix, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Put writes a session record with the sliding TTL.
func (s *Store) Put(ctx context.Context, sessionID string, rec Record) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Validate confirms the session exists and belongs to the given user and
// role. A missing record is a plain false, not an error.
func (s *Store) Validate(ctx context.Context, sessionID, userID, role string) (bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record never validates.
		return false, nil
	}

	if rec.UserID != userID {
		return false, nil
	}
	if role != "" && rec.Role != role {
		return false, nil
	}
	return true, nil
}

// Touch extends the session's liveness window.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	if err := s.redis.Expire(ctx, s.key(sessionID), s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a session record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
