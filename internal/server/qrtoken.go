package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cityrun/quest/internal/quest"
)

// TokenStore issues and resolves short-lived opaque QR identity tokens.
// The engine only ever sees this capability, never a concrete client.
type TokenStore interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
}

func newQRToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RedisTokenStore keeps QR tokens in Redis with a TTL, so expiry needs no
// sweeper of our own.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) key(token string) string { return "qr:" + token }

func (s *RedisTokenStore) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := newQRToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("storing qr token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", quest.ErrTokenExpired
	}
	if err != nil {
		return "", fmt.Errorf("resolving qr token: %w", err)
	}
	return userID, nil
}

// memoryTokenStore is the in-process TokenStore used by tests.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	userID  string
	expires time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]memoryToken)}
}

func (s *memoryTokenStore) Issue(_ context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := newQRToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = memoryToken{userID: userID, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *memoryTokenStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || time.Now().After(t.expires) {
		delete(s.tokens, token)
		return "", quest.ErrTokenExpired
	}
	return t.userID, nil
}
