package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRefreshInvalid indicates the refresh token is unknown or expired.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReused indicates a rotated-out token was presented again.
	ErrRefreshReused = errors.New("refresh token reuse detected")
)

// RefreshStore persists rotating refresh tokens. Each Issue starts a
// chain; Rotate invalidates the presented token and returns its
// successor. Presenting a stale token revokes the whole chain.
type RefreshStore interface {
	Issue(userID string, ttl time.Duration) (string, error)
	Rotate(token string, ttl time.Duration) (userID, next string, err error)
	Revoke(token string) error
}

type refreshChain struct {
	userID  string
	current string // hash of the live token
	expiry  time.Time
}

// MemoryRefreshStore keeps refresh chains in memory.
type MemoryRefreshStore struct {
	mu     sync.Mutex
	chains map[string]refreshChain // chainID -> chain
	tokens map[string]string       // token hash -> chainID, live and stale
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{
		chains: make(map[string]refreshChain),
		tokens: make(map[string]string),
	}
}

func (s *MemoryRefreshStore) Issue(userID string, ttl time.Duration) (string, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	chainID, err := randomToken(16)
	if err != nil {
		return "", err
	}
	hash := hashToken(token)

	s.mu.Lock()
	s.chains[chainID] = refreshChain{
		userID:  userID,
		current: hash,
		expiry:  time.Now().UTC().Add(ttl),
	}
	s.tokens[hash] = chainID
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryRefreshStore) Rotate(token string, ttl time.Duration) (string, string, error) {
	hash := hashToken(token)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	chainID, ok := s.tokens[hash]
	if !ok {
		return "", "", ErrRefreshInvalid
	}
	chain, ok := s.chains[chainID]
	if !ok || now.After(chain.expiry) {
		s.dropChainLocked(chainID)
		return "", "", ErrRefreshInvalid
	}
	if chain.current != hash {
		// Stale token replayed: the chain is compromised.
		s.dropChainLocked(chainID)
		return "", "", ErrRefreshReused
	}

	next, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	nextHash := hashToken(next)
	chain.current = nextHash
	chain.expiry = now.Add(ttl)
	s.chains[chainID] = chain
	s.tokens[nextHash] = chainID
	return chain.userID, next, nil
}

func (s *MemoryRefreshStore) Revoke(token string) error {
	s.mu.Lock()
	if chainID, ok := s.tokens[hashToken(token)]; ok {
		s.dropChainLocked(chainID)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryRefreshStore) dropChainLocked(chainID string) {
	for h, id := range s.tokens {
		if id == chainID {
			delete(s.tokens, h)
		}
	}
	delete(s.chains, chainID)
}

// RedisRefreshStore keeps refresh chains in Redis so rotation state is
// shared across instances.
type RedisRefreshStore struct {
	client *redis.Client
}

func NewRedisRefreshStore(addr, password string) *RedisRefreshStore {
	return &RedisRefreshStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (s *RedisRefreshStore) Issue(userID string, ttl time.Duration) (string, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	chainID, err := randomToken(16)
	if err != nil {
		return "", err
	}
	hash := hashToken(token)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, refreshTokenKey(hash), chainID, ttl)
	pipe.HSet(ctx, refreshChainKey(chainID), map[string]any{
		"userId":  userID,
		"current": hash,
	})
	pipe.Expire(ctx, refreshChainKey(chainID), ttl)
	pipe.SAdd(ctx, refreshChainTokensKey(chainID), hash)
	pipe.Expire(ctx, refreshChainTokensKey(chainID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisRefreshStore) Rotate(token string, ttl time.Duration) (string, string, error) {
	hash := hashToken(token)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		chainID, err := s.client.Get(ctx, refreshTokenKey(hash)).Result()
		if err == redis.Nil {
			return "", "", ErrRefreshInvalid
		}
		if err != nil {
			return "", "", err
		}

		chainKey := refreshChainKey(chainID)
		var userID, next string
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.HGetAll(ctx, chainKey).Result()
			if err != nil {
				return err
			}
			userID = data["userId"]
			if len(data) == 0 || userID == "" || data["current"] == "" {
				return ErrRefreshInvalid
			}
			if data["current"] != hash {
				return ErrRefreshReused
			}

			next, err = randomToken(32)
			if err != nil {
				return err
			}
			nextHash := hashToken(next)
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, refreshTokenKey(nextHash), chainID, ttl)
				pipe.HSet(ctx, chainKey, "current", nextHash)
				pipe.Expire(ctx, chainKey, ttl)
				pipe.SAdd(ctx, refreshChainTokensKey(chainID), nextHash)
				pipe.Expire(ctx, refreshChainTokensKey(chainID), ttl)
				return nil
			})
			return err
		}, chainKey)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, ErrRefreshInvalid) || errors.Is(err, ErrRefreshReused) {
			_ = s.dropChain(ctx, chainID)
			return "", "", err
		}
		if err != nil {
			return "", "", err
		}
		return userID, next, nil
	}
}

func (s *RedisRefreshStore) Revoke(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	chainID, err := s.client.Get(ctx, refreshTokenKey(hashToken(token))).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return s.dropChain(ctx, chainID)
}

func (s *RedisRefreshStore) dropChain(ctx context.Context, chainID string) error {
	hashes, err := s.client.SMembers(ctx, refreshChainTokensKey(chainID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, h := range hashes {
		pipe.Del(ctx, refreshTokenKey(h))
	}
	pipe.Del(ctx, refreshChainTokensKey(chainID))
	pipe.Del(ctx, refreshChainKey(chainID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func refreshTokenKey(hash string) string {
	return "refresh:token:" + hash
}

func refreshChainKey(chainID string) string {
	return "refresh:chain:" + chainID
}

func refreshChainTokensKey(chainID string) string {
	return "refresh:chain_tokens:" + chainID
}
