package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionLocker serialises follow-up questions per session key.
type SessionLocker interface {
	// TryLock returns ok=false when the key is already held. release must be called once the holder is done.
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// NewSessionLocker returns a Redis-backed locker when a client is available and a process-local one otherwise.
func NewSessionLocker(client *redis.Client, prefix string, ttl time.Duration) SessionLocker {
	if client == nil {
		return &localSessionLocker{held: make(map[string]struct{})}
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if prefix == "" {
		prefix = "coach"
	}
	return &redisSessionLocker{client: client, prefix: prefix + ":chat:lock:", ttl: ttl}
}

type localSessionLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func (l *localSessionLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSessionLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (l *redisSessionLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err()
		})
	}, true, nil
}
