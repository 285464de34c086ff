package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/pkg/ai"
)

// SessionService loads and stores editor state across requests.
type SessionService interface {
	Load(ctx context.Context, key string) (dto.SessionState, error)
	Save(ctx context.Context, key string, state dto.SessionState) error
	// SaveIfUnchanged stores state only when nobody wrote the session since state was loaded.
	// It returns ErrSessionConflict otherwise.
	SaveIfUnchanged(ctx context.Context, key string, state dto.SessionState) error
	Reset(ctx context.Context, key string) (dto.SessionState, error)
}

// SessionKey derives the storage key for a caller. Authenticated users win over anonymous ids;
// an empty key means the session is ephemeral.
func SessionKey(userID, anonymousID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return "user:" + userID
	}
	if parsed, err := uuid.Parse(strings.TrimSpace(anonymousID)); err == nil {
		return "anon:" + parsed.String()
	}
	return ""
}

const maxSessionWriteAttempts = 3

type sessionService struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger

	mu     sync.Mutex
	memory map[string]memorySession
}

type memorySession struct {
	state     dto.SessionState
	expiresAt time.Time
}

// NewSessionService stores sessions in Redis when a client is provided, in memory otherwise.
func NewSessionService(redisClient *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if prefix == "" {
		prefix = "coach"
	}
	return &sessionService{
		redis:  redisClient,
		prefix: prefix + ":session:",
		ttl:    ttl,
		logger: logger.With().Str("component", "session_service").Logger(),
		memory: make(map[string]memorySession),
	}
}

func (s *sessionService) Load(ctx context.Context, key string) (dto.SessionState, error) {
	if key == "" {
		return dto.NewSessionState(), nil
	}

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.memory[key]
		if !ok || time.Now().After(entry.expiresAt) {
			delete(s.memory, key)
			return dto.NewSessionState(), nil
		}
		return entry.state, nil
	}

	payload, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dto.NewSessionState(), nil
		}
		return dto.SessionState{}, err
	}

	state := dto.NewSessionState()
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Warn().Err(err).Str("session_key", key).Msg("discarding unreadable session")
		return dto.NewSessionState(), nil
	}
	if state.Conversation == nil {
		state.Conversation = []ai.Message{}
	}
	return state, nil
}

func (s *sessionService) Save(ctx context.Context, key string, state dto.SessionState) error {
	return s.write(ctx, key, state, false)
}

func (s *sessionService) SaveIfUnchanged(ctx context.Context, key string, state dto.SessionState) error {
	return s.write(ctx, key, state, true)
}

func (s *sessionService) write(ctx context.Context, key string, state dto.SessionState, conditional bool) error {
	if key == "" {
		return nil
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	expected := state.Revision

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		var current int64
		if entry, ok := s.memory[key]; ok && time.Now().Before(entry.expiresAt) {
			current = entry.state.Revision
		}
		if conditional && current != expected {
			return ErrSessionConflict
		}
		state.Revision = current + 1
		s.memory[key] = memorySession{state: state, expiresAt: time.Now().Add(s.ttl)}
		return nil
	}

	redisKey := s.prefix + key
	txn := func(tx *redis.Tx) error {
		current, err := storedRevision(ctx, tx, redisKey)
		if err != nil {
			return err
		}
		if conditional && current != expected {
			return ErrSessionConflict
		}
		state.Revision = current + 1
		payload, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, payload, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSessionWriteAttempts; attempt++ {
		err := s.redis.Watch(ctx, txn, redisKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if conditional {
			return ErrSessionConflict
		}
	}
	return ErrSessionConflict
}

// storedRevision reads the revision of the stored payload. Missing or unreadable payloads count as revision 0.
func storedRevision(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	payload, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	var stored struct {
		Revision int64 `json:"revision"`
	}
	if err := json.Unmarshal(payload, &stored); err != nil {
		return 0, nil
	}
	return stored.Revision, nil
}

func (s *sessionService) Reset(ctx context.Context, key string) (dto.SessionState, error) {
	fresh := dto.NewSessionState()
	if key == "" {
		return fresh, nil
	}

	if s.redis == nil {
		s.mu.Lock()
		delete(s.memory, key)
		s.mu.Unlock()
		return fresh, nil
	}

	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		return dto.SessionState{}, err
	}
	return fresh, nil
}
