package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/observability"
)

// ActivityEventSaved is the event type pushed when an analysis is stored.
const ActivityEventSaved = "analysis.saved"

const (
	activitySendBufferSize = 16
	activityPingInterval   = 30 * time.Second
)

// ActivityConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ActivityConnectionOptions struct {
	UserID        string
	CorrelationID string
}

// ActivityStreamService pushes saved-analysis events to the owner's open dashboards.
type ActivityStreamService interface {
	ServeConnection(conn *websocket.Conn, opts ActivityConnectionOptions)
	SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent)
	Start(ctx context.Context)
}

type activityStreamService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	hub          *activityHub
	nodeID       string
	logger       zerolog.Logger
}

// activityHub tracks websocket clients per user.
type activityHub struct {
	mu    sync.RWMutex
	users map[string]map[*activityClient]struct{}
	log   zerolog.Logger
}

type activityConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type activityClient struct {
	conn    activityConn
	userID  string
	send    chan dto.ActivityEvent
	closed  chan struct{}
	once    sync.Once
	service *activityStreamService
}

type activityEnvelope struct {
	Source string                   `json:"source"`
	Event  dto.SubmissionSavedEvent `json:"event"`
	SentAt time.Time                `json:"sent_at"`
}

// NewActivityStreamService creates the stream. NATS carries cross-node events when configured,
// Redis pub/sub otherwise; with neither, events stay on this node.
func NewActivityStreamService(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ActivityStreamService {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":activity"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".activity"
	}

	return &activityStreamService{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		hub: &activityHub{
			users: make(map[string]map[*activityClient]struct{}),
			log:   logger.With().Str("component", "activity_hub").Logger(),
		},
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "activity_stream_service").Logger(),
	}
}

func (s *activityStreamService) Start(ctx context.Context) {
	switch {
	case s.nats != nil && s.natsSubject != "":
		go s.consumeNATS(ctx)
	case s.redis != nil && s.redisChannel != "":
		go s.consumeRedis(ctx)
	}
}

func (s *activityStreamService) ServeConnection(conn *websocket.Conn, opts ActivityConnectionOptions) {
	s.serve(conn, opts)
}

func (s *activityStreamService) serve(conn activityConn, opts ActivityConnectionOptions) {
	client := &activityClient{
		conn:    conn,
		userID:  opts.UserID,
		send:    make(chan dto.ActivityEvent, activitySendBufferSize),
		closed:  make(chan struct{}),
		service: s,
	}

	s.hub.register(client)
	observability.ActivityConnections().Inc()

	go client.writer()
	client.reader()
}

// SubmissionSaved delivers the event locally and announces it to other nodes.
func (s *activityStreamService) SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent) {
	s.deliver(event, "local")
	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish activity event")
	}
}

func (s *activityStreamService) deliver(event dto.SubmissionSavedEvent, origin string) {
	observability.ActivityEvents().WithLabelValues(origin).Inc()
	s.hub.broadcast(event.UserID, dto.ActivityEvent{Type: ActivityEventSaved, Event: event})
}

func (s *activityStreamService) publish(ctx context.Context, event dto.SubmissionSavedEvent) error {
	envelope := activityEnvelope{Source: s.nodeID, Event: event, SentAt: time.Now().UTC()}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	switch {
	case s.nats != nil && s.natsSubject != "":
		return s.nats.Publish(s.natsSubject, payload)
	case s.redis != nil && s.redisChannel != "":
		return s.redis.Publish(ctx, s.redisChannel, payload).Err()
	}
	return nil
}

func (s *activityStreamService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("activity redis subscription closed")
			return
		}
		s.handleRemote([]byte(msg.Payload), "redis")
	}
}

func (s *activityStreamService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleRemote(msg.Data, "nats")
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats activity subject")
		return
	}
	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drain activity nats subscription")
	}
}

func (s *activityStreamService) handleRemote(data []byte, origin string) {
	var envelope activityEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid activity event")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}
	s.deliver(envelope.Event, origin)
}

func (h *activityHub) register(client *activityClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[client.userID]; !ok {
		h.users[client.userID] = make(map[*activityClient]struct{})
	}
	h.users[client.userID][client] = struct{}{}
	h.log.Debug().Str("user_id", client.userID).Msg("activity client connected")
}

func (h *activityHub) unregister(client *activityClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.users, client.userID)
		}
	}
	h.log.Debug().Str("user_id", client.userID).Msg("activity client disconnected")
}

func (h *activityHub) broadcast(userID string, event dto.ActivityEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.users[userID] {
		select {
		case client.send <- event:
		default:
			h.log.Warn().Str("user_id", userID).Msg("dropping activity event for slow client")
		}
	}
}

func (h *activityHub) connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// reader drains client frames so close and pong control messages are processed.
func (c *activityClient) reader() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.service.logger.Debug().Err(err).Msg("activity read loop ended")
			return
		}
	}
}

func (c *activityClient) writer() {
	defer c.close()

	ticker := time.NewTicker(activityPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("activity write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("activity ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *activityClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
