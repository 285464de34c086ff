package handler_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/handler"
	"github.com/noah-isme/coach-api/internal/router"
	"github.com/noah-isme/coach-api/internal/service"
)

func startFiberServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})

	return "ws://" + listener.Addr().String()
}

func TestActivityStreamPushesSavedAnalyses(t *testing.T) {
	stream := service.NewActivityStreamService(nil, nil, "", zerolog.Nop())
	app := newTestApp(router.Dependencies{
		ActivityHandler: handler.NewActivityHandler(stream, zerolog.Nop()),
	})
	base := startFiberServer(t, app)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(base+"/api/v2/progress/stream/ws", http.Header{"Authorization": {bearer(t, "user-5")}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	submissionID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registration completes shortly after the handshake, so keep announcing until the client hears one.
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			stream.SubmissionSaved(ctx, dto.SubmissionSavedEvent{SubmissionID: uuid.New(), UserID: "someone-else"})
			stream.SubmissionSaved(ctx, dto.SubmissionSavedEvent{SubmissionID: submissionID, UserID: "user-5", Rating: 77})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event dto.ActivityEvent
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, service.ActivityEventSaved, event.Type)
	require.Equal(t, submissionID, event.Event.SubmissionID)
	require.Equal(t, "user-5", event.Event.UserID)
	require.Equal(t, 77, event.Event.Rating)
}

func TestActivityStreamRejectsAnonymousUpgrade(t *testing.T) {
	stream := service.NewActivityStreamService(nil, nil, "", zerolog.Nop())
	app := newTestApp(router.Dependencies{
		ActivityHandler: handler.NewActivityHandler(stream, zerolog.Nop()),
	})
	base := startFiberServer(t, app)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	_, resp, err := dialer.Dial(base+"/api/v2/progress/stream/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	plain, err := http.Get(strings.Replace(base, "ws://", "http://", 1) + "/api/v2/progress/stream/ws")
	require.NoError(t, err)
	defer plain.Body.Close()
	require.Equal(t, fiber.StatusUnauthorized, plain.StatusCode)
}
