package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-api/internal/dto"
)

type fakeActivityConn struct {
	events    chan dto.ActivityEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeActivityConn() *fakeActivityConn {
	return &fakeActivityConn{events: make(chan dto.ActivityEvent, 8), done: make(chan struct{})}
}

func (c *fakeActivityConn) ReadMessage() (int, []byte, error) {
	<-c.done
	return 0, nil, errors.New("closed")
}

func (c *fakeActivityConn) WriteJSON(v interface{}) error {
	event, ok := v.(dto.ActivityEvent)
	if !ok {
		return errors.New("unexpected payload")
	}
	c.events <- event
	return nil
}

func (c *fakeActivityConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeActivityConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func connectFake(t *testing.T, svc *activityStreamService, userID string) *fakeActivityConn {
	t.Helper()
	conn := newFakeActivityConn()
	before := svc.hub.connections(userID)
	go svc.serve(conn, ActivityConnectionOptions{UserID: userID})
	require.Eventually(t, func() bool { return svc.hub.connections(userID) == before+1 }, time.Second, 5*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func expectEvent(t *testing.T, conn *fakeActivityConn) dto.ActivityEvent {
	t.Helper()
	select {
	case event := <-conn.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("expected activity event")
	}
	return dto.ActivityEvent{}
}

func expectNoEvent(t *testing.T, conn *fakeActivityConn) {
	t.Helper()
	select {
	case event := <-conn.events:
		t.Fatalf("unexpected activity event %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestActivityStreamDeliversOnlyToOwner(t *testing.T) {
	svc := NewActivityStreamService(nil, nil, "", zerolog.Nop()).(*activityStreamService)
	owner := connectFake(t, svc, "user-a")
	ownerSecondTab := connectFake(t, svc, "user-a")
	stranger := connectFake(t, svc, "user-b")

	submissionID := uuid.New()
	svc.SubmissionSaved(context.Background(), dto.SubmissionSavedEvent{SubmissionID: submissionID, UserID: "user-a", Rating: 88})

	for _, conn := range []*fakeActivityConn{owner, ownerSecondTab} {
		event := expectEvent(t, conn)
		require.Equal(t, ActivityEventSaved, event.Type)
		require.Equal(t, submissionID, event.Event.SubmissionID)
		require.Equal(t, 88, event.Event.Rating)
	}
	expectNoEvent(t, stranger)
}

func TestActivityStreamUnregistersClosedClients(t *testing.T) {
	svc := NewActivityStreamService(nil, nil, "", zerolog.Nop()).(*activityStreamService)
	conn := connectFake(t, svc, "user-a")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return svc.hub.connections("user-a") == 0 }, time.Second, 5*time.Millisecond)

	svc.SubmissionSaved(context.Background(), dto.SubmissionSavedEvent{UserID: "user-a"})
}

func TestActivityStreamIgnoresOwnRemoteEcho(t *testing.T) {
	svc := NewActivityStreamService(nil, nil, "", zerolog.Nop()).(*activityStreamService)
	conn := connectFake(t, svc, "user-a")

	own := uuid.New()
	svc.handleRemote([]byte(`{"source":"`+svc.nodeID+`","event":{"submission_id":"`+own.String()+`","user_id":"user-a"}}`), "redis")
	expectNoEvent(t, conn)

	remote := uuid.New()
	svc.handleRemote([]byte(`{"source":"other-node","event":{"submission_id":"`+remote.String()+`","user_id":"user-a"}}`), "redis")
	require.Equal(t, remote, expectEvent(t, conn).Event.SubmissionID)

	svc.handleRemote([]byte(`not json`), "redis")
	expectNoEvent(t, conn)
}

func TestActivityStreamFansOutAcrossNodesViaRedis(t *testing.T) {
	mr, client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	nodeA := NewActivityStreamService(client, nil, "coach", zerolog.Nop()).(*activityStreamService)
	nodeB := NewActivityStreamService(client, nil, "coach", zerolog.Nop()).(*activityStreamService)
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("coach:activity")["coach:activity"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	onA := connectFake(t, nodeA, "user-a")
	onB := connectFake(t, nodeB, "user-a")

	submissionID := uuid.New()
	nodeA.SubmissionSaved(ctx, dto.SubmissionSavedEvent{SubmissionID: submissionID, UserID: "user-a"})

	require.Equal(t, submissionID, expectEvent(t, onA).Event.SubmissionID)
	require.Equal(t, submissionID, expectEvent(t, onB).Event.SubmissionID)
	expectNoEvent(t, onA)
}
