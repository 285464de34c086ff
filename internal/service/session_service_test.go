package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/pkg/ai"
)

func TestSessionKey(t *testing.T) {
	anon := "6f1c2c1e-9b7a-4d8e-8f44-1d3c5a7b9e01"
	require.Equal(t, "user:42", SessionKey(" 42 ", anon))
	require.Equal(t, "anon:"+anon, SessionKey("", anon))
	require.Equal(t, "", SessionKey("", "not-a-uuid"))
	require.Equal(t, "", SessionKey("", ""))
}

func exerciseSessionLifecycle(t *testing.T, svc SessionService) {
	t.Helper()
	ctx := context.Background()

	fresh, err := svc.Load(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, dto.DefaultSessionCode, fresh.Code)
	require.Equal(t, dto.DefaultSessionLanguage, fresh.Language)
	require.Equal(t, dto.DefaultSessionTopic, fresh.Topic)
	require.Empty(t, fresh.Conversation)

	fresh.Code = "return 1"
	fresh.LastResult = &dto.AnalysisResult{Rating: 77}
	fresh.Conversation = []ai.Message{{Role: ai.RoleUser, Content: "hi"}}
	require.NoError(t, svc.Save(ctx, "user:1", fresh))

	loaded, err := svc.Load(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, "return 1", loaded.Code)
	require.NotNil(t, loaded.LastResult)
	require.Equal(t, 77, loaded.LastResult.Rating)
	require.Len(t, loaded.Conversation, 1)
	require.False(t, loaded.UpdatedAt.IsZero())

	reset, err := svc.Reset(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, dto.DefaultSessionCode, reset.Code)

	again, err := svc.Load(ctx, "user:1")
	require.NoError(t, err)
	require.Nil(t, again.LastResult)
}

func exerciseConditionalSave(t *testing.T, svc SessionService) {
	t.Helper()
	ctx := context.Background()

	chat, err := svc.Load(ctx, "user:2")
	require.NoError(t, err)
	require.NoError(t, svc.SaveIfUnchanged(ctx, "user:2", chat))

	chat, err = svc.Load(ctx, "user:2")
	require.NoError(t, err)
	require.EqualValues(t, 1, chat.Revision)

	analysis := chat
	analysis.Code = "new code"
	require.NoError(t, svc.Save(ctx, "user:2", analysis))

	chat.Conversation = []ai.Message{{Role: ai.RoleAssistant, Content: "stale"}}
	require.ErrorIs(t, svc.SaveIfUnchanged(ctx, "user:2", chat), ErrSessionConflict)

	loaded, err := svc.Load(ctx, "user:2")
	require.NoError(t, err)
	require.Equal(t, "new code", loaded.Code)
	require.Empty(t, loaded.Conversation)
	require.EqualValues(t, 2, loaded.Revision)

	loaded.Conversation = []ai.Message{{Role: ai.RoleAssistant, Content: "fresh"}}
	require.NoError(t, svc.SaveIfUnchanged(ctx, "user:2", loaded))
}

func TestSessionServiceRedis(t *testing.T) {
	mr, client := setupRedis(t)
	svc := NewSessionService(client, "coach", time.Hour, zerolog.Nop())
	exerciseSessionLifecycle(t, svc)
	exerciseConditionalSave(t, svc)

	require.NoError(t, svc.Save(context.Background(), "anon:x", dto.NewSessionState()))
	require.True(t, mr.Exists("coach:session:anon:x"))
	mr.FastForward(2 * time.Hour)
	require.False(t, mr.Exists("coach:session:anon:x"))
}

func TestSessionServiceMemory(t *testing.T) {
	svc := NewSessionService(nil, "", time.Hour, zerolog.Nop())
	exerciseSessionLifecycle(t, svc)
	exerciseConditionalSave(t, svc)
}

func TestSessionServiceEphemeralKeyIsNotStored(t *testing.T) {
	svc := NewSessionService(nil, "", time.Hour, zerolog.Nop())
	state := dto.NewSessionState()
	state.Code = "changed"
	require.NoError(t, svc.Save(context.Background(), "", state))

	loaded, err := svc.Load(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, dto.DefaultSessionCode, loaded.Code)
}

func TestSessionServiceDiscardsCorruptPayload(t *testing.T) {
	_, client := setupRedis(t)
	require.NoError(t, client.Set(context.Background(), "coach:session:user:9", "{not json", 0).Err())

	svc := NewSessionService(client, "coach", time.Hour, zerolog.Nop())
	loaded, err := svc.Load(context.Background(), "user:9")
	require.NoError(t, err)
	require.Equal(t, dto.DefaultSessionCode, loaded.Code)
}

func TestSessionServiceConditionalSaveOverCorruptPayload(t *testing.T) {
	_, client := setupRedis(t)
	require.NoError(t, client.Set(context.Background(), "coach:session:user:9", "{not json", 0).Err())

	svc := NewSessionService(client, "coach", time.Hour, zerolog.Nop())
	loaded, err := svc.Load(context.Background(), "user:9")
	require.NoError(t, err)
	require.NoError(t, svc.SaveIfUnchanged(context.Background(), "user:9", loaded))

	loaded, err = svc.Load(context.Background(), "user:9")
	require.NoError(t, err)
	require.EqualValues(t, 1, loaded.Revision)
}
