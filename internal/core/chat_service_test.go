package core

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthsync.ai/companion/internal/store"
)

func TestChatService_Lifecycle(t *testing.T) {
	gw := &fakeGateway{results: []fakeResult{reply("drink water")}}
	svc := NewChatService(gw)
	ctx := context.Background()

	chat := svc.CreateChat()
	_, err := uuid.Parse(chat.ID)
	require.NoError(t, err)

	got, err := svc.PostMessage(ctx, chat.ID, "tips?")
	require.NoError(t, err)
	assert.Equal(t, "drink water", got)

	details, err := svc.GetChatDetails(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, details.ID)
	assert.Len(t, details.History, 2)
	assert.Equal(t, "drink water", details.LastReply)

	require.NoError(t, svc.DeleteChat(chat.ID))
	_, err = svc.GetChatDetails(chat.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.ErrorIs(t, svc.DeleteChat(chat.ID), ErrChatNotFound)
}

func TestChatService_Errors(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewChatService(gw)
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, "missing", "hi")
	assert.ErrorIs(t, err, ErrChatNotFound)

	chat := svc.CreateChat()
	_, err = svc.PostMessage(ctx, chat.ID, "   ")
	assert.ErrorIs(t, err, ErrBlankMessage)
	assert.Equal(t, 0, gw.calls())
}

func TestChatService_SessionsAreIndependent(t *testing.T) {
	svc := NewChatService(&fakeGateway{})
	ctx := context.Background()

	a := svc.CreateChat()
	b := svc.CreateChat()
	require.NotEqual(t, a.ID, b.ID)

	_, err := svc.PostMessage(ctx, a.ID, "one")
	require.NoError(t, err)

	sa, _ := svc.Session(a.ID)
	sb, _ := svc.Session(b.ID)
	assert.Len(t, sa.History(), 2)
	assert.Empty(t, sb.History())
}

func TestStartScreen(t *testing.T) {
	tests := []struct {
		flags store.OnboardingFlags
		want  Screen
	}{
		{store.OnboardingFlags{}, ScreenOnboarding},
		{store.OnboardingFlags{OnboardingCompleted: true}, ScreenSignUp},
		{store.OnboardingFlags{UserSignedIn: true}, ScreenMain},
		{store.OnboardingFlags{OnboardingCompleted: true, UserSignedIn: true}, ScreenMain},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StartScreen(tt.flags), "%+v", tt.flags)
	}
}
