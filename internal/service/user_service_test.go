package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestLifecycle(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")
	env.db.addUser(2, "bob")

	require.ErrorIs(t, env.users.SendFriendRequest(1, 1), ErrInvalid)
	require.ErrorIs(t, env.users.SendFriendRequest(1, 99), ErrNotFound)

	require.NoError(t, env.users.SendFriendRequest(1, 2))
	require.ErrorIs(t, env.users.SendFriendRequest(1, 2), ErrConflict)
	// The reverse direction is also blocked while a request is pending.
	require.ErrorIs(t, env.users.SendFriendRequest(2, 1), ErrConflict)

	incoming, err := env.users.ListIncomingRequests(2)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, uint(1), incoming[0].FromID)

	outgoing, err := env.users.ListOutgoingRequests(1)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)

	require.NoError(t, env.users.AcceptFriendRequest(2, 1))
	friends, err := env.users.ListFriends(1)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, uint(2), friends[0].ID)

	// The request pair is consumed by acceptance.
	require.ErrorIs(t, env.users.AcceptFriendRequest(2, 1), ErrNotFound)
	require.ErrorIs(t, env.users.SendFriendRequest(1, 2), ErrConflict)
}

func TestDeclineAndCancelFriendRequest(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")
	env.db.addUser(2, "bob")

	require.NoError(t, env.users.SendFriendRequest(1, 2))
	require.NoError(t, env.users.DeclineFriendRequest(2, 1))
	require.ErrorIs(t, env.users.DeclineFriendRequest(2, 1), ErrNotFound)

	require.NoError(t, env.users.SendFriendRequest(1, 2))
	require.NoError(t, env.users.CancelFriendRequest(1, 2))
	require.ErrorIs(t, env.users.CancelFriendRequest(1, 2), ErrNotFound)

	friends, err := env.users.ListFriends(2)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestRemoveFriend_DeletesPrivateChat(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")
	env.db.addUser(2, "bob")

	require.NoError(t, env.users.SendFriendRequest(1, 2))
	require.NoError(t, env.users.AcceptFriendRequest(2, 1))

	chat, err := env.chats.ResolvePrivateChat(1, 2)
	require.NoError(t, err)
	_, _, err = env.messages.SendMessage(testCtx(), 1, SendMessageInput{ChatID: &chat.ID, Text: "hey"})
	require.NoError(t, err)

	require.NoError(t, env.users.RemoveFriend(1, 2))
	require.ErrorIs(t, env.users.RemoveFriend(1, 2), ErrNotFound)

	_, ok := env.db.chats[chat.ID]
	assert.False(t, ok, "private chat should be gone")
	for _, msg := range env.db.messages {
		assert.NotEqual(t, chat.ID, msg.ChatID, "chat history should be gone")
	}

	// A fresh chat can be opened afterwards.
	fresh, err := env.chats.ResolvePrivateChat(1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, chat.ID, fresh.ID)
}

func TestRemoveFriend_NoChatYet(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")
	env.db.addUser(2, "bob")

	require.NoError(t, env.users.SendFriendRequest(1, 2))
	require.NoError(t, env.users.AcceptFriendRequest(2, 1))
	require.NoError(t, env.users.RemoveFriend(1, 2))
}

func TestSetUserOffline(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")

	lastSeen, err := env.users.SetUserOffline(1)
	require.NoError(t, err)
	require.NotNil(t, env.db.users[1].LastSeen)
	assert.Equal(t, lastSeen, *env.db.users[1].LastSeen)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv()
	env.db.addUser(1, "alice")

	require.NoError(t, env.users.DeleteAccount(1))
	require.ErrorIs(t, env.users.DeleteAccount(1), ErrNotFound)
	_, err := env.users.GetUser(1)
	require.ErrorIs(t, err, ErrNotFound)
}
