package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"rag-chat/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UnknownUserHasEmptyHistory(t *testing.T) {
	store := NewMemoryConversationStore()

	turns, err := store.History(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestMemoryStore_AppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore()

	require.NoError(t, store.Append(ctx, "u1", entities.UserTurn("hi"), entities.AssistantTurn("hello")))
	require.NoError(t, store.Append(ctx, "u1", entities.UserTurn("again")))
	require.NoError(t, store.Append(ctx, "u2", entities.UserTurn("other user")))

	turns, err := store.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []entities.ChatTurn{
		entities.UserTurn("hi"),
		entities.AssistantTurn("hello"),
		entities.UserTurn("again"),
	}, turns)
}

func TestMemoryStore_RecentHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore()
	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(ctx, "u1", entities.UserTurn(fmt.Sprint(i))))
	}

	recent, err := store.RecentHistory(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, []entities.ChatTurn{entities.UserTurn("4"), entities.UserTurn("5")}, recent)

	all, err := store.RecentHistory(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	none, err := store.RecentHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore()
	require.NoError(t, store.Append(ctx, "u1", entities.UserTurn("original")))

	turns, err := store.History(ctx, "u1")
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := store.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryConversationStore()

	assert.ErrorIs(t, store.Append(ctx, "u1", entities.UserTurn("x")), context.Canceled)
	_, err := store.History(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ConcurrentAppendsKeepPairsTogether(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("q%d", i)
			_ = store.Append(ctx, "shared", entities.UserTurn(msg), entities.AssistantTurn("a"+msg))
		}(i)
	}
	wg.Wait()

	turns, err := store.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, turns, 2*n)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, entities.RoleUser, turns[i].Role)
		assert.Equal(t, entities.RoleAssistant, turns[i+1].Role)
		assert.Equal(t, "a"+turns[i].Content, turns[i+1].Content)
	}
}
