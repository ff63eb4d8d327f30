package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"mailsearch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerHistory(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore())

	// Unknown sessions read as empty, not as an error.
	history, err := manager.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)

	turns := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "emails from alice"},
		{Role: models.RoleAssistant, Content: "**Result 1:** ..."},
		{Role: models.RoleUser, Content: "only urgent ones"},
	}
	for _, turn := range turns {
		require.NoError(t, manager.Append(ctx, "s1", turn))
	}

	history, err = manager.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, turns, history)
}

func TestManagerAppendIsAtomicPerCall(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore())

	// A user/assistant pair appended in one call never interleaves with
	// pairs from concurrent calls.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = manager.Append(ctx, "s1",
				models.ConversationTurn{Role: models.RoleUser, Content: fmt.Sprintf("prompt %d", i)},
				models.ConversationTurn{Role: models.RoleAssistant, Content: fmt.Sprintf("reply %d", i)},
			)
		}(i)
	}
	wg.Wait()

	history, err := manager.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 40)

	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, models.RoleUser, history[i].Role)
		assert.Equal(t, models.RoleAssistant, history[i+1].Role)
		// Each pair came from the same call.
		assert.Equal(t,
			history[i].Content[len("prompt "):],
			history[i+1].Content[len("reply "):])
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore())

	require.NoError(t, manager.Append(ctx, "a",
		models.ConversationTurn{Role: models.RoleUser, Content: "session a"}))
	require.NoError(t, manager.Append(ctx, "b",
		models.ConversationTurn{Role: models.RoleUser, Content: "session b"}))
	require.NoError(t, manager.SetHandle(ctx, "a", []byte("handle-a")))

	historyA, err := manager.History(ctx, "a")
	require.NoError(t, err)
	historyB, err := manager.History(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, "session a", historyA[0].Content)
	assert.Equal(t, "session b", historyB[0].Content)

	handleB, err := manager.Handle(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, handleB)
}

func TestManagerHandleRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore())

	// Absent handle reads as nil.
	handle, err := manager.Handle(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, handle)

	require.NoError(t, manager.SetHandle(ctx, "s1", []byte(`{"turns":1}`)))
	handle, err = manager.Handle(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"turns":1}`), handle)

	// Replacement is wholesale, never a merge.
	require.NoError(t, manager.SetHandle(ctx, "s1", []byte(`{"turns":2}`)))
	handle, err = manager.Handle(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"turns":2}`), handle)
}

func TestManagerReset(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore())

	require.NoError(t, manager.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Content: "hello"}))
	require.NoError(t, manager.SetHandle(ctx, "s1", []byte("state")))

	require.NoError(t, manager.Reset(ctx, "s1"))

	// History and handle disappear together.
	history, err := manager.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	handle, err := manager.Handle(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, handle)

	// Resetting an absent session is a no-op, not an error.
	assert.NoError(t, manager.Reset(ctx, "never-existed"))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "s1", State{
		History: []models.ConversationTurn{{Role: models.RoleUser, Content: "original"}},
		Handle:  []byte("handle"),
	}))

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	state.History[0].Content = "mutated"
	state.Handle[0] = 'X'

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.History[0].Content)
	assert.Equal(t, []byte("handle"), again.Handle)
}
