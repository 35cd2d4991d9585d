package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "agrifin/pkg/platform/audit"
)

func actions(events []audit.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, e := range []audit.Event{
		{Action: "a", RequestID: "r1"},
		{Action: "b", RequestID: "r2"},
		{Action: "c", RequestID: "r1"},
	} {
		require.NoError(t, store.Append(ctx, e))
	}

	byReq, err := store.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, actions(byReq))

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, actions(recent))

	recent, err = store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	recent, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.Equal(t, 3, store.Len())
}

func TestInMemoryStoreDropsOldestBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(WithMaxEvents(3))

	for i := range 8 {
		require.NoError(t, store.Append(ctx, audit.Event{
			Action:    fmt.Sprintf("e%d", i),
			RequestID: fmt.Sprintf("r%d", i%2),
		}))
		assert.LessOrEqual(t, store.Len(), 3)
	}
	assert.Equal(t, 3, store.Len())

	all, err := store.ListRecent(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"e5", "e6", "e7"}, actions(all))

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e6", "e7"}, actions(recent))

	byReq, err := store.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e5", "e7"}, actions(byReq))
}

func TestInMemoryStoreExactlyFull(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(WithMaxEvents(2))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "a"}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: "b"}))

	all, err := store.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, actions(all))
}

func TestInMemoryStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(WithMaxEvents(50))

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, audit.Event{Action: fmt.Sprintf("e%d", i)})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
