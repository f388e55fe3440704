package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rosterd/pkg/domain"
)

func TestSyncEmitFillsIdentity(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	err := p.Emit(context.Background(), Event{
		ActorID:  "operator-1",
		PersonID: 42,
		Action:   ActionSanityRepair,
		Reason:   "position sanity checker repair - green-dot",
		Details:  []string{"added Dirt Green Dot"},
	})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, id.PersonID(42), events[0].PersonID)
}

func TestEmitKeepsCallerIdentity(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	eventID := uuid.New()
	stamp := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	err := p.Emit(context.Background(), Event{
		ID:        eventID,
		Timestamp: stamp,
		PersonID:  42,
		Action:    ActionSanityRepair,
	})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	assert.Equal(t, eventID, events[0].ID)
	assert.Equal(t, stamp, events[0].Timestamp)
}

func TestAsyncBufferFlushesOnClose(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(16), WithLogger(slog.New(slog.DiscardHandler)))

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{
			PersonID: id.PersonID(i + 1),
			Action:   ActionSanityRepair,
		}))
	}
	p.Close()

	assert.Len(t, store.All(), 5)
}

func TestListByPersonFilters(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{PersonID: 1, Action: ActionSanityRepair}))
	require.NoError(t, p.Emit(ctx, Event{PersonID: 2, Action: ActionSanityRepair}))
	require.NoError(t, p.Emit(ctx, Event{PersonID: 1, Action: ActionSanityRepair}))

	events, err := store.ListByPerson(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.ListByPerson(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListRecentOrdersAndLimits(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Event{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			PersonID:  id.PersonID(i + 1),
			Action:    ActionSanityRepair,
		}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, id.PersonID(3), events[0].PersonID)
	assert.Equal(t, id.PersonID(2), events[1].PersonID)
}
