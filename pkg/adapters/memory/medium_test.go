package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/purple/pkg/core"
)

func TestMedium_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.Get(ctx, "notes")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, m.Set(ctx, "notes", []byte(`[]`)))
	got, err := m.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	// Returned bytes are a copy.
	got[0] = 'x'
	again, _ := m.Get(ctx, "notes")
	assert.Equal(t, `[]`, string(again))

	require.NoError(t, m.Remove(ctx, "notes"))
	require.NoError(t, m.Remove(ctx, "notes"), "removing a missing key is a no-op")

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMedium_WatchSeesOnlyOtherHandles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backing := NewBacking()
	tabA := backing.Open()
	tabB := backing.Open()

	eventsA, err := tabA.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, tabA.Set(ctx, "tasks", []byte(`[1]`)))
	require.NoError(t, tabB.Set(ctx, "tasks", []byte(`[2]`)))

	select {
	case ev := <-eventsA:
		assert.Equal(t, core.MediumSet, ev.Type)
		assert.Equal(t, "tasks", ev.Key)
		assert.Equal(t, `[2]`, string(ev.Value))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event from the other handle")
	}

	select {
	case ev := <-eventsA:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}

	require.NoError(t, tabB.Remove(ctx, "tasks"))
	ev := <-eventsA
	assert.Equal(t, core.MediumRemove, ev.Type)
	assert.Nil(t, ev.Value)
}

func TestMedium_WatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New()
	events, err := m.Watch(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel was not closed")
	}
}

func TestBacking_FailWrites(t *testing.T) {
	ctx := context.Background()
	backing := NewBacking()
	m := backing.Open()

	quota := errors.New("quota exceeded")
	backing.FailWrites(quota)
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("1")), quota)
	assert.ErrorIs(t, m.Remove(ctx, "k"), quota)

	backing.FailWrites(nil)
	assert.NoError(t, m.Set(ctx, "k", []byte("1")))
}
