package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/purple/pkg/adapters/memory"
	"github.com/aretw0/purple/pkg/bus"
	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/store"
)

func receive(t *testing.T, ch <-chan core.ChangeEvent) core.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return core.ChangeEvent{}
	}
}

func TestBus_SubscribePattern(t *testing.T) {
	b := bus.New(bus.Config{})
	defer b.Close()

	all, cancelAll, err := b.Subscribe("*")
	require.NoError(t, err)
	defer cancelAll()
	tasks, cancelTasks, err := b.Subscribe(core.KeyTasks)
	require.NoError(t, err)
	defer cancelTasks()

	b.Publish(core.ChangeEvent{Key: core.KeyNotes, Origin: "me"})
	b.Publish(core.ChangeEvent{Key: core.KeyTasks, Origin: "me"})

	assert.Equal(t, core.KeyNotes, receive(t, all).Key)
	assert.Equal(t, core.KeyTasks, receive(t, all).Key)
	assert.Equal(t, core.KeyTasks, receive(t, tasks).Key)

	_, _, err = b.Subscribe("[")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestBus_DropsWhenSubscriberIsFull(t *testing.T) {
	b := bus.New(bus.Config{Buffer: 1})
	defer b.Close()

	ch, cancel, err := b.Subscribe("*")
	require.NoError(t, err)
	defer cancel()

	b.Publish(core.ChangeEvent{Key: core.KeyNotes})
	b.Publish(core.ChangeEvent{Key: core.KeyTasks})

	assert.Equal(t, core.KeyNotes, receive(t, ch).Key)
	state := b.State().(bus.BusState)
	assert.Equal(t, uint64(2), state.Published)
	assert.Equal(t, uint64(1), state.Dropped)
}

func TestBus_CancelClosesChannel(t *testing.T) {
	b := bus.New(bus.Config{})
	ch, cancel, err := b.Subscribe("*")
	require.NoError(t, err)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	b.Close()
	b.Publish(core.ChangeEvent{Key: core.KeyNotes})
	_, _, err = b.Subscribe("*")
	assert.Error(t, err)
}

func TestBus_CrossTab(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backing := memory.NewBacking()
	tabA, tabB := backing.Open(), backing.Open()

	busA := bus.New(bus.Config{})
	defer busA.Close()
	require.NoError(t, busA.Start(ctx, tabA))

	storeA := store.New(tabA, store.Config{Publisher: busA})
	storeB := store.New(tabB, store.Config{})

	events, unsubscribe, err := busA.Subscribe("*")
	require.NoError(t, err)
	defer unsubscribe()

	// A write in tab A reaches A's subscribers once, as a self-published event.
	require.NoError(t, storeA.Save(ctx, core.KeyTasks, []core.Task{}))
	ev := receive(t, events)
	assert.Equal(t, storeA.Origin(), ev.Origin)
	assert.False(t, ev.External())

	// A write in tab B arrives through the medium watch.
	require.NoError(t, storeB.Save(ctx, core.KeyNotes, []core.Note{{ID: 1, Title: "x"}}))
	ev = receive(t, events)
	assert.Equal(t, core.KeyNotes, ev.Key)
	assert.True(t, ev.External())
	assert.JSONEq(t, `[{"id":1,"title":"x","content":"","reminder":null,"created":0,"notified":false,"pinned":false}]`, string(ev.NewValue))

	// Keys the application does not own are filtered out; removals carry no value.
	require.NoError(t, tabB.Set(ctx, "unrelated", []byte(`1`)))
	require.NoError(t, tabB.Remove(ctx, core.KeyNotes))
	ev = receive(t, events)
	assert.Equal(t, core.KeyNotes, ev.Key)
	assert.Nil(t, ev.NewValue)

	// Invalid JSON from elsewhere is passed on without a payload.
	require.NoError(t, tabB.Set(ctx, core.KeyTasks, []byte(`{broken`)))
	ev = receive(t, events)
	assert.Equal(t, core.KeyTasks, ev.Key)
	assert.Nil(t, ev.NewValue)

	assert.Error(t, busA.Start(ctx, tabA))
}

func TestBus_StopAllowsRestart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backing := memory.NewBacking()
	tabA, tabB := backing.Open(), backing.Open()

	b := bus.New(bus.Config{})
	defer b.Close()
	events, unsubscribe, err := b.Subscribe("*")
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, b.Start(ctx, tabA))
	b.Stop()
	assert.False(t, b.State().(bus.BusState).Watching)

	require.NoError(t, tabB.Set(ctx, core.KeyTasks, []byte(`[]`)))
	select {
	case ev := <-events:
		t.Fatalf("stopped bus delivered %v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, b.Start(ctx, tabA))
	require.NoError(t, tabB.Set(ctx, core.KeyNotes, []byte(`[]`)))
	ev := receive(t, events)
	assert.Equal(t, core.KeyNotes, ev.Key)
}
