package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/purple/pkg/adapters/lifecycle"
	"github.com/aretw0/purple/pkg/core"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	ctx := context.Background()
	in := make(chan core.ChangeEvent, 1)

	src := lifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.ChangeEvent{Key: core.KeyTasks, Origin: core.OriginExternal}
	select {
	case ev := <-src.Events():
		assert.Equal(t, "tasks removed (external)", ev.String())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("source did not close")
	}
}

func TestSource_ExternalOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan core.ChangeEvent, 2)

	src := lifecycle.NewSource(in, lifecycle.WithExternalOnly())
	require.NoError(t, src.Start(ctx))

	in <- core.ChangeEvent{Key: core.KeyNotes, Origin: "local-store", NewValue: []byte(`[]`)}
	in <- core.ChangeEvent{Key: core.KeyTasks, Origin: core.OriginExternal, NewValue: []byte(`[]`)}

	select {
	case ev := <-src.Events():
		assert.Equal(t, "tasks changed (external)", ev.String())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
