package collection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/purple/pkg/collection"
	"github.com/aretw0/purple/pkg/core"
)

func TestTasks_ToggleComplete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	var completed []core.Task
	f.tasks.OnComplete(func(task core.Task) { completed = append(completed, task) })

	task, err := f.tasks.Create(ctx, "write tests")
	require.NoError(t, err)

	f.clock.Add(time.Second)
	done, err := f.tasks.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, completed, 1)
	assert.Equal(t, task.ID, completed[0].ID)
	assert.Equal(t, f.clock.Now().UnixMilli(), completed[0].LastModified)

	done, err = f.tasks.ToggleComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Len(t, completed, 1, "hook only fires on completion")

	_, err = f.tasks.ToggleComplete(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTasks_EditAndClearCompleted(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	a, _ := f.tasks.Create(ctx, "a")
	b, _ := f.tasks.Create(ctx, "b")
	_, _ = f.tasks.Create(ctx, "c")

	edited, err := f.tasks.Edit(ctx, b.ID, "bee")
	require.NoError(t, err)
	assert.Equal(t, "bee", edited.Text)
	_, err = f.tasks.Edit(ctx, b.ID, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.tasks.ToggleComplete(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.tasks.ToggleComplete(ctx, b.ID)
	require.NoError(t, err)

	removed, err := f.tasks.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"c"}, taskTexts(f.tasks.All(ctx)))

	require.NoError(t, f.tasks.ClearAll(ctx))
	assert.Empty(t, f.tasks.All(ctx))
}

func TestMerge(t *testing.T) {
	local := []core.Task{
		{ID: 1, Text: "local newer", LastModified: 20},
		{ID: 2, Text: "local older", LastModified: 5},
		{ID: 3, Text: "tie local", LastModified: 7},
		{ID: 4, Text: "local only", LastModified: 1},
	}
	remote := []core.Task{
		{ID: 3, Text: "tie remote", LastModified: 7},
		{ID: 2, Text: "remote newer", LastModified: 9},
		{ID: 5, Text: "remote only", LastModified: 2},
		{ID: 1, Text: "remote older", LastModified: 10},
	}

	merged := collection.Merge(local, remote)

	assert.Equal(t, []string{"tie local", "remote newer", "remote only", "local newer", "local only"}, taskTexts(merged))
}

func TestTasks_UpdateKeepsLegacyDefaults(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	m := f.store.Medium()

	require.NoError(t, m.Set(ctx, core.KeyTasks, []byte(`[
		{"id":42,"text":"legacy","extra":true},
		{"id":43}
	]`)))

	task, err := f.tasks.Edit(ctx, 42, "renamed")
	require.NoError(t, err)
	assert.Equal(t, core.Task{ID: 42, Text: "renamed", LastModified: f.clock.Now().UnixMilli()}, task)

	completed, err := f.tasks.ToggleComplete(ctx, 42)
	require.NoError(t, err)
	assert.True(t, completed)

	raw, err := m.Get(ctx, core.KeyTasks)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "extra", "the updated record is written in canonical form")
	assert.Contains(t, string(raw), `{"id":43}`, "other records are left untouched")

	_, err = f.tasks.Edit(ctx, 43, "text")
	assert.ErrorIs(t, err, core.ErrStorageReadCorrupt)
}
