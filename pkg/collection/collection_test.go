package collection_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/purple/pkg/adapters/memory"
	"github.com/aretw0/purple/pkg/collection"
	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/store"
)

type fixture struct {
	store *store.Store
	clock clock.FakeClock
	notes *collection.NoteRepository
	tasks *collection.TaskRepository
}

func setup(t *testing.T) fixture {
	t.Helper()

	clk := clock.NewFake()
	clk.Set(time.UnixMilli(1_700_000_000_000))

	s := store.New(memory.New(), store.Config{Clock: clk})
	require.NoError(t, s.Initialize(context.Background()))

	cfg := collection.Config{Clock: clk, IDs: collection.NewIDSource(clk)}
	return fixture{
		store: s,
		clock: clk,
		notes: collection.NewNoteRepository(s, cfg),
		tasks: collection.NewTaskRepository(s, cfg),
	}
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

func taskTexts(tasks []core.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

func TestIDSource_Monotonic(t *testing.T) {
	clk := clock.NewFake()
	clk.Set(time.UnixMilli(1000))
	src := collection.NewIDSource(clk)

	assert.Equal(t, int64(1000), src.Next(0))
	assert.Equal(t, int64(1001), src.Next(0), "same millisecond")
	assert.Equal(t, int64(5001), src.Next(5000), "existing ids ahead of the clock")

	clk.Set(time.UnixMilli(9000))
	assert.Equal(t, int64(9000), src.Next(5001))
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tasks := []core.Task{
		{ID: 3, Text: "c", LastModified: 3},
		{ID: 1, Text: "a", Completed: true, LastModified: 1},
	}
	require.NoError(t, f.tasks.Save(ctx, tasks))
	assert.Equal(t, tasks, f.tasks.All(ctx))

	reminder := int64(2_000)
	notes := []core.Note{{ID: 1, Title: "t", Content: "c", Reminder: &reminder, Created: 1_000, Pinned: true}}
	require.NoError(t, f.notes.Save(ctx, notes))
	got := f.notes.All(ctx)
	assert.Equal(t, notes, got)

	// Values handed out do not alias the stored representation.
	*got[0].Reminder = 9
	assert.Equal(t, int64(2_000), *f.notes.All(ctx)[0].Reminder)
}

func TestCollection_MalformedRecords(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	m := f.store.Medium()

	require.NoError(t, m.Set(ctx, core.KeyTasks, []byte(`[
		{"id":1,"text":"ok"},
		{"text":"no id"},
		{"id":2},
		"not an object",
		null,
		{"id":3,"text":"done","completed":true,"lastModified":7,"extra":"dropped"}
	]`)))

	tasks := f.tasks.All(ctx)
	assert.Equal(t, []core.Task{
		{ID: 1, Text: "ok", LastModified: 1},
		{ID: 3, Text: "done", Completed: true, LastModified: 7},
	}, tasks)

	require.NoError(t, f.tasks.Save(ctx, tasks))
	raw, err := m.Get(ctx, core.KeyTasks)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "extra")
}

func TestCollection_CorruptData(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.store.Medium().Set(ctx, core.KeyNotes, []byte(`{{{ not json`)))
	notes := f.notes.All(ctx)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)

	require.NoError(t, f.store.Medium().Set(ctx, core.KeyNotes, []byte(`{"id":1}`)))
	assert.Empty(t, f.notes.All(ctx))
}

func TestCollection_AddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// The clock does not move: ids must still differ.
	a, err := f.tasks.Create(ctx, "a")
	require.NoError(t, err)
	b, err := f.tasks.Create(ctx, "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Greater(t, b.ID, a.ID)

	_, err = f.tasks.Add(ctx, core.Task{ID: a.ID, Text: "dup"})
	assert.ErrorIs(t, err, core.ErrDuplicateID)

	_, err = f.tasks.Create(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestCollection_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tasks.Create(ctx, "task")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks := f.tasks.All(ctx)
	require.Len(t, tasks, 10)
	seen := map[int64]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		seen[task.ID] = true
	}
}

func TestCollection_Reorder(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := f.tasks.Create(ctx, text)
		require.NoError(t, err)
	}

	require.NoError(t, f.tasks.Reorder(ctx, 0, 2))
	assert.Equal(t, []string{"b", "c", "a", "d"}, taskTexts(f.tasks.All(ctx)))

	require.NoError(t, f.tasks.Reorder(ctx, 3, 0))
	assert.Equal(t, []string{"d", "b", "c", "a"}, taskTexts(f.tasks.All(ctx)))

	for _, idx := range [][2]int{{-1, 0}, {0, 4}, {4, 0}, {0, -1}} {
		err := f.tasks.Reorder(ctx, idx[0], idx[1])
		assert.ErrorIs(t, err, core.ErrInvalidArgument, "%v", idx)
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, taskTexts(f.tasks.All(ctx)))
}

func TestCollection_DeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	task, err := f.tasks.Create(ctx, "keep")
	require.NoError(t, err)

	require.NoError(t, f.tasks.Delete(ctx, 424242))
	assert.Len(t, f.tasks.All(ctx), 1)

	require.NoError(t, f.tasks.Delete(ctx, task.ID))
	assert.Empty(t, f.tasks.All(ctx))
}
