package collection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/store"
)

// CompletionHook is called after a task has been marked completed and saved.
// It is where a client plays its completion effect.
type CompletionHook func(task core.Task)

// TaskRepository is the ordered task checklist.
type TaskRepository struct {
	*Collection[core.Task]

	mu    sync.RWMutex
	hooks []CompletionHook
}

// NewTaskRepository creates the tasks collection over s.
func NewTaskRepository(s *store.Store, config Config) *TaskRepository {
	return &TaskRepository{Collection: New[core.Task](s, core.KeyTasks, TaskCodec{}, config)}
}

// OnComplete registers a hook called whenever ToggleComplete completes a task.
func (r *TaskRepository) OnComplete(hook CompletionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Create appends a new, uncompleted task.
func (r *TaskRepository) Create(ctx context.Context, text string) (core.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Task{}, fmt.Errorf("empty task text: %w", core.ErrInvalidArgument)
	}
	return r.Add(ctx, core.Task{Text: text, LastModified: r.now()})
}

// ToggleComplete flips the completed flag and returns the new value. The
// completion hooks run when the task becomes completed.
func (r *TaskRepository) ToggleComplete(ctx context.Context, id int64) (bool, error) {
	task, err := r.Update(ctx, id, func(t core.Task) (core.Task, error) {
		t.Completed = !t.Completed
		t.LastModified = r.now()
		return t, nil
	})
	if err != nil {
		return false, err
	}

	if task.Completed {
		r.mu.RLock()
		hooks := append([]CompletionHook(nil), r.hooks...)
		r.mu.RUnlock()
		for _, hook := range hooks {
			hook(task)
		}
	}
	return task.Completed, nil
}

// Edit replaces the text of a task.
func (r *TaskRepository) Edit(ctx context.Context, id int64, text string) (core.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Task{}, fmt.Errorf("empty task text: %w", core.ErrInvalidArgument)
	}
	return r.Update(ctx, id, func(t core.Task) (core.Task, error) {
		t.Text = text
		t.LastModified = r.now()
		return t, nil
	})
}

// ClearCompleted removes the completed tasks and returns how many were removed.
func (r *TaskRepository) ClearCompleted(ctx context.Context) (int, error) {
	removed := 0
	err := r.Mutate(ctx, func(tasks []core.Task) ([]core.Task, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Completed {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearAll removes every task.
func (r *TaskRepository) ClearAll(ctx context.Context) error {
	return r.Clear(ctx)
}

func (r *TaskRepository) now() int64 {
	return r.clock.Now().UnixMilli()
}

// Merge reconciles a local task list with a fresher remote one. For tasks in
// both, the one with the later LastModified wins (local on a tie). The order
// follows remote; tasks only known locally are appended in their local order.
func Merge(local, remote []core.Task) []core.Task {
	byID := make(map[int64]core.Task, len(local))
	for _, t := range local {
		byID[t.ID] = t
	}

	merged := make([]core.Task, 0, len(remote)+len(local))
	seen := make(map[int64]bool, len(remote))
	for _, rt := range remote {
		seen[rt.ID] = true
		if lt, ok := byID[rt.ID]; ok && lt.LastModified >= rt.LastModified {
			merged = append(merged, lt)
			continue
		}
		merged = append(merged, rt)
	}
	for _, lt := range local {
		if !seen[lt.ID] {
			merged = append(merged, lt)
		}
	}
	return merged
}
