package store

import (
	"context"
	"encoding/json"

	"github.com/aretw0/purple/pkg/core"
)

// Info summarizes the owned keys: collection sizes and bytes used against the
// configured quota.
func (s *Store) Info(ctx context.Context) core.StorageInfo {
	info := core.StorageInfo{MaxStorage: s.config.QuotaBytes}

	var notes, tasks []json.RawMessage
	s.Load(ctx, core.KeyNotes, &notes)
	s.Load(ctx, core.KeyTasks, &tasks)
	info.NotesCount = len(notes)
	info.TasksCount = len(tasks)

	for _, key := range core.OwnedKeys() {
		if data, err := s.medium.Get(ctx, key); err == nil {
			info.StorageUsed += int64(len(data))
		}
	}
	return info
}
