package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/purple/pkg/core"
)

type idProbe struct {
	ID *int64 `json:"id"`
}

// UpdateEntity loads the collection under key, applies fn to the record whose
// id matches and writes the collection back, all under the key's lock. Other
// records are written back untouched. A missing id yields core.ErrNotFound
// and nothing is written; an error from fn aborts the update likewise.
func UpdateEntity[T any](ctx context.Context, s *Store, key string, id int64, fn func(T) (T, error)) (T, error) {
	return UpdateEntityWith(ctx, s, key, id, decodeJSON[T], fn)
}

// UpdateEntityWith is UpdateEntity with a custom decoder for the matching
// record, so defaults for missing fields are applied before fn sees it and
// are persisted with the update.
func UpdateEntityWith[T any](ctx context.Context, s *Store, key string, id int64, decode func(json.RawMessage) (T, error), fn func(T) (T, error)) (T, error) {
	var updated T
	err := s.WithLock(ctx, key, func(l *Locked) error {
		var records []json.RawMessage
		l.Load(ctx, &records)

		for i, raw := range records {
			var probe idProbe
			if json.Unmarshal(raw, &probe) != nil || probe.ID == nil || *probe.ID != id {
				continue
			}

			current, err := decode(raw)
			if err != nil {
				return fmt.Errorf("%s record %d: %w: %v", key, id, core.ErrStorageReadCorrupt, err)
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			encoded, err := json.Marshal(next)
			if err != nil {
				return &core.StorageWriteError{Key: key, Err: err}
			}

			records[i] = encoded
			if err := l.Save(ctx, records); err != nil {
				return err
			}
			updated = next
			return nil
		}
		return fmt.Errorf("%s record %d: %w", key, id, core.ErrNotFound)
	})
	return updated, err
}

func decodeJSON[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
