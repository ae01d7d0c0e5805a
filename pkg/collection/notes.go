package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/store"
)

// errUnchanged aborts an update that would not change anything.
var errUnchanged = errors.New("unchanged")

// NewNote holds the user-provided fields of a note.
type NewNote struct {
	Title    string
	Content  string
	Reminder *int64
}

// NoteRepository is the collection of notes.
type NoteRepository struct {
	*Collection[core.Note]
}

// NewNoteRepository creates the notes collection over s.
func NewNoteRepository(s *store.Store, config Config) *NoteRepository {
	return &NoteRepository{Collection: New[core.Note](s, core.KeyNotes, NoteCodec{}, config)}
}

// Create stores a new note stamped with the current time.
func (r *NoteRepository) Create(ctx context.Context, in NewNote) (core.Note, error) {
	n := core.Note{
		Title:   in.Title,
		Content: in.Content,
		Created: r.clock.Now().UnixMilli(),
	}
	if in.Reminder != nil {
		at := *in.Reminder
		n.Reminder = &at
	}

	created, err := r.Add(ctx, n)
	if err != nil {
		return core.Note{}, err
	}
	r.logger.Debug("note created", "id", created.ID, "reminder", created.HasReminder())
	return created, nil
}

// Get returns the note with id.
func (r *NoteRepository) Get(ctx context.Context, id int64) (core.Note, error) {
	for _, n := range r.All(ctx) {
		if n.ID == id {
			return n, nil
		}
	}
	return core.Note{}, fmt.Errorf("note %d: %w", id, core.ErrNotFound)
}

// Sorted returns every note in display order.
func (r *NoteRepository) Sorted(ctx context.Context) []core.Note {
	return Sort(r.All(ctx))
}

// Delete removes an unpinned note. Pinned notes are kept and
// core.ErrPinned is returned; unknown ids are ignored.
func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	return r.Mutate(ctx, func(notes []core.Note) ([]core.Note, error) {
		kept := notes[:0]
		for _, n := range notes {
			if n.ID != id {
				kept = append(kept, n)
				continue
			}
			if n.Pinned {
				return nil, fmt.Errorf("note %d: %w", id, core.ErrPinned)
			}
		}
		return kept, nil
	})
}

// TogglePin flips the pinned flag and returns its new value.
func (r *NoteRepository) TogglePin(ctx context.Context, id int64) (bool, error) {
	n, err := r.Update(ctx, id, func(n core.Note) (core.Note, error) {
		n.Pinned = !n.Pinned
		return n, nil
	})
	return n.Pinned, err
}

// MarkNotified sets the notified flag. Marking an already notified note
// succeeds without writing.
func (r *NoteRepository) MarkNotified(ctx context.Context, id int64) error {
	_, err := r.Update(ctx, id, func(n core.Note) (core.Note, error) {
		if n.Notified {
			return n, errUnchanged
		}
		n.Notified = true
		return n, nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// ClearAll removes every note, pinned ones included.
func (r *NoteRepository) ClearAll(ctx context.Context) error {
	return r.Clear(ctx)
}

// Due returns the notes whose reminder has passed and that were not
// notified yet.
func (r *NoteRepository) Due(ctx context.Context, now int64) []core.Note {
	var due []core.Note
	for _, n := range r.All(ctx) {
		if n.IsDue(now) {
			due = append(due, n)
		}
	}
	return due
}

// Sort returns notes in display order: pinned first, then newest first.
// The input is not modified.
func Sort(notes []core.Note) []core.Note {
	sorted := make([]core.Note, len(notes))
	for i, n := range notes {
		sorted[i] = n.Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pinned != sorted[j].Pinned {
			return sorted[i].Pinned
		}
		return sorted[i].Created > sorted[j].Created
	})
	return sorted
}
