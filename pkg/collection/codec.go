package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/purple/pkg/core"
)

// Codec turns stored records into values of T. Decode is the only way a
// record becomes a T: missing fields get defaults and records that cannot be
// repaired are rejected.
type Codec[T any] interface {
	Decode(raw json.RawMessage) (T, error)
	ID(item T) int64
	WithID(item T, id int64) T
	Clone(item T) T
}

var errMissingID = errors.New("record has no valid id")

type noteRecord struct {
	ID       *int64  `json:"id"`
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Reminder *int64  `json:"reminder"`
	Created  *int64  `json:"created"`
	Notified *bool   `json:"notified"`
	Pinned   *bool   `json:"pinned"`
}

// NoteCodec decodes core.Note records.
type NoteCodec struct{}

// Decode builds a note from a stored record. A missing created timestamp
// falls back to the id, which was derived from the creation time.
func (NoteCodec) Decode(raw json.RawMessage) (core.Note, error) {
	var rec noteRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return core.Note{}, err
	}
	if rec.ID == nil || *rec.ID <= 0 {
		return core.Note{}, errMissingID
	}

	n := core.Note{
		ID:       *rec.ID,
		Title:    deref(rec.Title),
		Content:  deref(rec.Content),
		Created:  *rec.ID,
		Notified: deref(rec.Notified),
		Pinned:   deref(rec.Pinned),
	}
	if rec.Created != nil {
		n.Created = *rec.Created
	}
	if rec.Reminder != nil {
		r := *rec.Reminder
		n.Reminder = &r
	}
	return n, nil
}

func (NoteCodec) ID(n core.Note) int64 { return n.ID }

func (NoteCodec) WithID(n core.Note, id int64) core.Note {
	n.ID = id
	return n
}

func (NoteCodec) Clone(n core.Note) core.Note { return n.Clone() }

type taskRecord struct {
	ID           *int64  `json:"id"`
	Text         *string `json:"text"`
	Completed    *bool   `json:"completed"`
	LastModified *int64  `json:"lastModified"`
}

// TaskCodec decodes core.Task records.
type TaskCodec struct{}

// Decode builds a task from a stored record. Tasks without text are
// rejected; a missing lastModified falls back to the id.
func (TaskCodec) Decode(raw json.RawMessage) (core.Task, error) {
	var rec taskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return core.Task{}, err
	}
	if rec.ID == nil || *rec.ID <= 0 {
		return core.Task{}, errMissingID
	}
	if strings.TrimSpace(deref(rec.Text)) == "" {
		return core.Task{}, fmt.Errorf("task %d has no text", *rec.ID)
	}

	t := core.Task{
		ID:           *rec.ID,
		Text:         *rec.Text,
		Completed:    deref(rec.Completed),
		LastModified: *rec.ID,
	}
	if rec.LastModified != nil {
		t.LastModified = *rec.LastModified
	}
	return t, nil
}

func (TaskCodec) ID(t core.Task) int64 { return t.ID }

func (TaskCodec) WithID(t core.Task, id int64) core.Task {
	t.ID = id
	return t
}

func (TaskCodec) Clone(t core.Task) core.Task { return t }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

var (
	_ Codec[core.Note] = NoteCodec{}
	_ Codec[core.Task] = TaskCodec{}
)
