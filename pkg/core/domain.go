// Package core holds the domain of purple: notes, tasks, the theme preference,
// change events and the contracts the storage adapters implement.
package core

import (
	"encoding/json"
	"fmt"
)

// Storage keys owned by the application. Nothing else in a medium is ever
// touched by ClearAll.
const (
	KeyNotes = "notes"
	KeyTasks = "tasks"
	KeyTheme = "theme"
)

// OwnedKeys returns the enumerated set of keys the application owns.
func OwnedKeys() []string {
	return []string{KeyNotes, KeyTasks, KeyTheme}
}

// IsOwnedKey reports whether key belongs to the application.
func IsOwnedKey(key string) bool {
	switch key {
	case KeyNotes, KeyTasks, KeyTheme:
		return true
	}
	return false
}

// Note is a free-form note with an optional reminder.
//
// Reminder and Created are epoch milliseconds. A nil Reminder means the note
// has no reminder. Notified only ever goes from false to true.
type Note struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Reminder *int64 `json:"reminder"`
	Created  int64  `json:"created"`
	Notified bool   `json:"notified"`
	Pinned   bool   `json:"pinned"`
}

// HasReminder reports whether a reminder is set.
func (n Note) HasReminder() bool {
	return n.Reminder != nil
}

// ReminderAt returns the reminder timestamp, or zero if none is set.
func (n Note) ReminderAt() int64 {
	if n.Reminder == nil {
		return 0
	}
	return *n.Reminder
}

// IsDue reports whether the reminder has passed and no notification was
// raised yet.
func (n Note) IsDue(now int64) bool {
	return n.Reminder != nil && !n.Notified && now >= *n.Reminder
}

// Clone returns a copy that shares no memory with n.
func (n Note) Clone() Note {
	if n.Reminder != nil {
		r := *n.Reminder
		n.Reminder = &r
	}
	return n
}

// Task is a checklist item. Its order is its position in the persisted list.
type Task struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	Completed    bool   `json:"completed"`
	LastModified int64  `json:"lastModified"`
}

// Theme is the persisted UI theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme. Unknown themes toggle to dark, as if
// they were light.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// OriginExternal marks change events that came from another process.
const OriginExternal = "external"

// ChangeEvent is published on the change bus whenever an owned key changes.
// NewValue is the raw JSON of the new value, or nil when the key was removed
// or its content could not be parsed. Consumers treat it as a refresh trigger
// and reload from the store.
type ChangeEvent struct {
	Key       string          `json:"key"`
	NewValue  json.RawMessage `json:"newValue"`
	Origin    string          `json:"origin"`
	Timestamp int64           `json:"timestamp"`
}

// External reports whether the change was made by another process.
func (e ChangeEvent) External() bool {
	return e.Origin == OriginExternal
}

func (e ChangeEvent) String() string {
	if e.NewValue == nil {
		return fmt.Sprintf("%s removed (%s)", e.Key, e.Origin)
	}
	return fmt.Sprintf("%s changed (%s)", e.Key, e.Origin)
}

// StorageInfo summarizes what the application keeps in its medium.
type StorageInfo struct {
	NotesCount  int   `json:"notesCount" yaml:"notesCount"`
	TasksCount  int   `json:"tasksCount" yaml:"tasksCount"`
	StorageUsed int64 `json:"storageUsed" yaml:"storageUsed"`
	MaxStorage  int64 `json:"maxStorage" yaml:"maxStorage"`
}
