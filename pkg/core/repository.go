package core

import "context"

// Medium is the contract for a storage medium: a flat namespace of keys
// holding raw bytes, shareable by several independent processes.
// Adhering to this interface keeps the store independent of where the bytes
// live (a directory, memory, or anything else).
type Medium interface {
	// Get returns the bytes stored under key, or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every key currently present, including keys the
	// application does not own.
	Keys(ctx context.Context) ([]string, error)
}

// MediumEventType describes what happened to a key.
type MediumEventType string

const (
	MediumSet    MediumEventType = "SET"
	MediumRemove MediumEventType = "REMOVE"
)

// MediumEvent is a change made to the medium by someone other than the
// handle being watched.
type MediumEvent struct {
	Type  MediumEventType
	Key   string
	Value []byte // nil for MediumRemove
}

// Watchable is implemented by media that can report changes made by other
// processes (the equivalent of a browser "storage" event). Changes made
// through the watched handle itself are not reported.
type Watchable interface {
	// Watch streams foreign changes until ctx is cancelled, then closes the channel.
	Watch(ctx context.Context) (<-chan MediumEvent, error)
}

// Initializer is implemented by media that need setup before use
// (create directories, check permissions).
type Initializer interface {
	Initialize(ctx context.Context) error
}
