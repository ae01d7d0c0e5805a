package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/purple/pkg/core"
)

const (
	lockInitialBackoff = 5 * time.Millisecond
	lockMaxBackoff     = 50 * time.Millisecond
)

// keyedLock is a per-key advisory lock. It only serializes callers inside one
// process; other processes sharing the medium are not excluded.
type keyedLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedLock() *keyedLock {
	return &keyedLock{held: make(map[string]struct{})}
}

func (l *keyedLock) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *keyedLock) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

// acquire retries with exponential backoff until the key is free, the timeout
// elapses or ctx is done.
func (l *keyedLock) acquire(ctx context.Context, key string, timeout time.Duration) error {
	if l.tryAcquire(key) {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	backoff := lockInitialBackoff
	for {
		wait := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		case <-deadline.C:
			wait.Stop()
			return fmt.Errorf("%s after %s: %w", key, timeout, core.ErrLockTimeout)
		case <-wait.C:
		}

		if l.tryAcquire(key) {
			return nil
		}
		backoff *= 2
		if backoff > lockMaxBackoff {
			backoff = lockMaxBackoff
		}
	}
}

// acquireAll takes the locks of several keys in a fixed order. Either all are
// held on return or none.
func (l *keyedLock) acquireAll(ctx context.Context, keys []string, timeout time.Duration) (func(), error) {
	ordered := append([]string(nil), keys...)
	sort.Strings(ordered)

	var taken []string
	releaseTaken := func() {
		for i := len(taken) - 1; i >= 0; i-- {
			l.release(taken[i])
		}
	}

	for _, key := range ordered {
		if err := l.acquire(ctx, key, timeout); err != nil {
			releaseTaken()
			return nil, err
		}
		taken = append(taken, key)
	}
	return releaseTaken, nil
}

func (l *keyedLock) heldKeys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.held))
	for k := range l.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
