// Package lifecycle exposes bus subscriptions as lifecycle event sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/purple/pkg/core"
)

// SourceOption configures a change source.
type SourceOption func(*changeSource)

// WithExternalOnly drops the changes this process published itself, leaving
// only those made by other processes.
func WithExternalOnly() SourceOption {
	return func(s *changeSource) {
		s.keep = core.ChangeEvent.External
	}
}

type changeSource struct {
	events <-chan core.ChangeEvent
	out    chan lifecycle.Event
	keep   func(core.ChangeEvent) bool
}

// NewSource creates a lifecycle.Source emitting the change events read from
// events, typically a bus subscription. The source closes when events does.
func NewSource(events <-chan core.ChangeEvent, opts ...SourceOption) lifecycle.Source {
	s := &changeSource{
		events: events,
		out:    make(chan lifecycle.Event),
		keep:   func(core.ChangeEvent) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *changeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.keep(ev) {
					continue
				}
				select {
				case s.out <- ev:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
