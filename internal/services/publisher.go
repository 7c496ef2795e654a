// Package services holds the admin operations behind the HTTP handlers
// and the CLI. Every protected operation takes an explicit session.
package services

import (
	"context"
	"sync"

	"pamadmin/internal/amqp"
)

// EventPublisher announces committed status changes. *amqp.Client and
// *worker.InlinePublisher implement it.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, msg *amqp.StatusChangedMessage) error
}

type noopPublisher struct{}

func (noopPublisher) PublishStatusChanged(context.Context, *amqp.StatusChangedMessage) error {
	return nil
}

// inflight tracks keys with an unsettled mutation.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// acquire claims key and reports false when it is already held.
func (g *inflight) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[key]; busy {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

func (g *inflight) release(key string) {
	g.mu.Lock()
	delete(g.keys, key)
	g.mu.Unlock()
}
