// Package cache holds small in-process caches for store reads.
package cache

import (
	"context"
	"time"

	"pamadmin/internal/log"
)

// Cache is a keyed cache of T.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically purges expired entries from registered caches.
type Janitor struct {
	logger  *log.Logger
	caches  []Cleaner
	stop    chan struct{}
	stopped chan struct{}
}

func NewJanitor(logger *log.Logger) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{
		logger:  logger.WithComponent(log.ComponentCache),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Register must be called before Start.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	go j.run(ctx, interval)
}

func (j *Janitor) run(ctx context.Context, interval time.Duration) {
	defer close(j.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.sweep(); n > 0 {
				j.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		}
	}
}

func (j *Janitor) sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop and waits for it to exit. It must only be
// called after Start.
func (j *Janitor) Stop() {
	select {
	case <-j.stop:
	default:
		close(j.stop)
	}
	<-j.stopped
}
