// Package backend builds the attendance record store selected by config.
package backend

import (
	"context"
	"time"

	"pamadmin/internal/records"
)

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function.
type BackendResult struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Ping reports the store's health; stores without a health check are
// always healthy.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// Remote
	BaseURL string
	Timeout time.Duration

	// Memory
	DataDirectory string
	Clock         func() time.Time
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	RemoteBackend BackendType = "remote"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
