package backend

import (
	"context"
	"fmt"

	"pamadmin/internal/log"
	"pamadmin/internal/records/memory"
	"pamadmin/internal/records/remote"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	client := remote.New(remote.Config{BaseURL: config.BaseURL, Timeout: config.Timeout}, nil)
	f.logger.Info("Initialized remote backend", "base_url", config.BaseURL, "timeout", config.Timeout)
	return &BackendResult{Store: client}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir, config.Clock)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Store: store}, nil
}
