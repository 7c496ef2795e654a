package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pamadmin/internal/config"
	"pamadmin/internal/log"
	"pamadmin/internal/records/memory"
	"pamadmin/internal/records/remote"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "remote", APIBaseURL: "http://x", APITimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, RemoteBackend, cfg.Type)
	assert.Equal(t, "http://x", cfg.BaseURL)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(log.Discard())
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	assert.NoError(t, res.Ping(context.Background()))
}

func TestCreateRemoteBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: RemoteBackend, BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &remote.Client{}, res.Store)
	assert.NoError(t, res.Ping(context.Background()))

	_, err = f.CreateBackend(context.Background(), Config{Type: RemoteBackend})
	assert.Error(t, err)
}
