package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_RunWithMemoryStorage(t *testing.T) {
	cfg := &config.Config{
		EndpointAddrGRPC:            "127.0.0.1:0",
		DatabaseDSN:                 "memory",
		SecretKey:                   "secret",
		AccessTokenValidityDuration: time.Hour,
	}

	app, err := NewApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestStorageKind(t *testing.T) {
	assert.Equal(t, "memory", storageKind("memory:test"))
	assert.Equal(t, "postgres", storageKind("postgres://localhost/scratchmap"))
}
