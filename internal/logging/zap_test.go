package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	log, logs := newObservedZap()
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn", "err", errors.New("boom"))
	log.Error(ctx, "err", "dangling")

	entries := logs.All()
	require.Len(t, entries, 4)

	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, int64(1), entries[0].ContextMap()["a"])

	require.Equal(t, "two", entries[1].ContextMap()["b"])
	require.Equal(t, "boom", entries[2].ContextMap()["err"])
	require.Equal(t, "dangling", entries[3].ContextMap()["!BADKEY"])
}

func TestZapLogger_With_AddsFields(t *testing.T) {
	log, logs := newObservedZap()

	log.With("module", "grpc_server").Info(context.Background(), "hello", "k", "v")

	entries := logs.All()
	require.Len(t, entries, 1)
	m := entries[0].ContextMap()
	require.Equal(t, "grpc_server", m["module"])
	require.Equal(t, "v", m["k"])
}

func TestNop_DiscardsEverything(t *testing.T) {
	l := Nop().With("x", 1)
	l.Info(context.Background(), "ignored")
}
