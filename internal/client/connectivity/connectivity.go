// Package connectivity answers "is the network usable right now". Remote
// operations consult a Checker once per call and short-circuit when offline.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrNotServing = errors.New("remote not serving")

type Checker interface {
	Online() bool
}

// Static is a fixed answer, used for forced offline mode and tests.
type Static bool

func (s Static) Online() bool { return bool(s) }

// Flag is a Checker whose answer can be flipped at runtime.
type Flag struct {
	v atomic.Bool
}

func NewFlag(online bool) *Flag {
	f := &Flag{}
	f.v.Store(online)
	return f
}

func (f *Flag) Online() bool { return f.v.Load() }

func (f *Flag) Set(online bool) { f.v.Store(online) }

// Probe returns nil when the remote is reachable.
type Probe func(ctx context.Context) error

// HealthProbe checks the standard gRPC health service on conn.
func HealthProbe(conn grpc.ClientConnInterface, service string) Probe {
	client := healthpb.NewHealthClient(conn)
	return func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return ErrNotServing
		}
		return nil
	}
}

// Watcher probes the remote periodically and remembers the last answer.
// OnChange hooks run on every transition, in registration order, on the
// goroutine that performed the probe.
type Watcher struct {
	probe   Probe
	timeout time.Duration
	logger  logging.Logger

	online atomic.Bool

	mu    sync.Mutex
	hooks []func(ctx context.Context, online bool)
}

func NewWatcher(probe Probe, timeout time.Duration, l logging.Logger) *Watcher {
	return &Watcher{probe: probe, timeout: timeout, logger: l.With("module", "connectivity")}
}

func (w *Watcher) Online() bool { return w.online.Load() }

func (w *Watcher) OnChange(fn func(ctx context.Context, online bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, fn)
}

// Check probes once and returns the new state.
func (w *Watcher) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.probe(pctx)
	cancel()

	online := err == nil
	if w.online.Swap(online) != online {
		if online {
			w.logger.Info(ctx, "remote reachable")
		} else {
			w.logger.Warn(ctx, "remote unreachable", "error", err)
		}

		w.mu.Lock()
		hooks := append([]func(context.Context, bool){}, w.hooks...)
		w.mu.Unlock()

		for _, h := range hooks {
			h(ctx, online)
		}
	}
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	w.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
