// Package progress implements the per-operation progress and cancellation
// session handed to long-running loops (queue flush, reconcile, cleanup).
package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by loops that stopped because their session was
// cancelled. Effects applied before the stop are not rolled back.
var ErrCancelled = errors.New("operation cancelled")

// Func receives progress for a named phase: current of total items done.
type Func func(phase string, current, total int)

// Session carries one operation's progress callback and cancellation.
// Sessions are not shared between operations.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	report Func

	mu    sync.Mutex
	phase string
	cur   int
	total int
}

// New derives a session from ctx. report may be nil.
func New(ctx context.Context, report Func) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{ctx: ctx, cancel: cancel, report: report}
}

// Background is a session that is never cancelled and reports nothing.
func Background() *Session {
	return New(context.Background(), nil)
}

func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Cancel() { s.cancel() }

// Cancelled is the per-iteration cancellation predicate.
func (s *Session) Cancelled() bool { return s.ctx.Err() != nil }

// Check returns ErrCancelled once the session is cancelled.
func (s *Session) Check() error {
	if s.Cancelled() {
		return ErrCancelled
	}
	return nil
}

func (s *Session) Report(phase string, current, total int) {
	s.mu.Lock()
	s.phase, s.cur, s.total = phase, current, total
	s.mu.Unlock()

	if s.report != nil {
		s.report(phase, current, total)
	}
}

// Snapshot returns the last reported progress.
func (s *Session) Snapshot() (phase string, current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.cur, s.total
}

// Done releases the session's resources.
func (s *Session) Done() { s.cancel() }
