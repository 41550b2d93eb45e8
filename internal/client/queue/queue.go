// Package queue holds the durable logs of mutations made while offline and
// replays them against the remote store in FIFO order.
//
// Acknowledgement is per item: replayed items leave the queue, failed items
// stay in their original order for the next flush together with every later
// action on the same document, and items enqueued while
// a flush runs are kept behind them. A cancelled flush leaves the queue
// exactly as it was.
package queue

import (
	"github.com/dmitrijs2005/scratchmap/internal/client/models"
)

// Result summarises one flush.
type Result struct {
	Total    int
	Replayed int
	Failed   int
	// Blocked counts items kept unreplayed because an earlier action on
	// the same document failed in this flush.
	Blocked int
	// Offline is set when the flush stopped because the remote became
	// unreachable; the unprocessed items were kept.
	Offline bool
}

// Retained returns how many items the flush left in the queue.
func (r Result) Retained() int {
	return r.Total - r.Replayed
}

// requeue rebuilds the queue after a flush of the first n items of the
// snapshot: kept items first, then anything appended meanwhile.
func requeue[T any](cur []T, n int, kept []T) []T {
	out := append([]T{}, kept...)
	if len(cur) > n {
		out = append(out, cur[n:]...)
	}
	return out
}

func containsPoint(points []models.ScratchPoint, p models.ScratchPoint) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}
