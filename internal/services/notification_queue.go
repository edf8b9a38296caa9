// internal/services/notification_queue.go
package services

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/move-permit-backend/internal/models"
)

type queuedChange struct {
	permit *models.MovePermitRequest
	change StatusChange
}

// notificationQueue keeps pending status changes per permit, ordered by event
// sequence. At most one drainer runs per permit, so a permit's changes reach
// the notifier in the order they were applied.
type notificationQueue struct {
	mu      sync.Mutex
	pending map[uuid.UUID][]queuedChange
}

// push queues a change and reports whether the caller has to start a drainer.
func (q *notificationQueue) push(item queuedChange) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == nil {
		q.pending = make(map[uuid.UUID][]queuedChange)
	}

	id := item.change.PermitID
	items, draining := q.pending[id]
	// after every queued change with the same or a lower sequence
	at, _ := slices.BinarySearchFunc(items, item.change.Sequence, func(queued queuedChange, sequence int) int {
		if queued.change.Sequence <= sequence {
			return -1
		}
		return 1
	})
	q.pending[id] = slices.Insert(items, at, item)
	return !draining
}

// next pops the oldest change for a permit. When nothing is left the permit is
// released so the next push starts a new drainer.
func (q *notificationQueue) next(permitID uuid.UUID) (queuedChange, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.pending[permitID]
	if len(items) == 0 {
		delete(q.pending, permitID)
		return queuedChange{}, false
	}
	q.pending[permitID] = items[1:]
	return items[0], true
}
