package sync

import (
	"context"
	"encoding/json"
	"sync"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// Delta is one unit of CRDT state propagated from SourceAgent to a target
// agent's queue.
type Delta struct {
	SourceAgent string          `json:"source_agent"`
	MemoryID    string          `json:"memory_id"`
	Payload     json.RawMessage `json:"delta_json"`
	Clock       VectorClock     `json:"clock"`
	RetryCount  int             `json:"retry_count"`
}

// CanApplyClock reports whether delta is the immediate causal successor of
// local: every actor's count in delta.Clock must be <= local, except
// exactly one actor whose delta count is local[a]+1. Any other shape
// (already-applied, too-far-ahead, or concurrent-but-not-a-successor)
// returns false and the delta must wait in the queue.
// CanApplyClock is the exported form of the ordering check used directly
// by callers that want to probe applicability without draining a queue.
func CanApplyClock(delta, local VectorClock) bool {
	return canApplyClock(delta, local)
}

func canApplyClock(delta, local VectorClock) bool {
	advanced := 0
	for actor, dv := range delta {
		lv := local[actor]
		switch {
		case dv <= lv:
			// already seen locally, fine
		case dv == lv+1:
			advanced++
		default:
			return false
		}
	}
	return advanced == 1
}

// DeltaTransport delivers deltas to per-agent FIFO queues. In-process FIFO
// is the default (and what unit tests use); Redis/AMQP-backed
// implementations satisfy the same interface for cross-process delivery,
// selected by SyncConfig.Transport.
type DeltaTransport interface {
	// Enqueue appends delta to targetAgent's queue.
	Enqueue(ctx context.Context, targetAgent string, delta Delta) error
	// Dequeue pops the oldest delta for targetAgent, if any.
	Dequeue(ctx context.Context, targetAgent string) (Delta, bool, error)
	// Requeue puts delta back at the front of targetAgent's queue (used
	// when CanApplyClock rejects it pending an earlier delta).
	Requeue(ctx context.Context, targetAgent string, delta Delta) error
}

// InProcessTransport is the default FIFO transport: one queue per target
// agent, guarded by a single mutex. It never blocks across processes and
// is what the delta-ordering unit tests exercise directly.
type InProcessTransport struct {
	mu     sync.Mutex
	queues map[string][]Delta
}

// NewInProcessTransport returns an empty in-process transport.
func NewInProcessTransport() *InProcessTransport {
	return &InProcessTransport{queues: make(map[string][]Delta)}
}

func (t *InProcessTransport) Enqueue(_ context.Context, targetAgent string, delta Delta) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues[targetAgent] = append(t.queues[targetAgent], delta)
	return nil
}

func (t *InProcessTransport) Dequeue(_ context.Context, targetAgent string) (Delta, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q := t.queues[targetAgent]
	if len(q) == 0 {
		return Delta{}, false, nil
	}
	d := q[0]
	t.queues[targetAgent] = q[1:]
	return d, true, nil
}

func (t *InProcessTransport) Requeue(_ context.Context, targetAgent string, delta Delta) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues[targetAgent] = append([]Delta{delta}, t.queues[targetAgent]...)
	return nil
}

// DeltaQueue applies CanApplyClock ordering on top of a DeltaTransport:
// out-of-order deltas are requeued rather than applied, so callers never
// observe a delta before its causal predecessor.
type DeltaQueue struct {
	transport DeltaTransport
	local     map[string]VectorClock // per target-agent local clock
	mu        sync.Mutex
}

// NewDeltaQueue wraps transport with per-agent clock tracking.
func NewDeltaQueue(transport DeltaTransport) *DeltaQueue {
	return &DeltaQueue{transport: transport, local: make(map[string]VectorClock)}
}

// Push enqueues delta for targetAgent via the underlying transport.
func (q *DeltaQueue) Push(ctx context.Context, targetAgent string, delta Delta) error {
	return q.transport.Enqueue(ctx, targetAgent, delta)
}

// Drain collects every delta currently queued for targetAgent and applies
// as many as are in causal order, calling apply(delta) for each in the
// order they become applicable. A delta that cannot yet apply "waits" —
// it is requeued rather than blocking deltas behind it that already can
// apply, since a single FIFO head-of-line delta from one source agent
// must not stall delivery from others. Drain repeats the applicable scan
// until a full pass makes no progress, then requeues whatever remains.
// maxRetry bounds how many times a single delta may be requeued before
// Drain gives up and returns derr.DeltaRejected.
func (q *DeltaQueue) Drain(ctx context.Context, targetAgent string, maxRetry int, apply func(Delta) error) error {
	q.mu.Lock()
	local := q.local[targetAgent]
	if local == nil {
		local = NewVectorClock()
	}
	q.mu.Unlock()

	var pending []Delta
	for {
		delta, ok, err := q.transport.Dequeue(ctx, targetAgent)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		pending = append(pending, delta)
	}

	for {
		progressed := false
		for i := 0; i < len(pending); i++ {
			d := pending[i]
			if !canApplyClock(d.Clock, local) {
				continue
			}
			if err := apply(d); err != nil {
				return err
			}
			local = Merge(local, d.Clock)
			pending = append(pending[:i], pending[i+1:]...)
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	q.mu.Lock()
	q.local[targetAgent] = local
	q.mu.Unlock()

	// Requeue puts each delta back at the front, so push in reverse to
	// preserve pending's original relative order once all are back.
	for i := len(pending) - 1; i >= 0; i-- {
		d := pending[i]
		d.RetryCount++
		if d.RetryCount > maxRetry {
			return derr.DeltaRejected("exceeded max retries for memory " + d.MemoryID + " targeting " + targetAgent)
		}
		if err := q.transport.Requeue(ctx, targetAgent, d); err != nil {
			return err
		}
	}
	return nil
}
