// Package eventstore is the append-only MemoryEvent log. It is backed by
// go.etcd.io/bbolt: bbolt's single-writer B+Tree transaction model is used
// directly as the implementation of the event log's single-writer
// invariant, rather than re-derived with an application-level mutex.
package eventstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	derr "github.com/driftlabs/driftcortex/internal/errors"
	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

var (
	bucketEvents    = []byte("events")     // event_id (big-endian uint64) -> MemoryEvent JSON
	bucketMemIndex  = []byte("memory_idx") // memory_id -> sorted event_id list JSON
	bucketSnapshots = []byte("snapshots")  // memory_id -> []snapshotRecord JSON
	bucketSeq       = []byte("seq")        // "event_id" -> last-assigned uint64
)

// Store is the bbolt-backed event log.
type Store struct {
	db *bolt.DB
}

// SnapshotReason enumerates why a snapshot was taken.
type SnapshotReason string

const (
	ReasonEventThreshold SnapshotReason = "EventThreshold"
	ReasonPeriodic       SnapshotReason = "Periodic"
	ReasonOnDemand       SnapshotReason = "OnDemand"
)

type snapshotRecord struct {
	EventID int64           `json:"event_id"`
	State   json.RawMessage `json:"state"`
	Reason  SnapshotReason  `json:"reason"`
	TakenAt time.Time       `json:"taken_at"`
}

// Open opens (creating if absent) the bbolt file at path and ensures the
// event store's buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketEvents, bucketMemIndex, bucketSnapshots, bucketSeq} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying bbolt file.
func (s *Store) Close() error { return s.db.Close() }

func eventKey(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func eventIDFromKey(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}

// Append assigns a fresh monotonic event_id to ev and persists it
// atomically, updating the per-memory index in the same transaction.
func (s *Store) Append(ev memory.MemoryEvent) (memory.MemoryEvent, error) {
	out, err := s.AppendBatch([]memory.MemoryEvent{ev})
	if err != nil {
		return memory.MemoryEvent{}, err
	}
	return out[0], nil
}

// AppendBatch persists events in order, preserving input order in the
// assigned event_ids.
func (s *Store) AppendBatch(events []memory.MemoryEvent) ([]memory.MemoryEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	out := make([]memory.MemoryEvent, len(events))
	err := s.db.Update(func(tx *bolt.Tx) error {
		seq := tx.Bucket(bucketSeq)
		evB := tx.Bucket(bucketEvents)
		idxB := tx.Bucket(bucketMemIndex)

		last := uint64(0)
		if raw := seq.Get([]byte("event_id")); raw != nil {
			last = binary.BigEndian.Uint64(raw)
		}

		byMemory := make(map[string][]int64)
		for i, ev := range events {
			last++
			ev.EventID = int64(last)
			if ev.RecordedAt.IsZero() {
				ev.RecordedAt = time.Now()
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			if err := evB.Put(eventKey(ev.EventID), data); err != nil {
				return err
			}
			out[i] = ev
			byMemory[ev.MemoryID] = append(byMemory[ev.MemoryID], ev.EventID)
		}

		for memID, ids := range byMemory {
			existing, err := readIndex(idxB, memID)
			if err != nil {
				return err
			}
			merged := append(existing, ids...)
			data, err := json.Marshal(merged)
			if err != nil {
				return err
			}
			if err := idxB.Put([]byte(memID), data); err != nil {
				return err
			}
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, last)
		return seq.Put([]byte("event_id"), buf)
	})
	if err != nil {
		return nil, derr.Wrap(derr.KindEvent, derr.CodeAppendConflict, "append batch failed", err)
	}
	return out, nil
}

func readIndex(idxB *bolt.Bucket, memoryID string) ([]int64, error) {
	raw := idxB.Get([]byte(memoryID))
	if raw == nil {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// EventsForMemory returns every event recorded for memoryID, in event_id
// (and therefore append) order.
func (s *Store) EventsForMemory(memoryID string) ([]memory.MemoryEvent, error) {
	var events []memory.MemoryEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		idxB := tx.Bucket(bucketMemIndex)
		evB := tx.Bucket(bucketEvents)
		ids, err := readIndex(idxB, memoryID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			raw := evB.Get(eventKey(id))
			if raw == nil {
				continue
			}
			var ev memory.MemoryEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventID < events[j].EventID })
	return events, nil
}

// LastEventIDAt returns the greatest event_id with RecordedAt <= t across
// the whole store, or 0 if none. It's the monotonic cursor temporal
// reconstruction anchors to.
func (s *Store) LastEventIDAt(t time.Time) (int64, error) {
	var last int64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev memory.MemoryEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			if !ev.RecordedAt.After(t) && ev.EventID > last {
				last = ev.EventID
			}
		}
		return nil
	})
	return last, err
}

// CreateSnapshot persists a full materialized state at the given event_id.
func (s *Store) CreateSnapshot(memoryID string, eventID int64, state json.RawMessage, reason SnapshotReason) error {
	rec := snapshotRecord{EventID: eventID, State: state, Reason: reason, TakenAt: time.Now()}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		var recs []snapshotRecord
		if raw := b.Get([]byte(memoryID)); raw != nil {
			if err := json.Unmarshal(raw, &recs); err != nil {
				return err
			}
		}
		recs = append(recs, rec)
		data, err := json.Marshal(recs)
		if err != nil {
			return err
		}
		return b.Put([]byte(memoryID), data)
	})
}

// latestSnapshotAtOrBefore returns the snapshot with the greatest event_id
// <= maxEventID, or ok=false if none exists.
func (s *Store) latestSnapshotAtOrBefore(memoryID string, maxEventID int64) (snapshotRecord, bool, error) {
	var best snapshotRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSnapshots).Get([]byte(memoryID))
		if raw == nil {
			return nil
		}
		var recs []snapshotRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			if r.EventID <= maxEventID && (!found || r.EventID > best.EventID) {
				best = r
				found = true
			}
		}
		return nil
	})
	return best, found, err
}

// ReconstructAt rebuilds the memory's state as of time t: load the latest
// snapshot with event_id <= last_event_id(t), then replay events in
// (snapshot_event_id, last_event_id(t)].
func (s *Store) ReconstructAt(memoryID string, t time.Time) (memory.Memory, error) {
	cursor, err := s.LastEventIDAt(t)
	if err != nil {
		return memory.Memory{}, err
	}

	var shell memory.Memory
	fromEventID := int64(0)
	if snap, ok, err := s.latestSnapshotAtOrBefore(memoryID, cursor); err != nil {
		return memory.Memory{}, err
	} else if ok {
		if err := json.Unmarshal(snap.State, &shell); err != nil {
			return memory.Memory{}, derr.Wrap(derr.KindEvent, derr.CodeSnapshotFailed, "unmarshal snapshot", err)
		}
		fromEventID = snap.EventID
	}

	all, err := s.EventsForMemory(memoryID)
	if err != nil {
		return memory.Memory{}, err
	}
	var tail []memory.MemoryEvent
	for _, ev := range all {
		if ev.EventID > fromEventID && ev.EventID <= cursor {
			tail = append(tail, ev)
		}
	}

	out, err := memory.ReplayEvents(shell, tail)
	if err != nil {
		return memory.Memory{}, derr.Wrap(derr.KindEvent, derr.CodeReplayFailed, "replay failed", err)
	}
	return out, nil
}
