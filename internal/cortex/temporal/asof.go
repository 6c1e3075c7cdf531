// Package temporal implements bitemporal AS-OF/diff/range queries, decision
// replay and drift metrics over a set of memories.
package temporal

import (
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

// Filter narrows an AS-OF query to a subset of memories; nil matches all.
type Filter func(memory.Memory) bool

// AsOf returns the memories from `all` whose (transaction_time <=
// systemTime) AND (valid_time <= validTime) AND (valid_until is nil OR
// valid_until > validTime), i.e. the state of the world as it was known at
// systemTime about facts true at validTime.
func AsOf(all []memory.Memory, systemTime, validTime time.Time, filter Filter) []memory.Memory {
	var out []memory.Memory
	for _, m := range all {
		if m.TransactionTime.After(systemTime) {
			continue
		}
		if m.ValidTime.After(validTime) {
			continue
		}
		if m.ValidUntil != nil && !m.ValidUntil.After(validTime) {
			continue
		}
		if filter != nil && !filter(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Current returns AsOf(all, now, now, filter) — current-time equivalence
// with AS-OF(now) holds by construction.
func Current(all []memory.Memory, now time.Time, filter Filter) []memory.Memory {
	return AsOf(all, now, now, filter)
}
