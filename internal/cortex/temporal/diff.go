package temporal

import "github.com/driftlabs/driftcortex/internal/cortex/memory"

// ConfidenceShift records a confidence change for a memory present in both
// snapshots being diffed.
type ConfidenceShift struct {
	MemoryID string
	From     float64
	To       float64
}

// DiffResult is the output of comparing two memory snapshots.
type DiffResult struct {
	Created           []memory.Memory
	Archived          []memory.Memory
	Modified          []memory.Memory
	ConfidenceShifts  []ConfidenceShift
}

// Diff compares snapshot A against snapshot B (both keyed by memory ID
// implicitly via m.ID) and classifies every memory present in either side.
// Diff(T,T) is empty for all T, and |Diff(A,B).Created| == |Diff(B,A).Archived|
// by construction, since Created/Archived are exact complements of the
// "present in B not A" / "present in A not B" sets.
func Diff(a, b []memory.Memory) DiffResult {
	byID := func(ms []memory.Memory) map[string]memory.Memory {
		out := make(map[string]memory.Memory, len(ms))
		for _, m := range ms {
			out[m.ID] = m
		}
		return out
	}
	am := byID(a)
	bm := byID(b)

	var res DiffResult
	for id, bMem := range bm {
		aMem, inA := am[id]
		if !inA {
			res.Created = append(res.Created, bMem)
			continue
		}
		if aMem.ContentHash != bMem.ContentHash {
			res.Modified = append(res.Modified, bMem)
		}
		if aMem.Confidence != bMem.Confidence {
			res.ConfidenceShifts = append(res.ConfidenceShifts, ConfidenceShift{
				MemoryID: id, From: aMem.Confidence, To: bMem.Confidence,
			})
		}
	}
	for id, aMem := range am {
		if _, inB := bm[id]; !inB {
			res.Archived = append(res.Archived, aMem)
		}
	}
	return res
}
