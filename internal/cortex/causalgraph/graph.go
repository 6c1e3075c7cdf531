// Package causalgraph is the indexed DAG of memories: directed, typed,
// weighted edges with cycle prevention and bounded traversal. The graph is
// always a projection of RelationshipAdded/Removed/StrengthUpdated events;
// no persisted graph state exists independent of the event log.
package causalgraph

import (
	"sort"
	"sync"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// Relation types a CausalEdge.
type Relation string

const (
	RelationCaused     Relation = "Caused"
	RelationSupports   Relation = "Supports"
	RelationContradicts Relation = "Contradicts"
	RelationRefines    Relation = "Refines"
)

// Edge is a directed relation source -> target.
type Edge struct {
	Source   string
	Target   string
	Relation Relation
	Strength float64
	Evidence []string
	Inferred bool
}

type nodeIndex = int

// Graph is an arena-of-nodes DAG: nodes are referenced by index, never by
// pointer, so cycle detection and reconstruction never chase dangling
// references.
type Graph struct {
	mu       sync.RWMutex
	idByNode map[string]nodeIndex
	nodes    []string
	// out[i] holds the indices of edges in `edges` leaving node i.
	out   map[nodeIndex][]int
	in    map[nodeIndex][]int
	edges []Edge
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		idByNode: make(map[string]nodeIndex),
		out:      make(map[nodeIndex][]int),
		in:       make(map[nodeIndex][]int),
	}
}

func (g *Graph) nodeIndexOrCreate(id string) nodeIndex {
	if idx, ok := g.idByNode[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.idByNode[id] = idx
	return idx
}

// reachable reports whether `to` is reachable from `from` via existing
// edges (ignoring direction of the query, following edges forward only).
func (g *Graph) reachable(from, to nodeIndex) bool {
	if from == to {
		return true
	}
	visited := make(map[nodeIndex]bool)
	stack := []nodeIndex{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		if n == to {
			return true
		}
		for _, ei := range g.out[n] {
			stack = append(stack, g.idByNode[g.edges[ei].Target])
		}
	}
	return false
}

// AddEdge adds src -> tgt. If tgt can already reach src, the edge would
// close a cycle and is rejected without modifying the graph.
func (g *Graph) AddEdge(src, tgt string, relation Relation, strength float64, evidence []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	srcIdx := g.nodeIndexOrCreate(src)
	tgtIdx := g.nodeIndexOrCreate(tgt)

	if g.reachable(tgtIdx, srcIdx) {
		return derr.CyclicEdge(src, tgt)
	}

	e := Edge{Source: src, Target: tgt, Relation: relation, Strength: strength, Evidence: evidence}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[srcIdx] = append(g.out[srcIdx], idx)
	g.in[tgtIdx] = append(g.in[tgtIdx], idx)
	return nil
}

// RemoveEdge deletes the first matching src->tgt edge with the given
// relation, if any.
func (g *Graph) RemoveEdge(src, tgt string, relation Relation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeEdgeLocked(src, tgt, relation)
}

func (g *Graph) removeEdgeLocked(src, tgt string, relation Relation) {
	srcIdx, ok := g.idByNode[src]
	if !ok {
		return
	}
	tgtIdx, ok := g.idByNode[tgt]
	if !ok {
		return
	}
	outList := g.out[srcIdx]
	for pos, ei := range outList {
		e := g.edges[ei]
		if e.Target == tgt && e.Relation == relation {
			g.out[srcIdx] = append(outList[:pos], outList[pos+1:]...)
			inList := g.in[tgtIdx]
			for ipos, iei := range inList {
				if iei == ei {
					g.in[tgtIdx] = append(inList[:ipos], inList[ipos+1:]...)
					break
				}
			}
			g.edges[ei].Strength = 0
			g.edges[ei].Source = ""
			return
		}
	}
}

// UpdateStrength sets the strength of an existing src->tgt edge. No-op if
// the edge doesn't currently exist (spec.md §4.4 temporal reconstruction
// semantics for StrengthUpdated).
func (g *Graph) UpdateStrength(src, tgt string, relation Relation, strength float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	srcIdx, ok := g.idByNode[src]
	if !ok {
		return false
	}
	for _, ei := range g.out[srcIdx] {
		if g.edges[ei].Target == tgt && g.edges[ei].Relation == relation && g.edges[ei].Source != "" {
			g.edges[ei].Strength = strength
			return true
		}
	}
	return false
}

// Stats summarizes the graph's current shape.
type Stats struct {
	NodeCount int
	EdgeCount int
}

// Stats returns node and live-edge counts.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, e := range g.edges {
		if e.Source != "" {
			count++
		}
	}
	return Stats{NodeCount: len(g.nodes), EdgeCount: count}
}

// Neighbors returns the live outgoing edges from id.
func (g *Graph) Neighbors(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.idByNode[id]
	if !ok {
		return nil
	}
	var out []Edge
	for _, ei := range g.out[idx] {
		if g.edges[ei].Source != "" {
			out = append(out, g.edges[ei])
		}
	}
	return out
}

// Bidirectional returns the union of id's forward and backward neighbors.
func (g *Graph) Bidirectional(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.idByNode[id]
	if !ok {
		return nil
	}
	var out []Edge
	for _, ei := range g.out[idx] {
		if g.edges[ei].Source != "" {
			out = append(out, g.edges[ei])
		}
	}
	for _, ei := range g.in[idx] {
		if g.edges[ei].Source != "" {
			out = append(out, g.edges[ei])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}
