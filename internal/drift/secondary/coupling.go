// Package secondary implements the Drift engine's secondary detectors:
// coupling, wrapper detection, crypto, DNA, constraints and contracts. Each
// is a pure function over already-extracted structural input — no parsing,
// no I/O, no time dependency — so a fixed input always yields a
// bit-identical result.
package secondary

import "sort"

// ImportGraph is the module-level dependency graph a repo's imports project
// onto: which modules each module imports (Edges), and how many total vs.
// abstract types each module declares (for Martin's abstractness metric).
type ImportGraph struct {
	Modules          []string
	Edges            map[string][]string
	TotalTypeCounts  map[string]int
	AbstractCounts   map[string]int
}

// CouplingMetrics is one module's Martin coupling metrics: efferent (Ce) and
// afferent (Ca) coupling, instability, abstractness, distance from the main
// sequence, and the classified zone.
type CouplingMetrics struct {
	Module       string
	Ce           int
	Ca           int
	Instability  float64
	Abstractness float64
	Distance     float64
	Zone         string
}

const (
	ZoneMainSequence  = "main_sequence"
	ZonePain          = "zone_of_pain"
	ZoneUselessness   = "zone_of_uselessness"
	ZoneTransitional  = "transitional"
)

// ComputeMartinMetrics computes Ce, Ca, instability, abstractness and
// distance for every module in graph, per Robert Martin's formulas:
// I = Ce/(Ce+Ca), A = abstract/total, D = |A + I - 1|. Ce and Ca both count
// distinct dependent modules, not total edge occurrences, so a module that
// imports another twice (or is imported by the same module via two paths)
// is not double-counted.
func ComputeMartinMetrics(graph ImportGraph) []CouplingMetrics {
	efferent := make(map[string]map[string]struct{}, len(graph.Modules))
	afferent := make(map[string]map[string]struct{}, len(graph.Modules))

	for _, m := range graph.Modules {
		efferent[m] = make(map[string]struct{})
		afferent[m] = make(map[string]struct{})
	}

	for from, deps := range graph.Edges {
		if _, ok := efferent[from]; !ok {
			efferent[from] = make(map[string]struct{})
		}
		for _, to := range deps {
			efferent[from][to] = struct{}{}
			if _, ok := afferent[to]; !ok {
				afferent[to] = make(map[string]struct{})
			}
			afferent[to][from] = struct{}{}
		}
	}

	out := make([]CouplingMetrics, 0, len(graph.Modules))
	for _, m := range graph.Modules {
		ce := len(efferent[m])
		ca := len(afferent[m])

		instability := 0.0
		if ce+ca > 0 {
			instability = float64(ce) / float64(ce+ca)
		}

		abstractness := 0.0
		if total := graph.TotalTypeCounts[m]; total > 0 {
			abstractness = float64(graph.AbstractCounts[m]) / float64(total)
		}

		distance := abstractness + instability - 1.0
		if distance < 0 {
			distance = -distance
		}

		out = append(out, CouplingMetrics{
			Module:       m,
			Ce:           ce,
			Ca:           ca,
			Instability:  instability,
			Abstractness: abstractness,
			Distance:     distance,
			Zone:         classifyZone(instability, abstractness, distance),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

func classifyZone(instability, abstractness, distance float64) string {
	switch {
	case instability < 0.2 && abstractness < 0.2:
		return ZonePain
	case instability > 0.8 && abstractness > 0.8:
		return ZoneUselessness
	case distance <= 0.3:
		return ZoneMainSequence
	default:
		return ZoneTransitional
	}
}

// CouplingCycle is one strongly-connected component of size > 1 in the
// import graph, with members sorted and a suggested edge to break.
type CouplingCycle struct {
	Members          []string
	BreakSuggestions []string
}

// DetectCycles runs Tarjan's SCC algorithm over graph.Edges and returns one
// CouplingCycle per non-trivial component (size > 1 — a module that merely
// imports itself is not reported as a cycle, since it can't be broken by
// removing an edge between two modules).
func DetectCycles(graph ImportGraph) []CouplingCycle {
	t := &tarjan{
		edges:   graph.Edges,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}

	modules := append([]string(nil), graph.Modules...)
	sort.Strings(modules)

	for _, m := range modules {
		if _, visited := t.index[m]; !visited {
			t.strongConnect(m)
		}
	}

	out := make([]CouplingCycle, 0, len(t.sccs))
	for _, members := range t.sccs {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		out = append(out, CouplingCycle{
			Members:          members,
			BreakSuggestions: breakSuggestions(members, graph.Edges),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Members[0] < out[j].Members[0]
	})
	return out
}

// breakSuggestions proposes the edge between the first two cycle members
// (in sorted order) as the one to replace with an interface boundary — an
// arbitrary but deterministic and always-present choice, since any edge in
// the cycle is a valid break point.
func breakSuggestions(members []string, edges map[string][]string) []string {
	if len(members) < 2 {
		return nil
	}
	a, b := members[0], members[1]
	return []string{
		"introduce an interface boundary between " + a + " and " + b + " to break the cycle",
	}
}

// tarjan implements Tarjan's strongly-connected-components algorithm
// iteratively-by-recursion over a small, already-in-memory module graph (a
// real repo's module count is small enough that recursion depth is not a
// concern, unlike e.g. AST depth).
type tarjan struct {
	edges   map[string][]string
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	neighbors := append([]string(nil), t.edges[v]...)
	sort.Strings(neighbors)

	for _, w := range neighbors {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
