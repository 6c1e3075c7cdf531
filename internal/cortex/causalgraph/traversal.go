package causalgraph

// TraversalConfig bounds a graph walk.
type TraversalConfig struct {
	MaxDepth    int
	MinStrength float64
	MaxNodes    int
}

// DefaultTraversalConfig returns reasonable bounds for interactive queries.
func DefaultTraversalConfig() TraversalConfig {
	return TraversalConfig{MaxDepth: 10, MinStrength: 0, MaxNodes: 1000}
}

// Path is an ordered walk from a traversal's start node.
type Path struct {
	Nodes []string
	Edges []Edge
}

func (g *Graph) traverse(start string, cfg TraversalConfig, forward bool) []Path {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.idByNode[start]; !ok {
		return nil
	}

	type frame struct {
		node  string
		path  Path
		depth int
	}

	var results []Path
	visitedNodes := map[string]bool{start: true}
	queue := []frame{{node: start, path: Path{Nodes: []string{start}}, depth: 0}}

	for len(queue) > 0 && len(visitedNodes) <= cfg.MaxNodes {
		f := queue[0]
		queue = queue[1:]

		if f.depth >= cfg.MaxDepth {
			continue
		}

		idx := g.idByNode[f.node]
		var edgeIdxs []int
		if forward {
			edgeIdxs = g.out[idx]
		} else {
			edgeIdxs = g.in[idx]
		}

		for _, ei := range edgeIdxs {
			e := g.edges[ei]
			if e.Source == "" || e.Strength < cfg.MinStrength {
				continue
			}
			next := e.Target
			if !forward {
				next = e.Source
			}

			nextPath := Path{
				Nodes: append(append([]string{}, f.path.Nodes...), next),
				Edges: append(append([]Edge{}, f.path.Edges...), e),
			}
			results = append(results, nextPath)

			if !visitedNodes[next] && len(visitedNodes) < cfg.MaxNodes {
				visitedNodes[next] = true
				queue = append(queue, frame{node: next, path: nextPath, depth: f.depth + 1})
			}
		}
	}
	return results
}

// TraceEffects walks forward from id, bounded by cfg, returning every path
// reached.
func (g *Graph) TraceEffects(id string, cfg TraversalConfig) []Path {
	return g.traverse(id, cfg, true)
}

// TraceOrigins walks backward from id, bounded by cfg.
func (g *Graph) TraceOrigins(id string, cfg TraversalConfig) []Path {
	return g.traverse(id, cfg, false)
}
