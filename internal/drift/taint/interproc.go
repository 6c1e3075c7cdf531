package taint

import (
	"sort"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// FunctionBody is one analyzable function: its declared parameters (in
// order) and the calls observed in its body, in source order. A Call whose
// Callee matches another key in the enclosing CallGraph is a user-function
// call rather than a source/sink/sanitizer; AnalyzeProgram follows it.
type FunctionBody struct {
	Name   string
	Params []string
	Calls  []Call
	File   string
}

// CallGraph maps function name to its body, for every function eligible for
// inter-procedural propagation.
type CallGraph map[string]FunctionBody

// visitKey identifies one (callee function, parameter) pair already
// expanded along the current call path, so a recursive or mutually
// recursive pair of functions cannot be entered twice on the same path.
type visitKey struct {
	fn    string
	param string
}

// AnalyzeProgram runs taint propagation over every function in graph,
// following calls into other graph functions up to maxDepth frames deep.
// A call path that would re-enter a (function, parameter) pair already on
// the current path is skipped rather than followed, breaking cycles
// without needing a global visited set that would suppress legitimate
// diamond-shaped call patterns reached via different paths.
//
// A path that reaches maxDepth without resolving to a sink is abandoned and
// recorded as a derr.TaintBudgetExceeded error against the entry function,
// rather than silently truncated.
func AnalyzeProgram(graph CallGraph, spec FrameworkSpec, maxDepth int) ([]TaintFlow, []error) {
	var flows []TaintFlow
	var errs []error

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := graph[name]
		ctx := NewPropagationContext()
		fFlows, exceeded := analyzeFunctionBody(fn, graph, spec, ctx, nil, 0, maxDepth)
		flows = append(flows, fFlows...)
		if exceeded {
			errs = append(errs, derr.TaintBudgetExceeded(fn.File, maxDepth))
		}
	}

	return flows, errs
}

// analyzeFunctionBody walks fn's calls against ctx (already seeded with any
// taint carried in from a caller), recursing into callee function bodies
// found in graph. Returns the flows found within this frame and below, and
// whether the depth budget was exhausted somewhere on this path.
func analyzeFunctionBody(fn FunctionBody, graph CallGraph, spec FrameworkSpec, ctx *PropagationContext, visited map[visitKey]bool, depth int, maxDepth int) ([]TaintFlow, bool) {
	if depth > maxDepth {
		return nil, true
	}

	var flows []TaintFlow
	var hops []Hop
	var budgetExceeded bool

	for _, call := range fn.Calls {
		switch {
		case mustMatchSource(spec, call):
			src, _ := spec.MatchSource(call.Callee)
			if call.AssignTo != "" {
				ctx.Taint(call.AssignTo, src.Label)
			}
			hops = append(hops, Hop{Callee: call.Callee, Line: call.Line})

		case mustMatchSanitizer(spec, call):
			sani, _ := spec.MatchSanitizer(call.Callee)
			for _, arg := range call.Args {
				ctx.Sanitize(arg, sani.Covers, call.Callee)
			}
			if call.AssignTo != "" && len(call.Args) > 0 {
				ctx.Copy(call.AssignTo, call.Args[0])
				ctx.Sanitize(call.AssignTo, sani.Covers, call.Callee)
			}
			hops = append(hops, Hop{Callee: call.Callee, Line: call.Line})

		case mustMatchSink(spec, call):
			sink, _ := spec.MatchSink(call.Callee)
			for _, arg := range call.Args {
				labels, sanitized, sanitizedBy, hasHistory := ctx.StateFor(arg, sink.Type)
				if !hasHistory {
					continue
				}
				confidence := 1.0
				var applied []string
				if sanitized {
					confidence = 0.1
					applied = []string{sanitizedBy}
				}
				for _, label := range labels {
					flows = append(flows, TaintFlow{
						SourceLabel:       label,
						SinkCallee:        call.Callee,
						SinkType:          sink.Type,
						SinkLine:          call.Line,
						Hops:              append([]Hop(nil), hops...),
						SanitizersApplied: applied,
						IsSanitized:       sanitized,
						CWE:               sink.CWE,
						Confidence:        confidence,
					})
				}
			}

		default:
			if callee, ok := graph[call.Callee]; ok {
				sub, exceeded := enterCallee(callee, graph, spec, ctx, visited, call, depth, maxDepth)
				flows = append(flows, sub...)
				budgetExceeded = budgetExceeded || exceeded
				hops = append(hops, Hop{Callee: call.Callee, Line: call.Line})
				continue
			}
			if call.AssignTo != "" && len(call.Args) == 1 {
				ctx.Copy(call.AssignTo, call.Args[0])
			}
		}
	}

	return flows, budgetExceeded
}

// enterCallee seeds a fresh child context from callee's parameters (taint
// carried in from the caller's tainted arguments), then recurses. The
// child's resulting sink flows are attributed to the callee's own call
// sites; taint the callee sanitizes or leaves live does not propagate back
// up into the caller's context, matching Go's pass-by-value call semantics.
func enterCallee(callee FunctionBody, graph CallGraph, spec FrameworkSpec, callerCtx *PropagationContext, visited map[visitKey]bool, call Call, depth int, maxDepth int) ([]TaintFlow, bool) {
	childCtx := NewPropagationContext()
	childVisited := cloneVisited(visited)
	anySeeded := false

	for i, arg := range call.Args {
		if i >= len(callee.Params) {
			break
		}
		param := callee.Params[i]
		key := visitKey{fn: callee.Name, param: param}
		if childVisited[key] {
			continue
		}
		labels, hasHistory := allLabels(callerCtx, arg)
		if !hasHistory {
			continue
		}
		childVisited[key] = true
		anySeeded = true
		for _, l := range labels {
			childCtx.Taint(param, l)
		}
	}

	if !anySeeded {
		return nil, false
	}

	return analyzeFunctionBody(callee, graph, spec, childCtx, childVisited, depth+1, maxDepth)
}

// allLabels returns every live label variable carries against any sink
// type, used when seeding a callee's parameter: the caller's argument may
// be tainted with respect to a sink type the callee's own body never
// queries with StateFor's single-sinkType view.
func allLabels(ctx *PropagationContext, variable string) ([]Label, bool) {
	vt, ok := ctx.vars[variable]
	if !ok || len(vt.labels) == 0 {
		return nil, false
	}
	out := make([]Label, 0, len(vt.labels))
	for l := range vt.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}

func cloneVisited(src map[visitKey]bool) map[visitKey]bool {
	dst := make(map[visitKey]bool, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
