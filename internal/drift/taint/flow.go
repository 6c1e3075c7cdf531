package taint

// Call is one call-site observed within a function body, in source order.
// AssignTo is the variable receiving the call's result ("" if discarded or
// the call is a statement, e.g. a sink invocation).
type Call struct {
	Callee   string
	Args     []string
	AssignTo string
	Line     int
}

// Hop is one intermediate call a tainted value passed through between its
// source and the sink that consumed it.
type Hop struct {
	Callee string
	Line   int
}

// TaintFlow is one source-to-sink propagation finding. Sanitized flows are
// reported too (IsSanitized=true, SanitizersApplied populated) rather than
// dropped, per spec.md §4.10's is_sanitized output field — a clean flow is
// still evidence the sink is reachable from a source, just neutralized.
type TaintFlow struct {
	SourceLabel       Label
	SourceCallee      string
	SourceLine        int
	SinkCallee        string
	SinkType          SinkType
	SinkLine          int
	Hops              []Hop
	SanitizersApplied []string
	IsSanitized       bool
	CWE               string
	Confidence        float64
}

// AnalyzeFunction runs intra-procedural taint propagation over calls, in
// the order given, against spec. Every argument carrying taint history
// at a sink produces a flow: live taint yields IsSanitized=false, taint
// sanitized for that sink type yields IsSanitized=true with
// SanitizersApplied naming the responsible sanitizer callee. Arguments
// with no taint history at all produce nothing.
func AnalyzeFunction(calls []Call, spec FrameworkSpec) []TaintFlow {
	ctx := NewPropagationContext()
	var flows []TaintFlow
	var hops []Hop

	for _, call := range calls {
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
			if call.AssignTo != "" && len(call.Args) == 1 {
				ctx.Copy(call.AssignTo, call.Args[0])
			}
		}
	}

	return flows
}

func mustMatchSource(spec FrameworkSpec, call Call) bool {
	_, ok := spec.MatchSource(call.Callee)
	return ok
}

func mustMatchSanitizer(spec FrameworkSpec, call Call) bool {
	_, ok := spec.MatchSanitizer(call.Callee)
	return ok
}

func mustMatchSink(spec FrameworkSpec, call Call) bool {
	_, ok := spec.MatchSink(call.Callee)
	return ok
}
