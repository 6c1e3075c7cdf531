// Package taint implements intra- and inter-procedural taint propagation:
// tracking which variables carry untrusted data, which sanitizers clear
// that status for which sink types, and which sink calls see live taint.
package taint

import "sort"

// Label identifies the origin of tainted data.
type Label string

const (
	LabelUserInput   Label = "UserInput"
	LabelEnvironment Label = "Environment"
	LabelFileSystem  Label = "FileSystem"
	LabelDatabase    Label = "Database"
	LabelNetwork     Label = "Network"
)

// SinkType identifies the class of vulnerability a sink guards against.
// Sanitization is tracked per (variable, sink-type): a variable sanitized
// for SQLInjection can still be live-tainted for XSS.
type SinkType string

const (
	SinkSQLInjection      SinkType = "sql_injection"
	SinkCommandInjection  SinkType = "command_injection"
	SinkXSS               SinkType = "xss"
	SinkPathTraversal     SinkType = "path_traversal"
	SinkSSRF              SinkType = "ssrf"
	SinkDeserialization   SinkType = "insecure_deserialization"
)

// varTaint is one variable's current taint state: the labels currently
// carried, and which sink types have since been sanitized against (value is
// the sanitizer callee responsible, for SanitizersApplied reporting).
type varTaint struct {
	labels       map[Label]struct{}
	sanitizedFor map[SinkType]string
}

// PropagationContext tracks taint state for every variable observed within
// one function body. Zero value is not usable; use NewPropagationContext.
type PropagationContext struct {
	vars map[string]*varTaint
}

// NewPropagationContext returns an empty context.
func NewPropagationContext() *PropagationContext {
	return &PropagationContext{vars: make(map[string]*varTaint)}
}

func (c *PropagationContext) entry(variable string) *varTaint {
	vt, ok := c.vars[variable]
	if !ok {
		vt = &varTaint{labels: make(map[Label]struct{}), sanitizedFor: make(map[SinkType]string)}
		c.vars[variable] = vt
	}
	return vt
}

// Taint marks variable as carrying label. Per the ordering semantics
// (`taint(sanitize(x))` re-taints), a fresh Taint call clears any prior
// sanitization: the new taint is untrusted with respect to every sink type
// again, since the sanitizer ran against data that no longer reflects the
// variable's current value.
func (c *PropagationContext) Taint(variable string, label Label) {
	vt := c.entry(variable)
	vt.labels[label] = struct{}{}
	vt.sanitizedFor = make(map[SinkType]string)
}

// Sanitize marks variable clean for every sink type in covers, crediting
// sanitizerCallee as the reason (reported via StateFor's sanitizedBy). A
// variable with no live taint is left alone — sanitizing clean data is a
// no-op, not an error.
func (c *PropagationContext) Sanitize(variable string, covers []SinkType, sanitizerCallee string) {
	vt, ok := c.vars[variable]
	if !ok || len(vt.labels) == 0 {
		return
	}
	for _, st := range covers {
		vt.sanitizedFor[st] = sanitizerCallee
	}
}

// Copy propagates from's current taint state onto to (e.g. `to := from`),
// replacing whatever taint state to previously had.
func (c *PropagationContext) Copy(to, from string) {
	src, ok := c.vars[from]
	if !ok || len(src.labels) == 0 {
		delete(c.vars, to)
		return
	}
	dst := c.entry(to)
	dst.labels = make(map[Label]struct{}, len(src.labels))
	for l := range src.labels {
		dst.labels[l] = struct{}{}
	}
	dst.sanitizedFor = make(map[SinkType]string, len(src.sanitizedFor))
	for st, by := range src.sanitizedFor {
		dst.sanitizedFor[st] = by
	}
}

// StateFor reports variable's taint state with respect to sinkType: the
// sorted labels it carries, whether it has been sanitized for that sink
// type (and by which callee), and whether the variable has any taint
// history at all. Unlike LiveLabels, this reports sanitized variables too
// (with sanitized=true) so callers can emit an is_sanitized=true flow for
// audit visibility rather than silently dropping it.
func (c *PropagationContext) StateFor(variable string, sinkType SinkType) (labels []Label, sanitized bool, sanitizedBy string, hasHistory bool) {
	vt, ok := c.vars[variable]
	if !ok || len(vt.labels) == 0 {
		return nil, false, "", false
	}
	out := make([]Label, 0, len(vt.labels))
	for l := range vt.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	by, isSanitized := vt.sanitizedFor[sinkType]
	return out, isSanitized, by, true
}

// LiveLabels returns the sorted labels variable carries that are still live
// against sinkType, and whether any such label exists.
func (c *PropagationContext) LiveLabels(variable string, sinkType SinkType) ([]Label, bool) {
	labels, sanitized, _, hasHistory := c.StateFor(variable, sinkType)
	if !hasHistory || sanitized {
		return nil, false
	}
	return labels, true
}

// IsTainted reports whether variable carries any live label at all,
// regardless of sink type.
func (c *PropagationContext) IsTainted(variable string) bool {
	vt, ok := c.vars[variable]
	return ok && len(vt.labels) > 0
}
