package secondary

import (
	"regexp"
	"sort"
	"strings"
)

// Endpoint is one HTTP route extracted from either backend handler
// registration or frontend call-site source.
type Endpoint struct {
	Method string
	Path   string
	File   string
	Line   int
}

var (
	backendRouteRe = regexp.MustCompile(`(?i)\.(Get|Post|Put|Delete|Patch|Head|Options)\s*\(\s*["` + "`" + `]([^"` + "`" + `]+)["` + "`" + `]`)
	frontendCallRe = regexp.MustCompile(`(?i)(?:axios\.(get|post|put|delete|patch)|fetch)\s*\(\s*["` + "`" + `]([^"` + "`" + `]+)["` + "`" + `]`)
)

// ExtractBackendEndpoints scans handler-registration source (router.Get,
// .Post, .Put, .Delete, .Patch, .Head and .Options calls) for declared
// routes; HandleFunc registrations are not matched.
func ExtractBackendEndpoints(content, file string) []Endpoint {
	return extractWithPattern(content, file, backendRouteRe, "GET")
}

// ExtractFrontendEndpoints scans client call-site source (axios/fetch calls)
// for the routes a frontend actually exercises.
func ExtractFrontendEndpoints(content, file string) []Endpoint {
	return extractWithPattern(content, file, frontendCallRe, "GET")
}

func extractWithPattern(content, file string, re *regexp.Regexp, defaultMethod string) []Endpoint {
	var out []Endpoint
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		matches := re.FindAllStringSubmatch(line, -1)
		for _, m := range matches {
			method := defaultMethod
			if len(m) > 1 && m[1] != "" {
				method = strings.ToUpper(m[1])
			}
			path := m[len(m)-1]
			out = append(out, Endpoint{
				Method: method,
				Path:   normalizePath(path),
				File:   file,
				Line:   i + 1,
			})
		}
	}
	return out
}

var pathParamRe = regexp.MustCompile(`:[a-zA-Z_][a-zA-Z0-9_]*|\{[a-zA-Z_][a-zA-Z0-9_]*\}|\$\{[a-zA-Z_][a-zA-Z0-9_.]*\}`)

// normalizePath collapses path parameters (:id, {id}, ${id}) to a single
// placeholder token so a backend's :id and a frontend's ${userId} match on
// shape rather than literal name.
func normalizePath(path string) string {
	return pathParamRe.ReplaceAllString(strings.TrimRight(path, "/"), "{param}")
}

// ContractMismatchKind classifies how a frontend call and backend route
// disagree.
type ContractMismatchKind string

const (
	MismatchMissingBackend  ContractMismatchKind = "missing_backend"
	MismatchUnusedBackend   ContractMismatchKind = "unused_backend"
	MismatchMethodMismatch  ContractMismatchKind = "method_mismatch"
)

// ContractMismatch is one discrepancy between what the frontend calls and
// what the backend exposes.
type ContractMismatch struct {
	Kind     ContractMismatchKind
	Path     string
	Method   string
	Frontend []Endpoint
	Backend  []Endpoint
}

// MatchContracts compares a backend's declared routes against a frontend's
// call sites and reports three kinds of mismatch: a frontend call with no
// matching backend route, a backend route no frontend call ever exercises,
// and a path match whose method disagrees.
func MatchContracts(backend, frontend []Endpoint) []ContractMismatch {
	backendByPath := groupByPath(backend)
	frontendByPath := groupByPath(frontend)

	paths := make(map[string]struct{})
	for p := range backendByPath {
		paths[p] = struct{}{}
	}
	for p := range frontendByPath {
		paths[p] = struct{}{}
	}

	sortedPaths := make([]string, 0, len(paths))
	for p := range paths {
		sortedPaths = append(sortedPaths, p)
	}
	sort.Strings(sortedPaths)

	var out []ContractMismatch
	for _, path := range sortedPaths {
		be := backendByPath[path]
		fe := frontendByPath[path]

		switch {
		case len(fe) > 0 && len(be) == 0:
			out = append(out, ContractMismatch{Kind: MismatchMissingBackend, Path: path, Frontend: fe})
		case len(be) > 0 && len(fe) == 0:
			out = append(out, ContractMismatch{Kind: MismatchUnusedBackend, Path: path, Backend: be})
		default:
			out = append(out, methodMismatches(path, be, fe)...)
		}
	}
	return out
}

func methodMismatches(path string, be, fe []Endpoint) []ContractMismatch {
	beMethods := make(map[string]bool, len(be))
	for _, e := range be {
		beMethods[e.Method] = true
	}
	feMethods := make(map[string]bool, len(fe))
	for _, e := range fe {
		feMethods[e.Method] = true
	}

	var out []ContractMismatch
	methods := make([]string, 0, len(feMethods))
	for m := range feMethods {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	for _, m := range methods {
		if !beMethods[m] {
			out = append(out, ContractMismatch{
				Kind:     MismatchMethodMismatch,
				Path:     path,
				Method:   m,
				Frontend: fe,
				Backend:  be,
			})
		}
	}
	return out
}

func groupByPath(endpoints []Endpoint) map[string][]Endpoint {
	out := make(map[string][]Endpoint)
	for _, e := range endpoints {
		out[e.Path] = append(out[e.Path], e)
	}
	return out
}
