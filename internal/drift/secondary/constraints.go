package secondary

import (
	"fmt"

	"github.com/PaesslerAG/gval"
)

// InvariantType names the kind of structural rule a Constraint enforces.
type InvariantType string

const (
	// MustExist requires a named file or module to be present.
	MustExist InvariantType = "must_exist"
	// MustNotDepend forbids an import edge between two modules.
	MustNotDepend InvariantType = "must_not_depend"
	// MustBeCalled requires a named function to have at least one caller.
	MustBeCalled InvariantType = "must_be_called"
	// Expression evaluates an arbitrary boolean gval expression against the
	// facts supplied at verification time.
	Expression InvariantType = "expression"
)

// Constraint is one declarative invariant a repo is expected to satisfy.
type Constraint struct {
	Name        string
	Type        InvariantType
	Description string
	Target      string
	Forbidden   string
	Expr        string
	Severity    string
}

// Facts is the evaluation context a Constraint's Expr is checked against:
// file existence, module edges and function call sites, flattened into a
// map gval can address by name.
type Facts struct {
	ExistingFiles   map[string]bool
	ExistingModules map[string]bool
	ModuleEdges     map[string]map[string]bool
	CalledFunctions map[string]bool
	Extra           map[string]interface{}
}

// Verification is the result of checking one Constraint against Facts.
type Verification struct {
	Constraint string
	Satisfied  bool
	Detail     string
	Severity   string
}

// VerifyConstraints checks every constraint against facts and returns one
// Verification per constraint, in the order given.
func VerifyConstraints(constraints []Constraint, facts Facts) []Verification {
	out := make([]Verification, 0, len(constraints))
	for _, c := range constraints {
		out = append(out, verifyOne(c, facts))
	}
	return out
}

func verifyOne(c Constraint, facts Facts) Verification {
	switch c.Type {
	case MustExist:
		ok := facts.ExistingFiles[c.Target] || facts.ExistingModules[c.Target]
		detail := fmt.Sprintf("%q exists", c.Target)
		if !ok {
			detail = fmt.Sprintf("%q not found among known files or modules", c.Target)
		}
		return Verification{Constraint: c.Name, Satisfied: ok, Detail: detail, Severity: c.Severity}

	case MustNotDepend:
		deps := facts.ModuleEdges[c.Target]
		violated := deps != nil && deps[c.Forbidden]
		detail := fmt.Sprintf("%s does not depend on %s", c.Target, c.Forbidden)
		if violated {
			detail = fmt.Sprintf("%s depends on forbidden module %s", c.Target, c.Forbidden)
		}
		return Verification{Constraint: c.Name, Satisfied: !violated, Detail: detail, Severity: c.Severity}

	case MustBeCalled:
		called := facts.CalledFunctions[c.Target]
		detail := fmt.Sprintf("%s has at least one caller", c.Target)
		if !called {
			detail = fmt.Sprintf("%s is never called", c.Target)
		}
		return Verification{Constraint: c.Name, Satisfied: called, Detail: detail, Severity: c.Severity}

	case Expression:
		return verifyExpression(c, facts)

	default:
		return Verification{
			Constraint: c.Name,
			Satisfied:  false,
			Detail:     fmt.Sprintf("unknown invariant type %q", c.Type),
			Severity:   c.Severity,
		}
	}
}

func verifyExpression(c Constraint, facts Facts) Verification {
	params := make(map[string]interface{}, len(facts.Extra)+3)
	for k, v := range facts.Extra {
		params[k] = v
	}
	params["files"] = facts.ExistingFiles
	params["modules"] = facts.ExistingModules
	params["calledFunctions"] = facts.CalledFunctions

	result, err := gval.Evaluate(c.Expr, params)
	if err != nil {
		return Verification{
			Constraint: c.Name,
			Satisfied:  false,
			Detail:     fmt.Sprintf("expression error: %v", err),
			Severity:   c.Severity,
		}
	}

	satisfied, ok := result.(bool)
	if !ok {
		return Verification{
			Constraint: c.Name,
			Satisfied:  false,
			Detail:     fmt.Sprintf("expression %q did not evaluate to a boolean", c.Expr),
			Severity:   c.Severity,
		}
	}

	detail := fmt.Sprintf("expression %q held", c.Expr)
	if !satisfied {
		detail = fmt.Sprintf("expression %q did not hold", c.Expr)
	}
	return Verification{Constraint: c.Name, Satisfied: satisfied, Detail: detail, Severity: c.Severity}
}
