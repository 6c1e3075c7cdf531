package temporal

import "time"

// Severity classifies an alert raised by the rule set.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Rule is a per-category threshold against a drift metric value. Fire
// reports whether `value` crosses the configured threshold for Severity.
type Rule struct {
	Category  string
	Severity  Severity
	Threshold float64
	// Above, when true, fires when value > Threshold; when false, fires
	// when value < Threshold.
	Above bool
	// Cooldown is the minimum interval between two fired alerts of the
	// same Category. Critical rules should carry a shorter cooldown than
	// Warning rules for the same category so escalations are never
	// swallowed by a Warning's dampening window.
	Cooldown time.Duration
}

func (r Rule) fires(value float64) bool {
	if r.Above {
		return value > r.Threshold
	}
	return value < r.Threshold
}

// Alert is a single rule firing at a point in time.
type Alert struct {
	Category string
	Severity Severity
	Value    float64
	At       time.Time
}

// Dampener suppresses repeated alerts of the same category within its
// cooldown window (spec.md §4.5 Alerts).
type Dampener struct {
	lastFired map[string]time.Time
}

// NewDampener returns a Dampener with no firing history.
func NewDampener() *Dampener {
	return &Dampener{lastFired: make(map[string]time.Time)}
}

// Evaluate runs `rules` against `value` at time `at`, returning the alerts
// that fire and are not suppressed by the category's cooldown. Only the
// first rule to fire for a given category at a given evaluation is
// considered, in the order `rules` is given.
func (d *Dampener) Evaluate(rules []Rule, value float64, at time.Time) []Alert {
	var out []Alert
	fired := make(map[string]bool)
	for _, r := range rules {
		if fired[r.Category] || !r.fires(value) {
			continue
		}
		if last, ok := d.lastFired[r.Category]; ok && at.Sub(last) < r.Cooldown {
			continue
		}
		d.lastFired[r.Category] = at
		fired[r.Category] = true
		out = append(out, Alert{Category: r.Category, Severity: r.Severity, Value: value, At: at})
	}
	return out
}

// DefaultRules returns a baseline rule set over the drift metrics computed
// by BuildSnapshot: low KSI warns then escalates to critical, contradiction
// density spikes warn, and consolidation efficiency collapsing to zero
// warns.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "ksi", Severity: SeverityCritical, Threshold: 0.3, Above: false, Cooldown: 15 * time.Minute},
		{Category: "ksi", Severity: SeverityWarning, Threshold: 0.6, Above: false, Cooldown: time.Hour},
		{Category: "contradiction_density", Severity: SeverityCritical, Threshold: 0.25, Above: true, Cooldown: 15 * time.Minute},
		{Category: "contradiction_density", Severity: SeverityWarning, Threshold: 0.1, Above: true, Cooldown: time.Hour},
		{Category: "consolidation_efficiency", Severity: SeverityWarning, Threshold: 0.05, Above: false, Cooldown: time.Hour},
	}
}
