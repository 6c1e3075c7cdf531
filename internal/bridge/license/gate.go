// Package license implements the Bridge's pure feature-tiering check:
// Community/Team/Enterprise license tiers gating which Bridge features
// (grounding loop, CRDT sync, agent-identity RBAC) a given deployment may
// exercise.
package license

import (
	"strings"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// Tier is a license tier name, ordered from least to most capable.
type Tier int

const (
	TierCommunity Tier = iota
	TierTeam
	TierEnterprise
)

func (t Tier) String() string {
	switch t {
	case TierTeam:
		return "team"
	case TierEnterprise:
		return "enterprise"
	default:
		return "community"
	}
}

// ParseTier maps a config string (pkg/config.BridgeConfig.LicenseTier) to a
// Tier, defaulting to Community on anything unrecognized.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enterprise":
		return TierEnterprise
	case "team":
		return TierTeam
	default:
		return TierCommunity
	}
}

// Feature names gated by FeatureGate.Check.
const (
	FeatureGroundingLoop  = "grounding_loop"
	FeatureCRDTSync       = "crdt_sync"
	FeatureAgentAuth      = "agent_auth"
	FeatureCausalGraph    = "causal_graph"
	FeatureTemporalQuery  = "temporal_query"
	FeatureMultiNamespace = "multi_namespace"
)

// requirements maps each gated feature to the minimum tier that unlocks it.
// Anything not listed here is available at every tier.
var requirements = map[string]Tier{
	FeatureGroundingLoop:  TierCommunity,
	FeatureTemporalQuery:  TierCommunity,
	FeatureCausalGraph:    TierTeam,
	FeatureCRDTSync:       TierTeam,
	FeatureAgentAuth:      TierEnterprise,
	FeatureMultiNamespace: TierEnterprise,
}

// FeatureGate is a pure, side-effect-free license check: given the
// deployment's configured tier, it decides whether a named feature may run.
type FeatureGate struct {
	tier Tier
}

// NewFeatureGate builds a gate fixed to tier.
func NewFeatureGate(tier Tier) *FeatureGate {
	return &FeatureGate{tier: tier}
}

// Tier returns the gate's configured tier.
func (g *FeatureGate) Tier() Tier {
	return g.tier
}

// Check reports whether feature is allowed under the gate's tier. Unknown
// feature names are always allowed — gating is opt-in per named feature, not
// deny-by-default.
func (g *FeatureGate) Check(feature string) error {
	required, gated := requirements[feature]
	if !gated || g.tier >= required {
		return nil
	}
	return derr.FeatureLocked(feature, g.tier.String())
}

// MustCheck is Check, panicking on denial. Reserved for call sites that have
// already validated the feature is reachable (e.g. behind a prior Check) and
// would only hit a denial on a programming error.
func (g *FeatureGate) MustCheck(feature string) {
	if err := g.Check(feature); err != nil {
		panic(err)
	}
}

// Drift event kinds the mapper maps into memories (spec.md §4.11). Named
// here, not in the mapper package, so the tier each kind requires lives next
// to every other tiering decision.
const (
	EventPatternApproved   = "PatternApproved"
	EventPatternDiscovered = "PatternDiscovered"
	EventRegression        = "Regression"
	EventViolationFixed    = "ViolationFixed"
	EventConstraintBroken  = "ConstraintBroken"
)

// eventRequirements gates which Drift event kinds the mapper may turn into
// memories at a given tier: Community gets a small, high-confidence subset
// (approvals and fixes); Team unlocks the full event mapping (discovery and
// regression signal, which is noisier and more valuable to a paying team).
var eventRequirements = map[string]Tier{
	EventPatternApproved:   TierCommunity,
	EventViolationFixed:    TierCommunity,
	EventPatternDiscovered: TierTeam,
	EventRegression:        TierTeam,
	EventConstraintBroken:  TierTeam,
}

// CheckEvent reports whether the mapper may turn a Drift event of the given
// kind into a memory under the gate's tier.
func (g *FeatureGate) CheckEvent(kind string) error {
	required, gated := eventRequirements[kind]
	if !gated || g.tier >= required {
		return nil
	}
	return derr.FeatureLocked("event:"+kind, g.tier.String())
}

// ScheduledGroundingAllowed reports whether the grounding loop may run on a
// cron schedule rather than only on demand — Team and above per spec.md
// §4.11 ("Team adds ... scheduled grounding").
func (g *FeatureGate) ScheduledGroundingAllowed() bool {
	return g.tier >= TierTeam
}

// ContradictionGenerationAllowed reports whether the grounding loop may
// generate contradiction memories, an Enterprise-only capability.
func (g *FeatureGate) ContradictionGenerationAllowed() bool {
	return g.tier >= TierEnterprise
}
