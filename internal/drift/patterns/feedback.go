package patterns

import "sync"

// FeedbackTuple is one agent's vote on a pattern: Approved=true nudges the
// posterior toward "this pattern holds", Approved=false nudges the other way.
type FeedbackTuple struct {
	PatternID string
	AgentID   string
	Approved  bool
}

// Adjuster folds approved feedback into per-pattern Beta posteriors, capping
// how many times a single agent's feedback can move one pattern's prior so
// that one noisy or adversarial agent can't dominate the posterior alone.
type Adjuster struct {
	mu                     sync.Mutex
	posteriors             map[string]*BetaPosterior
	agentAdjustments       map[string]map[string]int
	maxAdjustmentsPerAgent int
}

// NewAdjuster returns an Adjuster capping each (pattern, agent) pair at
// maxAdjustmentsPerAgent nudges. A non-positive value disables the cap.
func NewAdjuster(maxAdjustmentsPerAgent int) *Adjuster {
	return &Adjuster{
		posteriors:             make(map[string]*BetaPosterior),
		agentAdjustments:       make(map[string]map[string]int),
		maxAdjustmentsPerAgent: maxAdjustmentsPerAgent,
	}
}

// Posterior returns the current posterior for patternID, creating a fresh
// Beta(1,1)-prior one on first access.
func (a *Adjuster) Posterior(patternID string) *BetaPosterior {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.posteriorLocked(patternID)
}

func (a *Adjuster) posteriorLocked(patternID string) *BetaPosterior {
	p, ok := a.posteriors[patternID]
	if !ok {
		p = NewBetaPosterior()
		a.posteriors[patternID] = p
	}
	return p
}

// Apply folds one feedback tuple into its pattern's posterior. It returns
// false, without nudging anything, if the submitting agent has already hit
// its adjustment cap for this pattern_id — the abuse-detection cap spec.md
// §4.8 requires.
func (a *Adjuster) Apply(tuple FeedbackTuple) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxAdjustmentsPerAgent > 0 {
		perAgent, ok := a.agentAdjustments[tuple.PatternID]
		if !ok {
			perAgent = make(map[string]int)
			a.agentAdjustments[tuple.PatternID] = perAgent
		}
		if perAgent[tuple.AgentID] >= a.maxAdjustmentsPerAgent {
			return false
		}
		perAgent[tuple.AgentID]++
	}

	a.posteriorLocked(tuple.PatternID).Observe(tuple.Approved)
	return true
}

// Snapshot returns a defensive copy of every pattern_id's current posterior
// mean, for reporting without exposing the live posteriors for mutation.
func (a *Adjuster) Snapshot() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]float64, len(a.posteriors))
	for id, p := range a.posteriors {
		out[id] = p.PosteriorMean()
	}
	return out
}
