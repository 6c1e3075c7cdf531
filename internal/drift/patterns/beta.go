// Package patterns turns raw detect.PatternMatch findings into scored,
// trend-aware intelligence: aggregation, Beta-posterior confidence, dominant
// convention discovery, and feedback-adjusted priors.
package patterns

import "math"

// Tier buckets a pattern's trustworthiness for downstream gates.
type Tier string

const (
	TierProvisional Tier = "provisional"
	TierEstablished Tier = "established"
	TierDeprecated  Tier = "deprecated"
)

// Momentum buckets recent movement in a pattern's posterior mean.
type Momentum string

const (
	MomentumRising  Momentum = "Rising"
	MomentumStable  Momentum = "Stable"
	MomentumFalling Momentum = "Falling"
)

// establishedMean/deprecatedMean/minSamples are the thresholds spec.md §4.8
// leaves to implementation: a pattern needs both a confident mean and enough
// observations before it graduates out of "provisional".
const (
	establishedMean = 0.70
	deprecatedMean  = 0.30
	minSamples      = 10.0
	momentumEpsilon = 0.02
)

// BetaPosterior accumulates (alpha, beta) pseudo-counts from a sequence of
// pass/fail observations, giving a running Bayesian estimate of how often a
// pattern holds. Starts from a uniform Beta(1,1) prior.
type BetaPosterior struct {
	Alpha float64
	Beta  float64

	history []float64 // posterior_mean after each Observe, oldest first
}

// NewBetaPosterior returns a fresh Beta(1,1)-prior posterior.
func NewBetaPosterior() *BetaPosterior {
	return &BetaPosterior{Alpha: 1, Beta: 1}
}

// Observe records one pass/fail observation and snapshots the resulting
// posterior mean for momentum tracking.
func (p *BetaPosterior) Observe(pass bool) {
	if pass {
		p.Alpha++
	} else {
		p.Beta++
	}
	p.history = append(p.history, p.PosteriorMean())
}

// PosteriorMean is E[X] for Beta(alpha, beta) = alpha/(alpha+beta).
func (p *BetaPosterior) PosteriorMean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// SampleSize is the number of observations folded into the posterior, net
// of the uniform prior's two pseudo-counts.
func (p *BetaPosterior) SampleSize() float64 {
	return p.Alpha + p.Beta - 2
}

// CredibleInterval returns the (low, high) quantiles of the Beta(alpha,beta)
// distribution at the given level (e.g. 0.95 for a 95% credible interval).
func (p *BetaPosterior) CredibleInterval(level float64) (low, high float64) {
	tail := (1 - level) / 2
	low = betaQuantile(tail, p.Alpha, p.Beta)
	high = betaQuantile(1-tail, p.Alpha, p.Beta)
	return low, high
}

// Tier derives a trust bucket from the posterior mean and sample size. A
// pattern stays provisional until it has accumulated enough observations to
// trust the mean either way.
func (p *BetaPosterior) Tier() Tier {
	if p.SampleSize() < minSamples {
		return TierProvisional
	}
	mean := p.PosteriorMean()
	switch {
	case mean >= establishedMean:
		return TierEstablished
	case mean <= deprecatedMean:
		return TierDeprecated
	default:
		return TierProvisional
	}
}

// Momentum compares the most recent posterior mean against the mean from
// `window` observations ago. With fewer than two snapshots, momentum is
// Stable by definition.
func (p *BetaPosterior) Momentum(window int) Momentum {
	n := len(p.history)
	if n < 2 {
		return MomentumStable
	}
	if window <= 0 || window >= n {
		window = n - 1
	}
	recent := p.history[n-1]
	prior := p.history[n-1-window]
	delta := recent - prior
	switch {
	case delta > momentumEpsilon:
		return MomentumRising
	case delta < -momentumEpsilon:
		return MomentumFalling
	default:
		return MomentumStable
	}
}

// --- Regularized incomplete beta function and its inverse ---
//
// No example repo or retrieval-pack go.mod carries a maintained special-
// functions library as an exercised dependency (gonum appears only as an
// indirect, unexercised entry in one manifest-only reference file), so this
// is a deliberate standard-library fallback: a textbook continued-fraction
// evaluation of I_x(a,b) (Numerical Recipes §6.4) plus bisection for its
// inverse. It is a narrow numerical primitive, not a domain dependency with
// an ecosystem-idiomatic home.

func logBeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

// betacf evaluates the continued fraction for the incomplete beta function.
func betacf(x, a, b float64) float64 {
	const maxIter = 200
	const epsilon = 3e-12
	const fpMin = 1e-300

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpMin {
		d = fpMin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		m2 := float64(2 * m)

		aa := float64(m) * (b - float64(m)) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + float64(m)) * (qab + float64(m)) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < epsilon {
			break
		}
	}
	return h
}

// regularizedIncompleteBeta computes I_x(a, b), the CDF of Beta(a, b) at x.
func regularizedIncompleteBeta(x, a, b float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}

	front := math.Exp(a*math.Log(x) + b*math.Log(1-x) - logBeta(a, b))
	if x < (a+1)/(a+b+2) {
		return front * betacf(x, a, b) / a
	}
	return 1 - front*betacf(1-x, b, a)/b
}

// betaQuantile inverts regularizedIncompleteBeta via bisection. Bounded
// iteration count keeps this a pure, terminating function of (p, a, b).
func betaQuantile(p, a, b float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}

	lo, hi := 0.0, 1.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if regularizedIncompleteBeta(mid, a, b) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
