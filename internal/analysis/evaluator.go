package analysis

import "fmt"

// Verdict is the outcome of one fraud evaluation.
type Verdict struct {
	Fraudulent bool
	Reason     string
	Rule       string
}

// Evaluator applies the fraud rules with one score cutoff.
type Evaluator struct {
	policy *Policy
	base   float64
}

// Cutoff returns the score a grievance of this classification must reach.
func (e *Evaluator) Cutoff(classification string) float64 {
	cutoff := e.base
	if override, ok := e.policy.cfg.ClassificationThresholds[classification]; ok && override > cutoff {
		cutoff = override
	}
	return cutoff
}

// Evaluate applies the rules in order; the first match wins:
// geo-fence breach, unverifiable score, score below cutoff.
func (e *Evaluator) Evaluate(score float64, classification, locationClaim string, hasPriorSignal bool) Verdict {
	if e.policy.geoBreach(locationClaim) {
		return Verdict{Fraudulent: true, Reason: "geo-fencing breach", Rule: RuleGeoFence}
	}
	if hasPriorSignal {
		return Verdict{Fraudulent: true, Reason: "unverifiable evidence", Rule: RuleUnverifiable}
	}
	if cutoff := e.Cutoff(classification); !isFinite(score) || score < cutoff {
		return Verdict{
			Fraudulent: true,
			Reason:     fmt.Sprintf("low visual confidence score (%.0f%%) below %.0f%% cutoff", score*100, cutoff*100),
			Rule:       RuleLowScore,
		}
	}
	return Verdict{}
}
