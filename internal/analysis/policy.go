// Package analysis holds the fraud rules applied to resolution evidence and
// the keyword rules used to triage grievance seriousness.
//
// Everything here is pure: no I/O, no clocks, no randomness.
package analysis

import (
	"math"
	"strconv"
	"strings"

	"civicledger/backend/internal/config"
)

// Rule names reported in a Verdict and used as metric labels.
const (
	RuleGeoFence     = "geo_fence"
	RuleUnverifiable = "unverifiable"
	RuleLowScore     = "low_score"
)

const (
	SeriousnessImmediate = "IMMEDIATE"
	SeriousnessStandard  = "STANDARD"
)

// Policy binds the configured thresholds to evaluators.
type Policy struct {
	cfg       config.Policy
	sentinels []coordinate
}

type coordinate struct {
	lat, lng float64
}

// NewPolicy builds a Policy. Sentinels that do not parse as coordinates are
// matched by exact string instead.
func NewPolicy(cfg config.Policy) *Policy {
	p := &Policy{cfg: cfg}
	for _, s := range cfg.GeoFenceSentinels {
		if c, ok := parseCoordinate(s); ok {
			p.sentinels = append(p.sentinels, c)
		}
	}
	return p
}

// DefaultPolicy is NewPolicy(config.DefaultPolicy()).
func DefaultPolicy() *Policy {
	return NewPolicy(config.DefaultPolicy())
}

// Standard returns the evaluator used for lenient checks (0.30 by default).
func (p *Policy) Standard() *Evaluator {
	return &Evaluator{policy: p, base: p.cfg.LowThreshold}
}

// Strict returns the evaluator used by the resolution workflow (0.70 by default).
func (p *Policy) Strict() *Evaluator {
	return &Evaluator{policy: p, base: p.cfg.StrictThreshold}
}

// FraudPenalty is the performance-score deduction for a fraudulent attempt.
func (p *Policy) FraudPenalty() float64 {
	return p.cfg.FraudPenalty
}

// EvidenceAccepted reports whether a citizen photo scored high enough to
// support a new grievance.
func (p *Policy) EvidenceAccepted(score float64) bool {
	return score >= p.cfg.CitizenEvidenceThreshold
}

// Seriousness returns IMMEDIATE when the text mentions a seriousness keyword.
func (p *Policy) Seriousness(rawText string) string {
	text := strings.ToLower(rawText)
	for _, kw := range p.cfg.SeriousnessKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return SeriousnessImmediate
		}
	}
	return SeriousnessStandard
}

// geoBreach is true for a non-empty claim that is a sentinel, unparseable or
// outside valid coordinate ranges.
func (p *Policy) geoBreach(claim string) bool {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return false
	}
	for _, s := range p.cfg.GeoFenceSentinels {
		if strings.EqualFold(stripSpaces(s), stripSpaces(claim)) {
			return true
		}
	}
	c, ok := parseCoordinate(claim)
	if !ok {
		return true
	}
	for _, s := range p.sentinels {
		if s == c {
			return true
		}
	}
	return false
}

func parseCoordinate(s string) (coordinate, bool) {
	parts := strings.Split(stripSpaces(s), ",")
	if len(parts) != 2 {
		return coordinate{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return coordinate{}, false
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return coordinate{}, false
	}
	if !isFinite(lat) || !isFinite(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return coordinate{}, false
	}
	return coordinate{lat: lat, lng: lng}, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
