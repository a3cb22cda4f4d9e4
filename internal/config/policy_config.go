package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// Fraud
	LowConfidenceThreshold    = 0.30
	StrictConfidenceThreshold = 0.70
	CitizenEvidenceThreshold  = 0.50

	// Officer performance
	InitialPerformanceScore = 95.0
	MaxPerformanceScore     = 100.0
	MinPerformanceScore     = 0.0
	FraudPerformancePenalty = 5.0

	// Citizen rewards
	ResolvedRewardPoints = 10
	FraudPenaltyPoints   = 5
)

// GeoFenceSentinels are location claims known to come from spoofed devices.
var GeoFenceSentinels = []string{"1.0,1.0"}

// SeriousnessKeywords mark a grievance as needing immediate attention.
var SeriousnessKeywords = []string{"pothole", "leakage"}

// Policy is the tunable part of the fraud and performance rules.
type Policy struct {
	LowThreshold             float64            `yaml:"low_threshold"`
	StrictThreshold          float64            `yaml:"strict_threshold"`
	CitizenEvidenceThreshold float64            `yaml:"citizen_evidence_threshold"`
	FraudPenalty             float64            `yaml:"fraud_penalty"`
	GeoFenceSentinels        []string           `yaml:"geo_fence_sentinels"`
	SeriousnessKeywords      []string           `yaml:"seriousness_keywords"`
	ClassificationThresholds map[string]float64 `yaml:"classification_thresholds"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		LowThreshold:             LowConfidenceThreshold,
		StrictThreshold:          StrictConfidenceThreshold,
		CitizenEvidenceThreshold: CitizenEvidenceThreshold,
		FraudPenalty:             FraudPerformancePenalty,
		GeoFenceSentinels:        append([]string(nil), GeoFenceSentinels...),
		SeriousnessKeywords:      append([]string(nil), SeriousnessKeywords...),
		ClassificationThresholds: map[string]float64{},
	}
}

// LoadPolicy reads YAML overrides on top of DefaultPolicy.
// An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks that thresholds are probabilities and ordered.
func (p Policy) Validate() error {
	for name, v := range map[string]float64{
		"low_threshold":              p.LowThreshold,
		"strict_threshold":           p.StrictThreshold,
		"citizen_evidence_threshold": p.CitizenEvidenceThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("policy: %s must be within [0,1], got %v", name, v)
		}
	}
	if p.StrictThreshold < p.LowThreshold {
		return fmt.Errorf("policy: strict_threshold %v is below low_threshold %v", p.StrictThreshold, p.LowThreshold)
	}
	for class, v := range p.ClassificationThresholds {
		if v < 0 || v > 1 {
			return fmt.Errorf("policy: threshold for %q must be within [0,1], got %v", class, v)
		}
	}
	if p.FraudPenalty < 0 {
		return fmt.Errorf("policy: fraud_penalty must not be negative")
	}
	return nil
}
