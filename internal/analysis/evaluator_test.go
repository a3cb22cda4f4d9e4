package analysis_test

import (
	"testing"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/config"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Rules(t *testing.T) {
	policy := analysis.DefaultPolicy()

	tests := []struct {
		name      string
		evaluator *analysis.Evaluator
		score     float64
		location  string
		prior     bool
		wantFraud bool
		wantRule  string
	}{
		{"clean strict", policy.Strict(), 0.85, "17.72,83.30", false, false, ""},
		{"low score strict", policy.Strict(), 0.15, "", false, true, analysis.RuleLowScore},
		{"between cutoffs strict", policy.Strict(), 0.50, "", false, true, analysis.RuleLowScore},
		{"between cutoffs standard", policy.Standard(), 0.50, "", false, false, ""},
		{"below standard", policy.Standard(), 0.29, "", false, true, analysis.RuleLowScore},
		{"exact cutoff is clean", policy.Strict(), 0.70, "", false, false, ""},
		{"sentinel beats high score", policy.Strict(), 0.99, "1.0,1.0", false, true, analysis.RuleGeoFence},
		{"sentinel with spaces", policy.Standard(), 0.99, " 1.0, 1.0 ", false, true, analysis.RuleGeoFence},
		{"sentinel numeric form", policy.Standard(), 0.99, "1,1.00", false, true, analysis.RuleGeoFence},
		{"unparseable claim", policy.Standard(), 0.99, "near the temple", false, true, analysis.RuleGeoFence},
		{"out of range", policy.Standard(), 0.99, "123.0,80.0", false, true, analysis.RuleGeoFence},
		{"prior signal", policy.Standard(), 0.99, "17.72,83.30", true, true, analysis.RuleUnverifiable},
		{"geo before prior", policy.Standard(), 0.0, "1.0,1.0", true, true, analysis.RuleGeoFence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.evaluator.Evaluate(tt.score, "Road Maintenance", tt.location, tt.prior)

			assert.Equal(t, tt.wantFraud, v.Fraudulent)
			assert.Equal(t, tt.wantRule, v.Rule)
			if tt.wantFraud {
				assert.NotEmpty(t, v.Reason)
			} else {
				assert.Empty(t, v.Reason)
			}
		})
	}
}

func TestEvaluate_ReasonText(t *testing.T) {
	policy := analysis.DefaultPolicy()

	assert.Equal(t, "geo-fencing breach", policy.Strict().Evaluate(0.9, "", "1.0,1.0", false).Reason)
	assert.Equal(t, "low visual confidence score (15%) below 70% cutoff",
		policy.Strict().Evaluate(0.15, "", "", false).Reason)
}

func TestEvaluate_ClassificationOverride(t *testing.T) {
	cfg := config.DefaultPolicy()
	cfg.ClassificationThresholds = map[string]float64{"Water Supply": 0.8, "Street Lights": 0.1}
	policy := analysis.NewPolicy(cfg)

	assert.True(t, policy.Strict().Evaluate(0.75, "Water Supply", "", false).Fraudulent)
	assert.False(t, policy.Strict().Evaluate(0.75, "Road Maintenance", "", false).Fraudulent)
	// an override never lowers the base cutoff
	assert.Equal(t, 0.70, policy.Strict().Cutoff("Street Lights"))
	assert.Equal(t, 0.30, policy.Standard().Cutoff("Street Lights"))
}

func TestEvaluate_NaNIsNeverClean(t *testing.T) {
	zero := 0.0
	v := analysis.DefaultPolicy().Standard().Evaluate(zero/zero, "", "", false)
	assert.True(t, v.Fraudulent)
}

func TestSeriousnessAndEvidence(t *testing.T) {
	policy := analysis.DefaultPolicy()

	assert.Equal(t, analysis.SeriousnessImmediate, policy.Seriousness("Huge POTHOLE near school"))
	assert.Equal(t, analysis.SeriousnessImmediate, policy.Seriousness("water leakage in lane 4"))
	assert.Equal(t, analysis.SeriousnessStandard, policy.Seriousness("streetlight flickering"))

	assert.True(t, policy.EvidenceAccepted(0.5))
	assert.False(t, policy.EvidenceAccepted(0.49))
	assert.Equal(t, 5.0, policy.FraudPenalty())
}

// TestEvaluateProperties checks purity and threshold monotonicity.
func TestEvaluateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	policy := analysis.DefaultPolicy()

	genLocation := gen.OneGenOf(
		gen.Const(""),
		gen.Const("1.0,1.0"),
		gen.Const("17.72,83.30"),
		gen.AlphaString(),
	)

	properties.Property("evaluate is pure", prop.ForAll(
		func(score float64, location string, prior bool) bool {
			a := policy.Strict().Evaluate(score, "Road Maintenance", location, prior)
			b := policy.Strict().Evaluate(score, "Road Maintenance", location, prior)
			return a == b
		},
		gen.Float64Range(0, 1),
		genLocation,
		gen.Bool(),
	))

	properties.Property("strict flags everything standard flags", prop.ForAll(
		func(score float64, location string, prior bool) bool {
			std := policy.Standard().Evaluate(score, "", location, prior)
			strict := policy.Strict().Evaluate(score, "", location, prior)
			return !std.Fraudulent || strict.Fraudulent
		},
		gen.Float64Range(0, 1),
		genLocation,
		gen.Bool(),
	))

	properties.Property("sentinel always flags", prop.ForAll(
		func(score float64, prior bool) bool {
			v := policy.Standard().Evaluate(score, "", "1.0,1.0", prior)
			return v.Fraudulent && v.Rule == analysis.RuleGeoFence
		},
		gen.Float64Range(0, 1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
