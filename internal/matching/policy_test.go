package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

func TestRouteDecisionBands(t *testing.T) {
	policy := NewPolicy(DefaultParams())

	tests := []struct {
		name     string
		score    float64
		expected string
	}{
		{"well above auto threshold", 0.97, entity.DecisionAutoMatched},
		{"exactly at auto threshold", 0.90, entity.DecisionAutoMatched},
		{"inside review band", 0.75, entity.DecisionFlaggedForReview},
		{"exactly at review threshold", 0.60, entity.DecisionFlaggedForReview},
		{"just below review threshold", 0.59, entity.DecisionNoMatchFound},
		{"zero score", 0.0, entity.DecisionNoMatchFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routing := policy.Route(&Candidate{CombinedScore: tt.score})
			assert.Equal(t, tt.expected, routing.Decision)
			assert.NotEmpty(t, routing.Rationale)
		})
	}
}

func TestRouteNilCandidate(t *testing.T) {
	policy := NewPolicy(DefaultParams())

	routing := policy.Route(nil)
	assert.Equal(t, entity.DecisionNoMatchFound, routing.Decision)
	assert.NotEmpty(t, routing.Rationale)
}

func TestRouteConfidence(t *testing.T) {
	policy := NewPolicy(DefaultParams())

	tests := []struct {
		name       string
		confidence float64
		expected   string
	}{
		{"high confidence commits", 0.92, entity.DecisionAssistedAutoMatched},
		{"exactly at threshold commits", 0.90, entity.DecisionAssistedAutoMatched},
		{"mid confidence stays flagged", 0.78, entity.DecisionFlaggedForReview},
		{"low confidence stays flagged", 0.55, entity.DecisionFlaggedForReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routing := policy.RouteConfidence(tt.confidence)
			assert.Equal(t, tt.expected, routing.Decision)
		})
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Params)
		errorContains string
	}{
		{
			name:   "defaults are valid",
			mutate: func(p *Params) {},
		},
		{
			name:          "auto threshold above one",
			mutate:        func(p *Params) { p.AutoThreshold = 1.5 },
			errorContains: "auto threshold",
		},
		{
			name:          "review threshold negative",
			mutate:        func(p *Params) { p.ReviewThreshold = -0.1 },
			errorContains: "review threshold",
		},
		{
			name:          "auto not above review",
			mutate:        func(p *Params) { p.AutoThreshold = 0.5 },
			errorContains: "greater than review threshold",
		},
		{
			name:          "zero date window",
			mutate:        func(p *Params) { p.DateWindowDays = 0 },
			errorContains: "date window",
		},
		{
			name:          "zero amount tolerance",
			mutate:        func(p *Params) { p.AmountTolerancePct = 0 },
			errorContains: "amount tolerance",
		},
		{
			name:          "zero candidate cap",
			mutate:        func(p *Params) { p.CandidateCap = 0 },
			errorContains: "candidate cap",
		},
		{
			name: "weights sum to zero",
			mutate: func(p *Params) {
				p.TextWeight = 0
				p.AmountWeight = 0
				p.DateWeight = 0
			},
			errorContains: "weights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)

			err := params.Validate()
			if tt.errorContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
