package matching

import (
	"fmt"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

// Routing is a classified decision plus the rationale recorded with it.
type Routing struct {
	Decision  string
	Rationale string
}

// Policy classifies a combined score into auto-matched, flagged, or
// no-match. One Policy instance is shared by the deterministic pass and
// the assisted matcher so the threshold semantics exist exactly once.
type Policy struct {
	params Params
}

// NewPolicy creates a decision policy with the given thresholds.
func NewPolicy(params Params) *Policy {
	return &Policy{params: params}
}

// Route classifies the best candidate from a deterministic scoring pass.
// A nil candidate means retrieval produced nothing.
func (p *Policy) Route(best *Candidate) Routing {
	if best == nil {
		return Routing{
			Decision:  entity.DecisionNoMatchFound,
			Rationale: "no candidate invoices within the matching window",
		}
	}

	score := best.CombinedScore
	switch {
	case score >= p.params.AutoThreshold:
		return Routing{
			Decision: entity.DecisionAutoMatched,
			Rationale: fmt.Sprintf("auto-matched: combined score %.2f >= threshold %.2f",
				score, p.params.AutoThreshold),
		}
	case score >= p.params.ReviewThreshold:
		return Routing{
			Decision: entity.DecisionFlaggedForReview,
			Rationale: fmt.Sprintf("review required: combined score %.2f between thresholds (%.2f-%.2f)",
				score, p.params.ReviewThreshold, p.params.AutoThreshold),
		}
	default:
		return Routing{
			Decision: entity.DecisionNoMatchFound,
			Rationale: fmt.Sprintf("no match: best combined score %.2f below review threshold %.2f",
				score, p.params.ReviewThreshold),
		}
	}
}

// RouteConfidence classifies a confidence value returned by the assisted
// matcher, applying the same threshold band as the deterministic pass.
// Confidence below the auto threshold keeps the line flagged for a human.
func (p *Policy) RouteConfidence(confidence float64) Routing {
	if confidence >= p.params.AutoThreshold {
		return Routing{
			Decision: entity.DecisionAssistedAutoMatched,
			Rationale: fmt.Sprintf("assisted auto-match: confidence %.2f >= threshold %.2f",
				confidence, p.params.AutoThreshold),
		}
	}
	return Routing{
		Decision: entity.DecisionFlaggedForReview,
		Rationale: fmt.Sprintf("assisted suggestion held for review: confidence %.2f < threshold %.2f",
			confidence, p.params.AutoThreshold),
	}
}

// AutoThreshold exposes the commit threshold for callers that report it.
func (p *Policy) AutoThreshold() float64 {
	return p.params.AutoThreshold
}
